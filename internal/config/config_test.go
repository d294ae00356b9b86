package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "badger")
	t.Setenv("HTTP_ADDR", "8081")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "messaging-service", cfg.ServiceName)
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, ":9090", cfg.ObsHTTPAddr)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 120, cfg.RateLimitRequests)
	assert.Equal(t, time.Hour, cfg.ProfileCacheTTL)
	assert.Nil(t, cfg.Brokers())
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	t.Setenv("STORE_DRIVER", "badger")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"postgres with url", Config{JWTSecret: "k", StoreDriver: StorePostgres, DatabaseURL: "postgres://x"}, false},
		{"postgres without url", Config{JWTSecret: "k", StoreDriver: StorePostgres}, true},
		{"badger", Config{JWTSecret: "k", StoreDriver: StoreBadger, BadgerPath: "/tmp/x"}, false},
		{"badger with kafka", Config{JWTSecret: "k", StoreDriver: StoreBadger, BadgerPath: "/tmp/x", KafkaBrokers: "k:9092"}, true},
		{"unknown driver", Config{JWTSecret: "k", StoreDriver: "mysql"}, true},
		{"missing secret", Config{StoreDriver: StoreBadger, BadgerPath: "/tmp/x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBrokers(t *testing.T) {
	cfg := Config{KafkaBrokers: "a:9092, b:9092,,"}
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers())
}
