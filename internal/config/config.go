package config

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreBadger   = "badger"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME,default=messaging-service"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	HTTPAddr    string `env:"HTTP_ADDR,default=:8080"`
	ObsHTTPAddr string `env:"OBS_HTTP_ADDR,default=:9090"`

	StoreDriver string `env:"STORE_DRIVER,default=postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	BadgerPath  string `env:"BADGER_PATH,default=./data/messages"`

	RedisAddr       string        `env:"REDIS_ADDR"`
	ProfileCacheTTL time.Duration `env:"PROFILE_CACHE_TTL,default=1h"`

	KafkaBrokers     string        `env:"KAFKA_BROKERS"`
	KafkaTopicPrefix string        `env:"KAFKA_TOPIC_PREFIX,default=messaging"`
	OutboxBatchSize  int           `env:"OUTBOX_BATCH_SIZE,default=100"`
	OutboxPollDelay  time.Duration `env:"OUTBOX_POLL_DELAY,default=2s"`

	JWTSecret   string `env:"JWT_SECRET,required=true"`
	JWTIssuer   string `env:"JWT_ISSUER"`
	JWTAudience string `env:"JWT_AUDIENCE"`

	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS,default=120"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW,default=1m"`

	TracingEnabled bool   `env:"TRACING_ENABLED,default=false"`
	OTLPEndpoint   string `env:"OTLP_ENDPOINT,default=http://localhost:4318/v1/traces"`
}

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.HTTPAddr = fixPort(cfg.HTTPAddr)
	cfg.ObsHTTPAddr = fixPort(cfg.ObsHTTPAddr)
	return &cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store driver %q", c.StoreDriver)
		}
	case StoreBadger:
		if c.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required for store driver %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.KafkaBrokers != "" && c.StoreDriver != StorePostgres {
		return fmt.Errorf("KAFKA_BROKERS requires the postgres store (outbox)")
	}
	return nil
}

func (c *Config) Brokers() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func fixPort(port string) string {
	if port != "" && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
