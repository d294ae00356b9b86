package transport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigmarket/messaging/internal/domain"
)

type sample struct {
	To      string `json:"to" validate:"required"`
	Content string `json:"content" validate:"required,max=10"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"ok", `{"to":"bob","content":"hi"}`, ""},
		{"missing to", `{"content":"hi"}`, "to is required"},
		{"missing content", `{"to":"bob"}`, "content is required"},
		{"too long", `{"to":"bob","content":"01234567890"}`, "content exceeds 10 characters"},
		{"malformed", `{"to":`, "invalid json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s sample
			err := DecodeJSON(strings.NewReader(tt.body), &s)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "bob", s.To)
				return
			}
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
