package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gigmarket/messaging/internal/domain"
)

const maxBodyBytes = 64 << 10

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct tags and reports the first failure as a
// domain.ErrValidation.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		switch fe.Tag() {
		case "required":
			return fmt.Errorf("%w: %s is required", domain.ErrValidation, fe.Field())
		case "max":
			return fmt.Errorf("%w: %s exceeds %s characters", domain.ErrValidation, fe.Field(), fe.Param())
		default:
			return fmt.Errorf("%w: %s is invalid", domain.ErrValidation, fe.Field())
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}

// DecodeJSON reads a JSON body into dst and validates it.
func DecodeJSON(r io.Reader, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json", domain.ErrValidation)
	}
	return Validate(dst)
}
