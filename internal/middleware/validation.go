package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// ErrEmptyBody is returned by DecodeAndValidate when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON field names rather than Go struct field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Numeric tags such as gte=0 compare decimals by value.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// ValidateRequest runs the struct's validate tags.
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes a JSON body of at most MaxBodyBytes into v and
// validates it.
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrEmptyBody
	}

	if err := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes)).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return ValidateRequest(v)
}

// ValidationError is one rejected field, named by its JSON key. Nested
// fields use dotted paths such as items[0].quantity.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors flattens validator errors. Any other error yields nil.
func FormatValidationErrors(err error) []ValidationError {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return nil
	}

	out := make([]ValidationError, 0, len(fieldErrors))
	for _, e := range fieldErrors {
		out = append(out, ValidationError{
			Field:   fieldPath(e),
			Message: fieldMessage(e),
		})
	}
	return out
}

// fieldPath drops struct type names (the root and any embedded structs) from
// the namespace, leaving only JSON keys.
func fieldPath(e validator.FieldError) string {
	parts := strings.Split(e.Namespace(), ".")
	keys := parts[:0]
	for _, p := range parts[1:] {
		if p != "" && unicode.IsUpper(rune(p[0])) {
			continue
		}
		keys = append(keys, p)
	}
	if len(keys) == 0 {
		return e.Field()
	}
	return strings.Join(keys, ".")
}

var tagMessages = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email format",
	"max":      "Value is too long",
	"oneof":    "Must be one of: %s",
	"gte":      "Value must be greater than or equal to %s",
	"lte":      "Value must be less than or equal to %s",
	"gt":       "Value must be greater than %s",
	"lt":       "Value must be less than %s",
}

func fieldMessage(e validator.FieldError) string {
	if e.Tag() == "min" {
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters long"
		}
		return "Value must be at least " + e.Param()
	}

	msg, ok := tagMessages[e.Tag()]
	if !ok {
		return "Invalid value"
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, e.Param())
	}
	return msg
}
