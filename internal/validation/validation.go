// Package validation decodes and validates JSON request bodies.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/questbase/api/internal/response"
)

// maxBodyBytes caps request bodies; none of the API's payloads come close.
const maxBodyBytes = 1 << 20

// FieldErrors maps a JSON field name to a human-readable rule violation.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Decode reads the JSON body of r into dst and validates its struct tags.
// A malformed body yields an error mentioning the decode problem; rule
// violations yield FieldErrors.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return Struct(dst)
}

// Struct validates dst and converts violations into FieldErrors.
func Struct(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := FieldErrors{}
	for _, fe := range ve {
		out[fe.Field()] = messageForTag(fe.Tag(), fe.Param())
	}
	return out
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param + " characters"
	case "max":
		return "must be at most " + param + " characters"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(param, " ", ", ")
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}

// Respond writes the 400 response for an error returned by Decode.
func Respond(w http.ResponseWriter, err error) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		response.Invalid(w, fe)
		return
	}
	response.BadRequest(w, "invalid request body")
}
