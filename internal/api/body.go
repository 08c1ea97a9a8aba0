package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// DecodeJSONBody decodes and validates a request body into dest. On failure
// it writes the error response itself and returns false.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return false
	}
	if err := validate.Struct(dest); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			fields := map[string]string{}
			for _, fieldErr := range errs {
				fields[fieldErr.Field()] = validationMessage(fieldErr)
			}
			writeErrorEnvelope(w, http.StatusBadRequest, APIError{
				Code:    "VALIDATION_FAILED",
				Message: "validation failed",
				Fields:  fields,
			})
			return false
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "validation failed")
		return false
	}
	return true
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return "is invalid"
}
