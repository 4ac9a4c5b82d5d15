package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	val "github.com/go-playground/validator/v10"

	"github.com/Makepad-fr/dreams/internal/failure"
)

var validate = val.New(val.WithRequiredStructEnabled())

var messages = map[string]string{
	"required": "{field} is required",
	"max":      "{field} must be at most {param} characters",
}

func init() {
	// Report json names rather than Go field names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// decodeAndValidate reads a JSON body into data and runs its validate tags.
func decodeAndValidate[T any](r io.Reader, data *T) error {
	if err := json.NewDecoder(r).Decode(data); err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err))
	}

	if err := validate.Struct(data); err != nil {
		return failure.BadRequestFromString(message(err))
	}

	return nil
}

func message(err error) string {
	var valErrors val.ValidationErrors

	if errors.As(err, &valErrors) {
		for _, valErr := range valErrors {
			if tmpl := messages[valErr.Tag()]; tmpl != "" {
				msg := strings.ReplaceAll(tmpl, "{field}", valErr.Field())
				return strings.ReplaceAll(msg, "{param}", valErr.Param())
			}
		}

		return valErrors.Error()
	}

	return err.Error()
}
