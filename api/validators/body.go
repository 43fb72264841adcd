package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "":
		return f.Name
	case "-":
		return ""
	}
	return name
}

// DecodeJSONBody decodes exactly one JSON object into dest, rejecting unknown
// fields, then runs the struct's validate tags.
func DecodeJSONBody(r *http.Request, dest any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return bodyError(errors.New("empty body"))
	}
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		return bodyError(err)
	}
	if dec.More() {
		return bodyError(errors.New("unexpected data after JSON object"))
	}
	if err := validate.Struct(dest); err != nil {
		return fieldErrors(err)
	}
	return nil
}

func bodyError(err error) *pkgerrors.Error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		err = fmt.Errorf("body exceeds %d bytes", tooLarge.Limit)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
		WithDetails(map[string]any{"error": err.Error()})
}

func fieldErrors(err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fe.Field()] = describe(fe)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}

func describe(fe validator.FieldError) string {
	p := fe.Param()
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min", "gte":
		return "must be at least " + p
	case "max", "lte":
		return "must be at most " + p
	case "gt":
		return "must be greater than " + p
	case "oneof":
		return "must be one of " + p
	case "email":
		return "must be a valid email"
	case "numeric":
		return "must contain only digits"
	default:
		return "is invalid"
	}
}
