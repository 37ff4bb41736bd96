package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"skillenergy/internal/apperr"
	"skillenergy/internal/middleware"
	"skillenergy/internal/service"
	"skillenergy/internal/upload"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Middlewares are the guards handlers wrap their routes in.
type Middlewares struct {
	Auth     func(http.Handler) http.Handler
	Admin    func(http.Handler) http.Handler // Auth followed by RequireAdmin
	Throttle func(http.Handler) http.Handler
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
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

// jsonLimit caps JSON request bodies. Uploads have their own limit.
const jsonLimit = 1 << 20

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, jsonLimit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required")
		}
		return apperr.Validation("Invalid JSON payload")
	}
	if err := v.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return apperr.Validation("Validation failed")
	}
	fe := errs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperr.Validationf("%s is required", field)
	case "email":
		return apperr.Validationf("%s must be a valid email", field)
	case "uuid":
		return apperr.Validationf("%s must be a valid id", field)
	case "len":
		return apperr.Validationf("%s must be %s characters long", field, fe.Param())
	case "max":
		return apperr.Validationf("%s must be at most %s characters long", field, fe.Param())
	case "numeric":
		return apperr.Validationf("%s must contain only digits", field)
	default:
		return apperr.Validationf("%s is invalid", field)
	}
}

// pathID returns the {name} path segment, which must be a UUID.
func pathID(r *http.Request, name string) (string, error) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperr.Validationf("Invalid %s", name)
	}
	return id.String(), nil
}

// actorFrom returns the authenticated caller as a service Actor.
func actorFrom(r *http.Request) (service.Actor, error) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return service.Actor{}, apperr.Auth("Authentication required")
	}
	return service.Actor{UserID: p.UserID, IsAdmin: p.IsAdmin}, nil
}

// formValue returns a pointer to the trimmed form value, or nil when the field was not sent.
func formValue(r *http.Request, key string) *string {
	if _, ok := r.Form[key]; !ok {
		return nil
	}
	v := strings.TrimSpace(r.Form.Get(key))
	return &v
}

func formString(r *http.Request, key string) string {
	return strings.TrimSpace(r.Form.Get(key))
}

// parseUpload parses a form body limited to maxBytes plus room for text fields,
// then resolves the single file sent under one of fields.
func parseUpload(w http.ResponseWriter, r *http.Request, uploads *upload.Resolver, fields ...string) (*upload.File, error) {
	if uploads.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, uploads.MaxBytes+jsonLimit)
	}
	if err := uploads.ParseForm(r); err != nil {
		return nil, err
	}
	f, err := uploads.Resolve(r, fields...)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}


// formIDs collects UUIDs sent under key as repeated fields, a JSON array or a comma separated list.
// It returns nil when the field was not sent.
func formIDs(r *http.Request, key string) (*[]string, error) {
	values, ok := r.Form[key]
	if !ok {
		return nil, nil
	}
	ids := []string{}
	for _, v := range values {
		for _, raw := range service.ParseLearnList(v) {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, apperr.Validationf("Invalid %s", key)
			}
			ids = append(ids, id.String())
		}
	}
	return &ids, nil
}

// queryID returns the optional UUID query parameter key.
func queryID(r *http.Request, key string) (string, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return "", nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperr.Validationf("Invalid %s", key)
	}
	return id.String(), nil
}

// checkFormIDs rejects form fields that are present but not UUIDs.
func checkFormIDs(r *http.Request, keys ...string) error {
	for _, key := range keys {
		if v := formString(r, key); v != "" {
			if _, err := uuid.Parse(v); err != nil {
				return apperr.Validationf("Invalid %s", key)
			}
		}
	}
	return nil
}
