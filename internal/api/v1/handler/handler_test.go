package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"skillenergy/internal/api/v1/response"
	"skillenergy/internal/middleware"
	"skillenergy/internal/upload"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUserHeader  = "X-Test-User"
	testAdminHeader = "X-Test-Admin"
)

// testMiddlewares authenticate from test headers instead of tokens.
func testMiddlewares() Middlewares {
	authMw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(testUserHeader)
			if id == "" {
				response.Fail(w, http.StatusUnauthorized, "Token is not valid")
				return
			}
			p := middleware.Principal{UserID: id, IsAdmin: r.Header.Get(testAdminHeader) == "true"}
			next.ServeHTTP(w, r.WithContext(middleware.WithPrincipal(r.Context(), p)))
		})
	}
	return Middlewares{
		Auth:     authMw,
		Admin:    func(next http.Handler) http.Handler { return authMw(middleware.RequireAdmin(next)) },
		Throttle: func(next http.Handler) http.Handler { return next },
	}
}

type registrar interface {
	RegisterRoutes(mux *http.ServeMux, mw Middlewares)
}

func newTestMux(handlers ...registrar) *http.ServeMux {
	mux := http.NewServeMux()
	for _, h := range handlers {
		h.RegisterRoutes(mux, testMiddlewares())
	}
	return mux
}

func testUploads() *upload.Resolver {
	return upload.NewResolver(1 << 20)
}

type formFile struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, mux http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func asUser(req *http.Request, id string) *http.Request {
	req.Header.Set(testUserHeader, id)
	return req
}

func asAdmin(req *http.Request) *http.Request {
	req.Header.Set(testUserHeader, "admin-1")
	req.Header.Set(testAdminHeader, "true")
	return req
}

func newID() string {
	return uuid.NewString()
}

func TestPathIDRejectsMalformedIDs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /things/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			response.Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		response.OK(w, id, nil)
	})
	id := newID()
	_, env := serve(t, mux, httptest.NewRequest(http.MethodGet, "/things/"+id, nil))
	assert.Equal(t, id, env.Message)

	rec, env := serve(t, mux, httptest.NewRequest(http.MethodGet, "/things/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid id", env.Message)
}

func TestValidationMessagesUseJSONNames(t *testing.T) {
	v := NewValidator()
	type req struct {
		Email string `json:"email" validate:"required,email"`
		OTP   string `json:"otp" validate:"required,len=4"`
	}
	assert.EqualError(t, validationError(v.Struct(req{OTP: "1234"})), "email is required")
	assert.EqualError(t, validationError(v.Struct(req{Email: "nope", OTP: "1234"})), "email must be a valid email")
	assert.EqualError(t, validationError(v.Struct(req{Email: "a@b.co", OTP: "12"})), "otp must be 4 characters long")
}
