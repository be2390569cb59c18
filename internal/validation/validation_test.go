package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"  validate:"required,max=10"`
	Role  string `json:"role"  validate:"oneof=learner mentor"`
}

func request(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeValid(t *testing.T) {
	var s signup
	err := Decode(request(`{"email":"ada@example.com","name":"Ada","role":"mentor"}`), &s)
	require.NoError(t, err)
	assert.Equal(t, "Ada", s.Name)
}

func TestDecodeFieldErrors(t *testing.T) {
	var s signup
	err := Decode(request(`{"email":"nope","name":"Augusta Ada King","role":"admin"}`), &s)

	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, FieldErrors{
		"email": "must be a valid email address",
		"name":  "must be at most 10 characters",
		"role":  "must be one of: learner, mentor",
	}, fe)
}

func TestDecodeMalformed(t *testing.T) {
	var s signup
	for _, body := range []string{`{"email":`, `{"unknown":1}`} {
		err := Decode(request(body), &s)
		require.Error(t, err)
		var fe FieldErrors
		assert.False(t, errors.As(err, &fe), body)
	}
}

func TestRespond(t *testing.T) {
	rec := httptest.NewRecorder()
	Respond(rec, FieldErrors{"email": "is required"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fields":{"email":"is required"}`)

	rec = httptest.NewRecorder()
	Respond(rec, errors.New("invalid request body: EOF"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"invalid request body"`)
}
