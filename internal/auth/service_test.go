package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/questbase/api/internal/user"
)

const testSecret = "test-secret"

type fakeUsers struct {
	byEmail map[string]*user.User
}

func (f *fakeUsers) Create(_ context.Context, email, passwordHash, name, role string) (*user.User, error) {
	email = user.NormalizeEmail(email)
	if _, ok := f.byEmail[email]; ok {
		return nil, user.ErrAlreadyExists
	}
	u := &user.User{ID: "6f1c2a0e-8d4b-4c8e-9a57-0d6c1a2b3c4d", Email: email, PasswordHash: passwordHash, Name: name, Role: role}
	f.byEmail[email] = u
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := f.byEmail[user.NormalizeEmail(email)]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func newTestService() *Service {
	svc := NewService(&fakeUsers{byEmail: map[string]*user.User{}}, testSecret, time.Hour)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestRegisterThenLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, sess, err := svc.Register(ctx, "ada@example.com", "correct horse", "Ada", user.RoleMentor)
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.NotEmpty(t, sess.Token)

	_, _, err = svc.Register(ctx, "ADA@example.com", "another one", "Ada", user.RoleLearner)
	assert.ErrorIs(t, err, user.ErrAlreadyExists)

	got, sess, err := svc.Login(ctx, "Ada@Example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(sess.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims["sub"])
	assert.Equal(t, user.RoleMentor, claims["role"])
}

func TestLoginRejects(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	_, _, err := svc.Register(ctx, "ada@example.com", "correct horse", "Ada", user.RoleLearner)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ada@example.com", "wrong horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsPasswordOverBcryptLimit(t *testing.T) {
	svc := newTestService()
	password := strings.Repeat("é", 40)
	require.Less(t, utf8.RuneCountInString(password), 72)
	require.Greater(t, len(password), 72)

	_, _, err := svc.Register(context.Background(), "ada@example.com", password, "Ada", user.RoleLearner)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, _, err = svc.Register(context.Background(), "ada@example.com", strings.Repeat("é", 36), "Ada", user.RoleLearner)
	assert.NoError(t, err, "72 bytes is accepted")
}

func TestHandlerRegisterPasswordTooLong(t *testing.T) {
	h := NewHandler(newTestService(), false)

	rec := httptest.NewRecorder()
	body := `{"email":"ada@example.com","password":"` + strings.Repeat("é", 40) + `","name":"Ada","role":"learner"}`
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"password":"must be at most 72 bytes"`)
}

func TestSessionExpiry(t *testing.T) {
	svc := newTestService()
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	_, sess, err := svc.Register(context.Background(), "ada@example.com", "correct horse", "Ada", user.RoleLearner)
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(time.Hour), sess.ExpiresAt)
}

func TestHandlerRegisterSetsCookie(t *testing.T) {
	h := NewHandler(newTestService(), true)

	rec := httptest.NewRecorder()
	body := `{"email":"ada@example.com","password":"correct horse","name":"Ada","role":"learner"}`
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "questbase_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.NotEmpty(t, cookies[0].Value)

	rec = httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerRegisterValidation(t *testing.T) {
	h := NewHandler(newTestService(), false)

	rec := httptest.NewRecorder()
	body := `{"email":"ada@example.com","password":"short","name":"Ada","role":"admin"}`
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"password"`)
	assert.Contains(t, rec.Body.String(), `"role"`)
}

func TestHandlerLoginAndLogout(t *testing.T) {
	svc := newTestService()
	_, _, err := svc.Register(context.Background(), "ada@example.com", "correct horse", "Ada", user.RoleLearner)
	require.NoError(t, err)
	h := NewHandler(svc, false)

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ada@example.com","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ada@example.com","password":"correct horse"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)

	rec = httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}
