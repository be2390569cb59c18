package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/questbase/api/internal/middleware"
	"github.com/questbase/api/internal/response"
	"github.com/questbase/api/internal/user"
	"github.com/questbase/api/internal/validation"
)

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc          *Service
	secureCookie bool
}

// NewHandler creates a new auth Handler. secureCookie marks the session
// cookie Secure and should be set in production.
func NewHandler(svc *Service, secureCookie bool) *Handler {
	return &Handler{svc: svc, secureCookie: secureCookie}
}

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email,max=254" example:"ada@example.com"`
	Password string `json:"password" validate:"required,min=8,max=72"  example:"correct horse"`
	Name     string `json:"name"     validate:"required,max=120"       example:"Ada Lovelace"`
	Role     string `json:"role"     validate:"required,oneof=learner mentor" example:"learner"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email" example:"ada@example.com"`
	Password string `json:"password" validate:"required"       example:"correct horse"`
}

// Register godoc
//
//	@Summary		Register
//	@Description	Creates a learner or mentor account and opens a session (sets the session cookie).
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		registerRequest	true	"Account details"
//	@Success		201		{object}	response.Envelope{data=user.User}
//	@Failure		400		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := validation.Decode(r, &req); err != nil {
		validation.Respond(w, err)
		return
	}

	u, sess, err := h.svc.Register(r.Context(), req.Email, req.Password, req.Name, req.Role)
	if errors.Is(err, ErrPasswordTooLong) {
		response.Invalid(w, map[string]string{"password": "must be at most 72 bytes"})
		return
	}
	if errors.Is(err, user.ErrAlreadyExists) {
		response.Conflict(w, "email already registered")
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("register")
		response.InternalError(w)
		return
	}

	h.setCookie(w, sess.Token, sess.ExpiresAt)
	response.Created(w, u)
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Verifies email and password and opens a session (sets the session cookie).
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest	true	"Credentials"
//	@Success		200		{object}	response.Envelope{data=user.User}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := validation.Decode(r, &req); err != nil {
		validation.Respond(w, err)
		return
	}

	u, sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		response.Unauthorized(w, "invalid email or password")
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("login")
		response.InternalError(w)
		return
	}

	h.setCookie(w, sess.Token, sess.ExpiresAt)
	response.OK(w, u)
}

// Logout godoc
//
//	@Summary		Log out
//	@Description	Clears the session cookie.
//	@Tags			auth
//	@Success		204
//	@Router			/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setCookie(w, "", time.Unix(0, 0))
	response.NoContent(w)
}

func (h *Handler) setCookie(w http.ResponseWriter, value string, expires time.Time) {
	c := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}
