package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/questbase/api/internal/middleware"
	"github.com/questbase/api/internal/response"
	"github.com/questbase/api/internal/validation"
)

// Handler holds HTTP handlers for user-related endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new user Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetMe godoc
//
//	@Summary		Get current user
//	@Description	Returns the profile of the currently authenticated user.
//	@Tags			users
//	@Produce		json
//	@Security		SessionCookie
//	@Success		200	{object}	response.Envelope{data=User}
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/users/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	h.writeUser(w, r, middleware.UserID(r.Context()))
}

// GetByID godoc
//
//	@Summary		Get user
//	@Description	Returns the public profile of a user.
//	@Tags			users
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id	path		string	true	"User ID (uuid)"
//	@Success		200	{object}	response.Envelope{data=User}
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/users/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	h.writeUser(w, r, chi.URLParam(r, "id"))
}

// UpdateMe godoc
//
//	@Summary		Update current user
//	@Description	Partially updates name, bio and avatar_url of the authenticated user.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			request	body		Profile	true	"Fields to change"
//	@Success		200		{object}	response.Envelope{data=User}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Router			/users/me [patch]
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var p Profile
	if err := validation.Decode(r, &p); err != nil {
		validation.Respond(w, err)
		return
	}

	u, err := h.svc.UpdateProfile(r.Context(), middleware.UserID(r.Context()), p)
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "user not found")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("update profile")
		response.InternalError(w)
		return
	}

	response.OK(w, u)
}

func (h *Handler) writeUser(w http.ResponseWriter, r *http.Request, id string) {
	u, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "user not found")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("user_id", id).Msg("get user")
		response.InternalError(w)
		return
	}

	response.OK(w, u)
}
