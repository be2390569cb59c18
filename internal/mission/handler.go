package mission

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/questbase/api/internal/middleware"
	"github.com/questbase/api/internal/response"
	"github.com/questbase/api/internal/validation"
)

// Handler holds HTTP handlers for mission, quest and mentor endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new mission Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListMissions godoc
//
//	@Summary	List missions
//	@Tags		missions
//	@Produce	json
//	@Security	SessionCookie
//	@Success	200	{object}	response.Envelope{data=[]Mission}
//	@Failure	401	{object}	response.Envelope
//	@Router		/missions [get]
func (h *Handler) ListMissions(w http.ResponseWriter, r *http.Request) {
	missions, err := h.svc.ListMissions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, missions)
}

// CreateMission godoc
//
//	@Summary		Create mission
//	@Description	Creates a mission owned by the session user.
//	@Tags			missions
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			request	body		Input	true	"Mission"
//	@Success		201		{object}	response.Envelope{data=Mission}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Router			/missions [post]
func (h *Handler) CreateMission(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := validation.Decode(r, &in); err != nil {
		validation.Respond(w, err)
		return
	}

	m, err := h.svc.CreateMission(r.Context(), middleware.UserID(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, m)
}

// GetMission godoc
//
//	@Summary	Get mission
//	@Tags		missions
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id	path		int	true	"Mission ID"
//	@Success	200	{object}	response.Envelope{data=Mission}
//	@Failure	404	{object}	response.Envelope
//	@Router		/missions/{id} [get]
func (h *Handler) GetMission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, ErrMissionNotFound.Error())
		return
	}
	m, err := h.svc.GetMission(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, m)
}

// UpdateMission godoc
//
//	@Summary	Update mission
//	@Tags		missions
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id		path		int		true	"Mission ID"
//	@Param		request	body		Patch	true	"Fields to change"
//	@Success	200		{object}	response.Envelope{data=Mission}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Router		/missions/{id} [put]
func (h *Handler) UpdateMission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, ErrMissionNotFound.Error())
		return
	}
	var p Patch
	if err := validation.Decode(r, &p); err != nil {
		validation.Respond(w, err)
		return
	}
	m, err := h.svc.UpdateMission(r.Context(), id, p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, m)
}

// DeleteMission godoc
//
//	@Summary	Delete mission
//	@Tags		missions
//	@Security	SessionCookie
//	@Param		id	path	int	true	"Mission ID"
//	@Success	204
//	@Failure	404	{object}	response.Envelope
//	@Router		/missions/{id} [delete]
func (h *Handler) DeleteMission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, ErrMissionNotFound.Error())
		return
	}
	if err := h.svc.DeleteMission(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	response.NoContent(w)
}

// ListQuests godoc
//
//	@Summary	List quests of a mission
//	@Tags		quests
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id	path		int	true	"Mission ID"
//	@Success	200	{object}	response.Envelope{data=[]Quest}
//	@Failure	404	{object}	response.Envelope
//	@Router		/missions/{id}/quests [get]
func (h *Handler) ListQuests(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, ErrMissionNotFound.Error())
		return
	}
	quests, err := h.svc.ListQuests(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, quests)
}

// CreateQuest godoc
//
//	@Summary	Add a quest to a mission
//	@Tags		quests
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id		path		int		true	"Mission ID"
//	@Param		request	body		Input	true	"Quest"
//	@Success	201		{object}	response.Envelope{data=Quest}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Router		/missions/{id}/quests [post]
func (h *Handler) CreateQuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, ErrMissionNotFound.Error())
		return
	}
	var in Input
	if err := validation.Decode(r, &in); err != nil {
		validation.Respond(w, err)
		return
	}
	q, err := h.svc.CreateQuest(r.Context(), id, middleware.UserID(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, q)
}

// GetQuest godoc
//
//	@Summary	Get quest
//	@Tags		quests
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id	path		int	true	"Quest ID"
//	@Success	200	{object}	response.Envelope{data=Quest}
//	@Failure	404	{object}	response.Envelope
//	@Router		/quests/{id} [get]
func (h *Handler) GetQuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, ErrQuestNotFound.Error())
		return
	}
	q, err := h.svc.GetQuest(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, q)
}

// UpdateQuest godoc
//
//	@Summary	Update quest
//	@Tags		quests
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id		path		int		true	"Quest ID"
//	@Param		request	body		Patch	true	"Fields to change"
//	@Success	200		{object}	response.Envelope{data=Quest}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Router		/quests/{id} [put]
func (h *Handler) UpdateQuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, ErrQuestNotFound.Error())
		return
	}
	var p Patch
	if err := validation.Decode(r, &p); err != nil {
		validation.Respond(w, err)
		return
	}
	q, err := h.svc.UpdateQuest(r.Context(), id, p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, q)
}

// DeleteQuest godoc
//
//	@Summary	Delete quest
//	@Tags		quests
//	@Security	SessionCookie
//	@Param		id	path	int	true	"Quest ID"
//	@Success	204
//	@Failure	404	{object}	response.Envelope
//	@Router		/quests/{id} [delete]
func (h *Handler) DeleteQuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, ErrQuestNotFound.Error())
		return
	}
	if err := h.svc.DeleteQuest(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	response.NoContent(w)
}

// ListMentors godoc
//
//	@Summary	List mentors of a mission
//	@Tags		missions
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id	path		int	true	"Mission ID"
//	@Success	200	{object}	response.Envelope{data=[]user.User}
//	@Failure	404	{object}	response.Envelope
//	@Router		/missions/{id}/mentors [get]
func (h *Handler) ListMentors(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, ErrMissionNotFound.Error())
		return
	}
	mentors, err := h.svc.ListMentors(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, mentors)
}

// AddMentor godoc
//
//	@Summary		Link a mentor to a mission
//	@Description	Idempotent: linking an existing mentor again succeeds.
//	@Tags			missions
//	@Security		SessionCookie
//	@Param			id		path	int		true	"Mission ID"
//	@Param			userID	path	string	true	"User ID (uuid)"
//	@Success		204
//	@Failure		404	{object}	response.Envelope
//	@Router			/missions/{id}/mentors/{userID} [put]
func (h *Handler) AddMentor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, ErrMissionNotFound.Error())
		return
	}
	if err := h.svc.AddMentor(r.Context(), id, chi.URLParam(r, "userID")); err != nil {
		h.fail(w, r, err)
		return
	}
	response.NoContent(w)
}

// RemoveMentor godoc
//
//	@Summary	Unlink a mentor from a mission
//	@Tags		missions
//	@Security	SessionCookie
//	@Param		id		path	int		true	"Mission ID"
//	@Param		userID	path	string	true	"User ID (uuid)"
//	@Success	204
//	@Failure	404	{object}	response.Envelope
//	@Router		/missions/{id}/mentors/{userID} [delete]
func (h *Handler) RemoveMentor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, ErrMissionNotFound.Error())
		return
	}
	if err := h.svc.RemoveMentor(r.Context(), id, chi.URLParam(r, "userID")); err != nil {
		h.fail(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrMissionNotFound), errors.Is(err, ErrQuestNotFound), errors.Is(err, ErrMentorNotFound):
		response.NotFound(w, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("mission request failed")
		response.InternalError(w)
	}
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
