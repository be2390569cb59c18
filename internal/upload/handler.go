package upload

import (
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/questbase/api/internal/metrics"
	"github.com/questbase/api/internal/middleware"
	"github.com/questbase/api/internal/response"
	"github.com/questbase/api/internal/storage"
)

// Handler serves the upload endpoints of one resource kind.
type Handler struct {
	issuer  *Issuer
	store   storage.Storage
	owners  OwnerResolver
	metrics *metrics.Metrics
}

// NewHandler creates an upload Handler for the resources resolved by owners.
func NewHandler(issuer *Issuer, store storage.Storage, owners OwnerResolver, m *metrics.Metrics) *Handler {
	return &Handler{issuer: issuer, store: store, owners: owners, metrics: m}
}

// Asset is one stored upload.
type Asset struct {
	FileName string `json:"file_name" example:"science.png"`
	URL      string `json:"url"       example:"https://cdn.questbase.io/quests/1/science.png"`
}

// AssetList is the body of the listing endpoint.
type AssetList struct {
	Assets []Asset `json:"assets"`
}

// Routes mounts the upload endpoints under the current router, which must
// provide an {id} URL parameter.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{fileName}", h.Grant)
	r.Delete("/{fileName}", h.Delete)
}

// Grant godoc
//
//	@Summary		Authorize a direct upload
//	@Description	Returns signed form fields for a POST straight to the bucket, plus the storage and CDN URLs of the future object. Avatars under /users/{id} are writable only by that user; quest assets by any session.
//	@Tags			uploads
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id			path		string	true	"User ID (uuid) or quest ID"
//	@Param			fileName	path		string	true	"File name, used verbatim as the key suffix"
//	@Param			mime_type	query		string	true	"Declared content type"
//	@Success		200			{object}	Grant
//	@Failure		400			{object}	response.Envelope
//	@Failure		401			{object}	response.Envelope
//	@Failure		403			{object}	response.Envelope
//	@Failure		404			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/users/{id}/uploads/{fileName} [get]
//	@Router			/quests/{id}/uploads/{fileName} [get]
func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.resolve(w, r, true)
	if !ok {
		return
	}

	mimeType := r.URL.Query().Get("mime_type")
	if mimeType == "" {
		h.metrics.GrantFailed("invalid_input")
		response.BadRequest(w, "mime_type is required")
		return
	}
	if _, _, err := mime.ParseMediaType(mimeType); err != nil {
		h.metrics.GrantFailed("invalid_input")
		response.BadRequest(w, "mime_type is not a valid media type")
		return
	}

	grant, err := h.issuer.Issue(owner.Namespace, fileNameParam(r), mimeType)
	switch {
	case errors.Is(err, ErrInvalidInput):
		h.metrics.GrantFailed("invalid_input")
		response.BadRequest(w, err.Error())
		return
	case errors.Is(err, ErrMisconfiguredCredentials):
		h.metrics.GrantFailed("misconfigured")
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("upload issuer misconfigured")
		response.InternalError(w)
		return
	case err != nil:
		h.metrics.GrantFailed("internal")
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("issue upload grant")
		response.InternalError(w)
		return
	}

	h.metrics.GrantIssued(h.owners.Resource())
	zerolog.Ctx(r.Context()).Debug().Str("key", grant.FileKey).Msg("upload grant issued")
	response.JSON(w, http.StatusOK, grant)
}

// List godoc
//
//	@Summary	List uploads
//	@Tags		uploads
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id			path		string	true	"User ID (uuid) or quest ID"
//	@Success	200			{object}	AssetList
//	@Failure	401			{object}	response.Envelope
//	@Failure	404			{object}	response.Envelope
//	@Failure	500			{object}	response.Envelope
//	@Router		/users/{id}/uploads [get]
//	@Router		/quests/{id}/uploads [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.resolve(w, r, false)
	if !ok {
		return
	}

	prefix := owner.Namespace + "/"
	objects, err := h.store.List(r.Context(), prefix)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("prefix", prefix).Msg("list uploads")
		response.InternalError(w)
		return
	}

	list := AssetList{Assets: make([]Asset, 0, len(objects))}
	for _, obj := range objects {
		list.Assets = append(list.Assets, Asset{
			FileName: strings.TrimPrefix(obj.Key, prefix),
			URL:      h.issuer.CDNURL(obj.Key),
		})
	}
	response.JSON(w, http.StatusOK, list)
}

// Delete godoc
//
//	@Summary	Delete an upload
//	@Tags		uploads
//	@Security	SessionCookie
//	@Param		id			path	string	true	"User ID (uuid) or quest ID"
//	@Param		fileName	path	string	true	"File name"
//	@Success	204
//	@Failure	400	{object}	response.Envelope
//	@Failure	401	{object}	response.Envelope
//	@Failure	403	{object}	response.Envelope
//	@Failure	404	{object}	response.Envelope
//	@Failure	500	{object}	response.Envelope
//	@Router		/users/{id}/uploads/{fileName} [delete]
//	@Router		/quests/{id}/uploads/{fileName} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.resolve(w, r, true)
	if !ok {
		return
	}

	key, err := Key(owner.Namespace, fileNameParam(r))
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.store.Delete(r.Context(), key); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("key", key).Msg("delete upload")
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

// resolve looks up the owner named by the {id} parameter and, for writes,
// checks the session user may modify its uploads. It writes the error
// response itself and reports whether the caller should continue.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, write bool) (*Owner, bool) {
	owner, err := h.owners.Resolve(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrOwnerNotFound) {
		response.NotFound(w, strings.TrimSuffix(h.owners.Resource(), "s")+" not found")
		return nil, false
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("resolve upload owner")
		response.InternalError(w)
		return nil, false
	}

	if write && owner.WriterID != "" && owner.WriterID != middleware.UserID(r.Context()) {
		response.Forbidden(w, "not allowed to modify these uploads")
		return nil, false
	}
	return owner, true
}

// fileNameParam returns the decoded {fileName} parameter. chi matches on the
// raw path when the request carries one, leaving the parameter escaped.
func fileNameParam(r *http.Request) string {
	name := chi.URLParam(r, "fileName")
	if r.URL.RawPath == "" {
		return name
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}
