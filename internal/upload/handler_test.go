package upload

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questbase/api/internal/metrics"
	"github.com/questbase/api/internal/middleware"
	"github.com/questbase/api/internal/storage"
)

const (
	adaID   = "6f1c2a0e-8d4b-4c8e-9a57-0d6c1a2b3c4d"
	graceID = "0b8e4b1e-2f55-4a43-8d3e-5c1f0a9e7d21"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string]storage.Object
	err     error
}

func newFakeStore(keys ...string) *fakeStore {
	s := &fakeStore{objects: map[string]storage.Object{}}
	for _, k := range keys {
		s.objects[k] = storage.Object{Key: k, Size: 1}
	}
	return s
}

func (s *fakeStore) List(_ context.Context, prefix string) ([]storage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := []storage.Object{}
	for k, o := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.objects, key)
	return nil
}

type fakeUsers map[string]bool

func (f fakeUsers) Exists(_ context.Context, id string) (bool, error) { return f[id], nil }

type fakeQuests map[int64]bool

func (f fakeQuests) QuestExists(_ context.Context, id int64) (bool, error) { return f[id], nil }

type fixture struct {
	router  chi.Router
	store   *fakeStore
	metrics *metrics.Metrics
}

func newFixture(cfg Config, store *fakeStore) *fixture {
	m := metrics.New()
	issuer := NewIssuer(cfg).WithClock(func() time.Time { return fixedNow })

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := r.Header.Get("X-Test-User"); id != "" {
				r = r.WithContext(middleware.WithUser(r.Context(), id, "learner"))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Route("/users/{id}/uploads", NewHandler(issuer, store, AvatarOwners(fakeUsers{adaID: true, graceID: true}), m).Routes)
	r.Route("/quests/{id}/uploads", NewHandler(issuer, store, QuestOwners(fakeQuests{1: true}), m).Routes)

	return &fixture{router: r, store: store, metrics: m}
}

func (f *fixture) do(method, target, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	f.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestGrantQuestAsset(t *testing.T) {
	f := newFixture(testConfig(), newFakeStore())

	rec := f.do(http.MethodGet, "/quests/1/uploads/science.png?mime_type=image/png", adaID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		FileName   string `json:"file_name"`
		S3URL      string `json:"s3_url"`
		CDNURL     string `json:"cdn_url"`
		UploadArgs struct {
			Method string            `json:"method"`
			URL    string            `json:"url"`
			Data   map[string]string `json:"data"`
		} `json:"upload_args"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "quests/1/science.png", body.FileName)
	assert.True(t, strings.HasSuffix(body.S3URL, "/quests/1/science.png"))
	assert.Equal(t, "https://cdn.questbase.io/quests/1/science.png", body.CDNURL)
	assert.Equal(t, "POST", body.UploadArgs.Method)
	assert.Equal(t, "quests/1/science.png", body.UploadArgs.Data["key"])
	assert.Equal(t, "image/png", body.UploadArgs.Data["Content-Type"])

	assert.Contains(t, f.scrape(t), `questbase_upload_grants_total{resource="quests"} 1`)
}

func TestGrantEscapedFileName(t *testing.T) {
	f := newFixture(testConfig(), newFakeStore())

	for _, target := range []string{
		"/users/" + adaID + "/uploads/are%20pandas%20bears.png?mime_type=image/png",
		"/users/" + adaID + "/uploads/are%20pandas%20bears%2Epng?mime_type=image/png",
	} {
		rec := f.do(http.MethodGet, target, adaID)
		require.Equal(t, http.StatusOK, rec.Code, target)

		var g Grant
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
		assert.Equal(t, "avatars/"+adaID+"/are pandas bears.png", g.UploadArgs.Data["key"])
		assert.True(t, strings.HasSuffix(g.CDNURL, "/are%20pandas%20bears.png"), g.CDNURL)
	}
}

func TestAvatarOwnerUsesCanonicalID(t *testing.T) {
	store := newFakeStore("avatars/" + adaID + "/me.png")
	f := newFixture(testConfig(), store)

	for _, spelling := range []string{strings.ToUpper(adaID), strings.ReplaceAll(adaID, "-", ""), "{" + adaID + "}"} {
		rec := f.do(http.MethodGet, "/users/"+spelling+"/uploads", graceID)
		require.Equal(t, http.StatusOK, rec.Code, spelling)
		assert.JSONEq(t, `{"assets":[{"file_name":"me.png","url":"https://cdn.questbase.io/avatars/`+adaID+`/me.png"}]}`, rec.Body.String(), spelling)

		rec = f.do(http.MethodGet, "/users/"+spelling+"/uploads/new.png?mime_type=image/png", adaID)
		require.Equal(t, http.StatusOK, rec.Code, spelling)
		var g Grant
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
		assert.Equal(t, "avatars/"+adaID+"/new.png", g.FileKey, spelling)
	}
}

func TestGrantRejections(t *testing.T) {
	cases := []struct {
		name   string
		target string
		user   string
		status int
	}{
		{"missing mime type", "/quests/1/uploads/a.png", adaID, http.StatusBadRequest},
		{"malformed mime type", "/quests/1/uploads/a.png?mime_type=%2F%2F", adaID, http.StatusBadRequest},
		{"relative file name", "/quests/1/uploads/..?mime_type=image/png", adaID, http.StatusBadRequest},
		{"unknown quest", "/quests/2/uploads/a.png?mime_type=image/png", adaID, http.StatusNotFound},
		{"non-numeric quest", "/quests/abc/uploads/a.png?mime_type=image/png", adaID, http.StatusNotFound},
		{"unknown user", "/users/00000000-0000-0000-0000-000000000000/uploads/a.png?mime_type=image/png", adaID, http.StatusNotFound},
		{"someone else's avatar", "/users/" + graceID + "/uploads/a.png?mime_type=image/png", adaID, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(testConfig(), newFakeStore())
			rec := f.do(http.MethodGet, tc.target, tc.user)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestGrantMisconfigured(t *testing.T) {
	cfg := testConfig()
	cfg.SecretKey = ""
	f := newFixture(cfg, newFakeStore())

	rec := f.do(http.MethodGet, "/quests/1/uploads/a.png?mime_type=image/png", adaID)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.Contains(t, f.scrape(t), `questbase_upload_grant_failures_total{reason="misconfigured"} 1`)
}

func TestListUploads(t *testing.T) {
	store := newFakeStore(
		"quests/1/science.png",
		"quests/1/are pandas bears.png",
		"quests/10/other.png",
		"avatars/"+adaID+"/me.png",
	)
	f := newFixture(testConfig(), store)

	rec := f.do(http.MethodGet, "/quests/1/uploads", graceID)
	require.Equal(t, http.StatusOK, rec.Code)

	var list AssetList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.ElementsMatch(t, []Asset{
		{FileName: "science.png", URL: "https://cdn.questbase.io/quests/1/science.png"},
		{FileName: "are pandas bears.png", URL: "https://cdn.questbase.io/quests/1/are%20pandas%20bears.png"},
	}, list.Assets)

	rec = f.do(http.MethodGet, "/users/"+graceID+"/uploads", adaID)
	require.Equal(t, http.StatusOK, rec.Code, "listing is not restricted to the owner")
	assert.JSONEq(t, `{"assets":[]}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/quests/3/uploads", adaID).Code)
}

func TestListUploadsStorageFailure(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("bucket unreachable")
	f := newFixture(testConfig(), store)

	assert.Equal(t, http.StatusInternalServerError, f.do(http.MethodGet, "/quests/1/uploads", adaID).Code)
}

func TestDeleteUpload(t *testing.T) {
	store := newFakeStore("avatars/"+adaID+"/me.png", "avatars/"+graceID+"/me.png")
	f := newFixture(testConfig(), store)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodDelete, "/users/"+graceID+"/uploads/me.png", adaID).Code)
	assert.Contains(t, store.objects, "avatars/"+graceID+"/me.png")

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/users/"+adaID+"/uploads/me.png", adaID).Code)
	assert.NotContains(t, store.objects, "avatars/"+adaID+"/me.png")

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodDelete, "/quests/1/uploads/..", adaID).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/quests/9/uploads/a.png", adaID).Code)
}
