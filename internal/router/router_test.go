package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pnithesh/viralvision-backend/internal/auth"
	userentity "github.com/pnithesh/viralvision-backend/internal/user/entity"
	userrepo "github.com/pnithesh/viralvision-backend/internal/user/repo"
	"github.com/pnithesh/viralvision-backend/internal/video"
	videoentity "github.com/pnithesh/viralvision-backend/internal/video/entity"
	videorepo "github.com/pnithesh/viralvision-backend/internal/video/repo"
)

const testSecret = "router-test-secret-0123456789"

// memStore backs both the user and the video repository interfaces.
type memStore struct {
	mu     sync.Mutex
	users  map[string]userentity.User
	videos map[int64]videoentity.Video
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{users: map[string]userentity.User{}, videos: map[int64]videoentity.Video{}}
}

type memUsers struct{ *memStore }

func (m memUsers) Create(ctx context.Context, u *userentity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return userrepo.ErrDuplicateEmail
	}
	m.users[u.Email] = *u
	return nil
}

func (m memUsers) GetByEmail(ctx context.Context, email string) (*userentity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, userrepo.ErrNotFound
	}
	return &u, nil
}

type memVideos struct{ *memStore }

func (m memVideos) ListByOwner(ctx context.Context, ownerID string) ([]videoentity.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []videoentity.Video{}
	for _, v := range m.videos {
		if v.UserID == ownerID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m memVideos) GetForOwner(ctx context.Context, id int64, ownerID string) (*videoentity.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok || v.UserID != ownerID {
		return nil, videorepo.ErrNotFound
	}
	return &v, nil
}

func (m memVideos) Create(ctx context.Context, v *videoentity.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	v.ID = m.nextID
	m.videos[v.ID] = *v
	return nil
}

func (m memVideos) UpdateForOwner(ctx context.Context, v *videoentity.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.videos[v.ID]
	if !ok || cur.UserID != v.UserID {
		return videorepo.ErrNotFound
	}
	m.videos[v.ID] = *v
	return nil
}

func (m memVideos) DeleteForOwner(ctx context.Context, id int64, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok || v.UserID != ownerID {
		return videorepo.ErrNotFound
	}
	delete(m.videos, id)
	return nil
}

type testServer struct {
	handler http.Handler
	now     time.Time
}

type serverOption func(*Deps)

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	ts := &testServer{now: time.Now()}
	store := newMemStore()
	tokens := auth.NewTokenIssuer(testSecret, auth.DefaultTokenTTL).WithClock(func() time.Time { return ts.now })
	logger := zap.NewNop().Sugar()

	d := Deps{
		Logger:   logger,
		Auth:     auth.NewHandler(auth.NewService(memUsers{store}, auth.BcryptHasher{Cost: bcrypt.MinCost}, tokens), logger),
		Videos:   video.NewHandler(video.NewService(memVideos{store}), logger),
		Verifier: tokens,
	}
	for _, opt := range opts {
		opt(&d)
	}
	h, err := RegisterRoutes(d)
	require.NoError(t, err)
	ts.handler = h
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) register(t *testing.T, email string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", `{"email":"`+email+`","password":"p","businessName":"Acme"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp auth.SessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Token
}

func (ts *testServer) createVideo(t *testing.T, token string) videoentity.Video {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/videos/", token, `{"title":"Launch","videoPath":"s3://v/1.mp4","avatarUrl":"https://cdn/a.png"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var v videoentity.Video
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func videoPath(id int64) string { return "/api/videos/" + strconv.FormatInt(id, 10) }

func TestRoot(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"ViralVision Backend API is running!"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := newTestServer(t, func(d *Deps) {
		d.HealthCheck = func(ctx context.Context) error { return errors.New("db down") }
	})
	rec = down.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestRegisterDuplicate(t *testing.T) {
	ts := newTestServer(t)
	body := `{"email":"a@x.com","password":"p","businessName":"Acme"}`

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp auth.SessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "a@x.com", resp.User.Email)
	assert.Equal(t, "Acme", resp.User.BusinessName)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = ts.do(t, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"User already exists"}`, rec.Body.String())
}

func TestLoginInvalidCredentialsAreIndistinguishable(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "a@x.com")

	wrongPassword := ts.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"a@x.com","password":"nope"}`)
	unknownEmail := ts.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"b@x.com","password":"p"}`)

	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.JSONEq(t, `{"message":"Invalid email or password"}`, wrongPassword.Body.String())

	ok := ts.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"a@x.com","password":"p"}`)
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestRegisterThenCreateVideo(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "a@x.com")

	v := ts.createVideo(t, token)
	assert.Equal(t, "draft", v.Status)
	assert.Equal(t, "Virtual Influencer", v.AvatarName)
	assert.Equal(t, "Launch", v.Title)

	rec := ts.do(t, http.MethodGet, videoPath(v.ID), token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got videoentity.Video
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, v.ID, got.ID)
	assert.Equal(t, v.Title, got.Title)
	assert.Equal(t, v.VideoURI, got.VideoURI)
	assert.Equal(t, v.UserID, got.UserID)
}

func TestCrossUserIsolation(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice@x.com")
	bob := ts.register(t, "bob@x.com")
	v := ts.createVideo(t, alice)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		body := ""
		if method == http.MethodPut {
			body = `{"title":"mine now"}`
		}
		rec := ts.do(t, method, videoPath(v.ID), bob, body)
		assert.Equal(t, http.StatusNotFound, rec.Code, method)
		assert.JSONEq(t, `{"error":"Video not found"}`, rec.Body.String(), method)
	}

	rec := ts.do(t, http.MethodGet, "/api/videos/", bob, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = ts.do(t, http.MethodGet, videoPath(v.ID), alice, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Launch"`)
}

func TestDeleteTwice(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "a@x.com")
	v := ts.createVideo(t, token)

	rec := ts.do(t, http.MethodDelete, videoPath(v.ID), token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Video deleted successfully"}`, rec.Body.String())

	rec = ts.do(t, http.MethodDelete, videoPath(v.ID), token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTokenExpiry(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "a@x.com")

	rec := ts.do(t, http.MethodGet, "/api/videos/", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	ts.now = ts.now.Add(7*24*time.Hour + time.Minute)
	rec = ts.do(t, http.MethodGet, "/api/videos/", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Token is not valid"}`, rec.Body.String())
}

func TestVideosRequireToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/videos/", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"No token, authorization denied"}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/videos", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/videos/", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Token is not valid"}`, rec.Body.String())
}

func TestUnsupportedContentType(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`email=a@x.com`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Content-Type must be application/json"}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"a@x.com","password":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotFoundRoute(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Route not found"}`, rec.Body.String())
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	ts := newTestServer(t, func(d *Deps) {
		d.AuthLimiter = NewIPRateLimiter(1, 2)
	})
	body := `{"email":"a@x.com","password":"nope"}`

	for i := 0; i < 2; i++ {
		rec := ts.do(t, http.MethodPost, "/api/auth/login", "", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := ts.do(t, http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"message":"too many requests"}`, rec.Body.String())

	// other routes are not throttled
	rec = ts.do(t, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCommonHeaders(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/", "", "")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestInvalidCORSOrigin(t *testing.T) {
	_, err := RegisterRoutes(Deps{CORSOrigins: []string{"not a url"}})
	assert.Error(t, err)
}
