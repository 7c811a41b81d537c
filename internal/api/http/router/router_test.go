package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/postpilot/postpilot-server/internal/api/http/context"
	"github.com/postpilot/postpilot-server/internal/httpauth"
	"github.com/postpilot/postpilot-server/internal/identity"
	"github.com/postpilot/postpilot-server/internal/model"
	"github.com/postpilot/postpilot-server/internal/testutil"
)

// MockPostService mocks the handler.PostService interface
type MockPostService struct {
	mock.Mock
}

func (m *MockPostService) CreatePost(ctx context.Context, params model.CreatePostParams) (model.Post, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *MockPostService) GetPosts(ctx context.Context, owner string, filter model.PostFilter) ([]model.Post, error) {
	args := m.Called(ctx, owner, filter)
	return args.Get(0).([]model.Post), args.Error(1)
}

func (m *MockPostService) GetPost(ctx context.Context, id uuid.UUID, owner string) (model.Post, error) {
	args := m.Called(ctx, id, owner)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *MockPostService) UpdatePostStatus(ctx context.Context, id uuid.UUID, owner string, params model.UpdatePostStatusParams) (model.Post, error) {
	args := m.Called(ctx, id, owner, params)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *MockPostService) DeletePost(ctx context.Context, id uuid.UUID, owner string) (model.Post, error) {
	args := m.Called(ctx, id, owner)
	return args.Get(0).(model.Post), args.Error(1)
}

// MockMediaService mocks the handler.MediaService interface
type MockMediaService struct {
	mock.Mock
}

func (m *MockMediaService) Upload(ctx context.Context, data []byte, contentType string) (model.MediaObject, error) {
	args := m.Called(ctx, data, contentType)
	return args.Get(0).(model.MediaObject), args.Error(1)
}

func (m *MockMediaService) Download(ctx context.Context, hash string) (io.ReadCloser, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

type testEnv struct {
	server *httptest.Server
	signer *identity.KeySigner
	pubkey string
	posts  *MockPostService
	media  *MockMediaService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	signer, err := identity.NewEphemeralKeySigner()
	require.NoError(t, err)
	pubkey, err := signer.GetPublicKey(context.Background())
	require.NoError(t, err)

	posts := &MockPostService{}
	media := &MockMediaService{}

	r := New(posts, media, httpauth.NewValidator(60), httpctx.NewManager(), testutil.MakeNoopLogger())
	server := httptest.NewServer(r.Register())
	t.Cleanup(server.Close)

	return &testEnv{
		server: server,
		signer: signer,
		pubkey: pubkey,
		posts:  posts,
		media:  media,
	}
}

// signedRequest builds an HTTP request carrying a valid auth header for it.
func (e *testEnv) signedRequest(t *testing.T, method, path string, body []byte) *http.Request {
	t.Helper()

	url := e.server.URL + path
	builder := httpauth.NewBuilder(e.signer)
	header, err := builder.Build(context.Background(), method, url, body)
	require.NoError(t, err)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	r, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	r.Header.Set("Authorization", header)
	return r
}

func doJSON(t *testing.T, r *http.Request) (int, map[string]any) {
	t.Helper()

	resp, err := http.DefaultClient.Do(r)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestRouter_RejectsAnonymousRequests(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/me", "/api/posts"} {
		r, err := http.NewRequest("GET", env.server.URL+path, nil)
		require.NoError(t, err)

		status, body := doJSON(t, r)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "missing or invalid auth scheme", body["error"])
	}
}

func TestRouter_Me(t *testing.T) {
	env := newTestEnv(t)

	r := env.signedRequest(t, "GET", "/api/me", nil)
	status, body := doJSON(t, r)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, env.pubkey, body["pubkey"])
}

func TestRouter_CreatePost_StampsOwner(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()

	env.posts.On("CreatePost", mock.Anything, mock.MatchedBy(func(params model.CreatePostParams) bool {
		return params.OwnerPubkey == env.pubkey && params.Status == model.PostStatusDraft
	})).Return(model.Post{ID: id, AccountPubkey: env.pubkey, AuthorPubkey: env.pubkey, Status: model.PostStatusDraft, RawEvent: "{}"}, nil)

	payload := []byte(`{"status":"draft","rawEvent":"{}"}`)
	r := env.signedRequest(t, "POST", "/api/posts", payload)

	status, body := doJSON(t, r)
	require.Equal(t, http.StatusOK, status)

	item := body["item"].(map[string]any)
	assert.Equal(t, id.String(), item["id"])
	assert.Equal(t, env.pubkey, item["accountPubkey"])
	env.posts.AssertExpectations(t)
}

func TestRouter_CreatePost_TamperedBody(t *testing.T) {
	env := newTestEnv(t)

	// header signs one body, request carries another
	url := env.server.URL + "/api/posts"
	builder := httpauth.NewBuilder(env.signer)
	header, err := builder.Build(context.Background(), "POST", url, []byte(`{"status":"draft","rawEvent":"{}"}`))
	require.NoError(t, err)

	r, err := http.NewRequest("POST", url, bytes.NewReader([]byte(`{"status":"published","rawEvent":"{}"}`)))
	require.NoError(t, err)
	r.Header.Set("Authorization", header)

	status, body := doJSON(t, r)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "payload hash mismatch", body["error"])
	env.posts.AssertNotCalled(t, "CreatePost")
}

func TestRouter_CreatePost_UnknownField(t *testing.T) {
	env := newTestEnv(t)

	payload := []byte(`{"status":"draft","rawEvent":"{}","admin":true}`)
	r := env.signedRequest(t, "POST", "/api/posts", payload)

	status, body := doJSON(t, r)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid JSON body", body["error"])
}

func TestRouter_GetPost_NotOwned(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()

	env.posts.On("GetPost", mock.Anything, id, env.pubkey).Return(model.Post{}, model.ErrNotFound)

	r := env.signedRequest(t, "GET", "/api/posts/"+id.String(), nil)
	status, body := doJSON(t, r)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "post not found", body["error"])
}

func TestRouter_DeletePost_NotOwned(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()

	env.posts.On("DeletePost", mock.Anything, id, env.pubkey).Return(model.Post{}, model.ErrNotFound)

	r := env.signedRequest(t, "DELETE", "/api/posts/"+id.String(), nil)
	status, body := doJSON(t, r)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "post not found", body["error"])
}

func TestRouter_UpdatePost_MissingStatus(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()

	r := env.signedRequest(t, "PUT", "/api/posts/"+id.String(), []byte(`{}`))
	status, body := doJSON(t, r)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "status is required", body["error"])
	env.posts.AssertNotCalled(t, "UpdatePostStatus")
}

func TestRouter_ListPosts_PassesFilter(t *testing.T) {
	env := newTestEnv(t)

	env.posts.On("GetPosts", mock.Anything, env.pubkey, model.PostFilter{
		Status: model.PostStatusScheduled,
		Limit:  10,
	}).Return([]model.Post{}, nil)

	r := env.signedRequest(t, "GET", "/api/posts?status=scheduled&limit=10", nil)
	status, body := doJSON(t, r)

	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["items"])
	env.posts.AssertExpectations(t)
}

func TestRouter_MediaUpload(t *testing.T) {
	env := newTestEnv(t)
	data := []byte("image bytes")

	env.media.On("Upload", mock.Anything, data, "image/png").Return(model.MediaObject{
		Hash: "abc",
		Size: int64(len(data)),
		URL:  env.server.URL + "/api/media/abc",
	}, nil)

	r := env.signedRequest(t, "POST", "/api/media", data)
	r.Header.Set("Content-Type", "image/png")

	status, body := doJSON(t, r)
	require.Equal(t, http.StatusOK, status)

	item := body["item"].(map[string]any)
	assert.Equal(t, "abc", item["hash"])
	env.media.AssertExpectations(t)
}
