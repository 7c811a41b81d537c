package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/postpilot/postpilot-server/internal/api/http/context"
	"github.com/postpilot/postpilot-server/internal/model"
	"github.com/postpilot/postpilot-server/internal/testutil"
)

// MockMediaService mocks the MediaService interface
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

func mediaRouter(service MediaService, contextManager model.ContextManager) http.Handler {
	h := NewMedia(service, contextManager, testutil.MakeNoopLogger())
	mux := chi.NewRouter()
	mux.Post("/api/media", h.Upload)
	mux.Get("/api/media/{hash}", h.Download)
	return mux
}

func authedRequest(contextManager model.ContextManager, method, path string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, path, body)
	return r.WithContext(contextManager.SetPubkeyToContext(r.Context(), "a1b2c3"))
}

func TestMedia_Upload(t *testing.T) {
	contextManager := httpctx.NewManager()

	t.Run("stores blob", func(t *testing.T) {
		service := &MockMediaService{}
		service.On("Upload", mock.Anything, []byte("blob"), "image/png").Return(model.MediaObject{
			Hash: "abc",
			Size: 4,
			URL:  "http://localhost:8080/api/media/abc",
		}, nil)

		r := authedRequest(contextManager, "POST", "/api/media", strings.NewReader("blob"))
		r.Header.Set("Content-Type", "image/png")

		w := httptest.NewRecorder()
		mediaRouter(service, contextManager).ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "abc", body["item"]["hash"])
		service.AssertExpectations(t)
	})

	t.Run("rejects empty body", func(t *testing.T) {
		r := authedRequest(contextManager, "POST", "/api/media", nil)

		w := httptest.NewRecorder()
		mediaRouter(&MockMediaService{}, contextManager).ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMedia_Download(t *testing.T) {
	contextManager := httpctx.NewManager()
	hash := strings.Repeat("ab", 32)

	t.Run("streams blob", func(t *testing.T) {
		service := &MockMediaService{}
		service.On("Download", mock.Anything, hash).Return(io.NopCloser(strings.NewReader("blob")), nil)

		r := authedRequest(contextManager, "GET", "/api/media/"+hash, nil)

		w := httptest.NewRecorder()
		mediaRouter(service, contextManager).ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "blob", w.Body.String())
	})

	t.Run("missing blob", func(t *testing.T) {
		service := &MockMediaService{}
		service.On("Download", mock.Anything, hash).Return(nil, model.ErrNotFound)

		r := authedRequest(contextManager, "GET", "/api/media/"+hash, nil)

		w := httptest.NewRecorder()
		mediaRouter(service, contextManager).ServeHTTP(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed hash never reaches storage", func(t *testing.T) {
		service := &MockMediaService{}

		for _, bad := range []string{"short", strings.Repeat("zz", 32)} {
			r := authedRequest(contextManager, "GET", "/api/media/"+bad, nil)

			w := httptest.NewRecorder()
			mediaRouter(service, contextManager).ServeHTTP(w, r)

			assert.Equal(t, http.StatusNotFound, w.Code)
		}
		service.AssertNotCalled(t, "Download")
	})
}
