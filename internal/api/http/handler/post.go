package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/postpilot/postpilot-server/internal/logger"
	"github.com/postpilot/postpilot-server/internal/model"
)

// PostService defines business operations for post management.
type PostService interface {
	CreatePost(ctx context.Context, params model.CreatePostParams) (model.Post, error)
	GetPosts(ctx context.Context, owner string, filter model.PostFilter) ([]model.Post, error)
	GetPost(ctx context.Context, id uuid.UUID, owner string) (model.Post, error)
	UpdatePostStatus(ctx context.Context, id uuid.UUID, owner string, params model.UpdatePostStatusParams) (model.Post, error)
	DeletePost(ctx context.Context, id uuid.UUID, owner string) (model.Post, error)
}

// Post handles HTTP endpoints for posts.
type Post struct {
	postService    PostService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewPost creates a new Post handler.
func NewPost(postService PostService, contextManager model.ContextManager, logger *logger.Logger) *Post {
	return &Post{
		postService:    postService,
		contextManager: contextManager,
		logger:         logger,
	}
}

type createPostRequest struct {
	Status      string     `json:"status"`
	RawEvent    string     `json:"rawEvent"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	Relays      []string   `json:"relays,omitempty"`
}

type updatePostRequest struct {
	Status             string     `json:"status"`
	PublishError       *string    `json:"publishError,omitempty"`
	PublishAttemptedAt *time.Time `json:"publishAttemptedAt,omitempty"`
}

type postResponse struct {
	ID                 string     `json:"id"`
	AccountPubkey      string     `json:"accountPubkey"`
	AuthorPubkey       string     `json:"authorPubkey"`
	Status             string     `json:"status"`
	ScheduledAt        *time.Time `json:"scheduledAt,omitempty"`
	Relays             []string   `json:"relays,omitempty"`
	PublishAttemptedAt *time.Time `json:"publishAttemptedAt,omitempty"`
	PublishError       string     `json:"publishError,omitempty"`
	RawEvent           string     `json:"rawEvent"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func convertPost(post model.Post) postResponse {
	return postResponse{
		ID:                 post.ID.String(),
		AccountPubkey:      post.AccountPubkey,
		AuthorPubkey:       post.AuthorPubkey,
		Status:             string(post.Status),
		ScheduledAt:        post.ScheduledAt,
		Relays:             post.Relays,
		PublishAttemptedAt: post.PublishAttemptedAt,
		PublishError:       post.PublishError,
		RawEvent:           post.RawEvent,
		CreatedAt:          post.CreatedAt,
		UpdatedAt:          post.UpdatedAt,
	}
}

func (h *Post) pubkey(w http.ResponseWriter, r *http.Request) (string, bool) {
	pubkey, ok := h.contextManager.GetPubkeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing authenticated identity")
		return "", false
	}
	return pubkey, true
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// List returns the caller's posts, optionally filtered by status.
func (h *Post) List(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := h.pubkey(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	filter := model.PostFilter{
		Status: model.PostStatus(q.Get("status")),
		Limit:  limit,
		Offset: offset,
	}

	posts, err := h.postService.GetPosts(r.Context(), pubkey, filter)
	if err != nil {
		h.logger.Error("failed to list posts", "pubkey", pubkey, "error", err)
		handleError(w, err)
		return
	}

	items := make([]postResponse, 0, len(posts))
	for _, post := range posts {
		items = append(items, convertPost(post))
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Create stores a new post owned by the caller.
func (h *Post) Create(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := h.pubkey(w, r)
	if !ok {
		return
	}

	var req createPostRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Status == "" || req.RawEvent == "" {
		writeError(w, http.StatusBadRequest, "status and rawEvent are required")
		return
	}

	post, err := h.postService.CreatePost(r.Context(), model.CreatePostParams{
		OwnerPubkey: pubkey,
		Status:      model.PostStatus(req.Status),
		RawEvent:    req.RawEvent,
		ScheduledAt: req.ScheduledAt,
		Relays:      req.Relays,
	})
	if err != nil {
		h.logger.Error("failed to create post", "pubkey", pubkey, "error", err)
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"item": convertPost(post)})
}

// Get returns one post owned by the caller.
func (h *Post) Get(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := h.pubkey(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	post, err := h.postService.GetPost(r.Context(), id, pubkey)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"item": convertPost(post)})
}

// Update changes the lifecycle state of one of the caller's posts.
func (h *Post) Update(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := h.pubkey(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	var req updatePostRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	post, err := h.postService.UpdatePostStatus(r.Context(), id, pubkey, model.UpdatePostStatusParams{
		Status:             model.PostStatus(req.Status),
		PublishError:       req.PublishError,
		PublishAttemptedAt: req.PublishAttemptedAt,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"item": convertPost(post)})
}

// Delete removes one of the caller's posts and returns the deleted item.
func (h *Post) Delete(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := h.pubkey(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	post, err := h.postService.DeletePost(r.Context(), id, pubkey)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"item": convertPost(post)})
}
