package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"

	"github.com/postpilot/postpilot-server/internal/logger"
	"github.com/postpilot/postpilot-server/internal/model"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Dispatcher hands a signed content event to the scheduling delegate.
type Dispatcher interface {
	Schedule(ctx context.Context, contentEvent nostr.Event) (nostr.Event, error)
}

// Post implements business operations on posts. Ownership is re-checked on
// every mutating call by scoping the store operation to the caller's pubkey,
// even when the handler already established it.
type Post struct {
	postStore  model.PostStore
	dispatcher Dispatcher
	logger     *logger.Logger
}

// NewPost creates a Post service. The dispatcher may be nil when scheduling
// is not configured; creating a scheduled post then fails with ErrNoDelegate.
func NewPost(postStore model.PostStore, dispatcher Dispatcher, logger *logger.Logger) *Post {
	return &Post{
		postStore:  postStore,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// CreatePost stores a new post owned by the authenticated pubkey. Author and
// account fields always come from params.OwnerPubkey, never from the raw
// event. A post created in the scheduled state is also dispatched to the
// delegate after it is stored.
func (s *Post) CreatePost(ctx context.Context, params model.CreatePostParams) (model.Post, error) {
	if !params.Status.Valid() {
		return model.Post{}, model.ErrInvalidStatus
	}

	var contentEvent nostr.Event
	if params.RawEvent != "" {
		if err := json.Unmarshal([]byte(params.RawEvent), &contentEvent); err != nil {
			return model.Post{}, fmt.Errorf("%w: %w", model.ErrInvalidRawEvent, err)
		}
	}

	post := model.Post{
		ID:            uuid.New(),
		AccountPubkey: params.OwnerPubkey,
		AuthorPubkey:  params.OwnerPubkey,
		Status:        params.Status,
		ScheduledAt:   params.ScheduledAt,
		Relays:        params.Relays,
		RawEvent:      params.RawEvent,
	}

	post, err := s.postStore.Create(ctx, post)
	if err != nil {
		return model.Post{}, fmt.Errorf("failed to save post: %w", err)
	}

	if post.Status == model.PostStatusScheduled && post.RawEvent != "" {
		if s.dispatcher == nil {
			return model.Post{}, model.ErrNoDelegate
		}
		if _, err := s.dispatcher.Schedule(ctx, contentEvent); err != nil {
			return model.Post{}, fmt.Errorf("failed to dispatch schedule request: %w", err)
		}
	}

	return post, nil
}

// GetPosts lists the caller's posts, newest first.
func (s *Post) GetPosts(ctx context.Context, owner string, filter model.PostFilter) ([]model.Post, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, model.ErrInvalidStatus
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	posts, err := s.postStore.ListByOwner(ctx, owner, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, nil
}

// GetPost returns one post owned by the caller.
func (s *Post) GetPost(ctx context.Context, id uuid.UUID, owner string) (model.Post, error) {
	post, err := s.postStore.GetByIDForOwner(ctx, id, owner)
	if err != nil {
		return model.Post{}, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

// UpdatePostStatus updates the lifecycle state of a post owned by the caller.
func (s *Post) UpdatePostStatus(ctx context.Context, id uuid.UUID, owner string, params model.UpdatePostStatusParams) (model.Post, error) {
	if !params.Status.Valid() {
		return model.Post{}, model.ErrInvalidStatus
	}

	post, err := s.postStore.UpdateStatus(ctx, id, owner, params)
	if err != nil {
		return model.Post{}, fmt.Errorf("failed to update post status: %w", err)
	}

	return post, nil
}

// DeletePost removes a post owned by the caller and returns the deleted row.
func (s *Post) DeletePost(ctx context.Context, id uuid.UUID, owner string) (model.Post, error) {
	post, err := s.postStore.Delete(ctx, id, owner)
	if err != nil {
		return model.Post{}, fmt.Errorf("failed to delete post: %w", err)
	}

	return post, nil
}
