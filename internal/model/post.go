package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PostStore defines persistence operations for posts. Every lookup and
// mutation is scoped to the owning pubkey: a row owned by someone else is
// indistinguishable from a row that does not exist.
type PostStore interface {
	Create(ctx context.Context, post Post) (Post, error)
	GetByIDForOwner(ctx context.Context, id uuid.UUID, owner string) (Post, error)
	ListByOwner(ctx context.Context, owner string, filter PostFilter) ([]Post, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, owner string, params UpdatePostStatusParams) (Post, error)
	Delete(ctx context.Context, id uuid.UUID, owner string) (Post, error)
}

// Post represents a stored post entity.
type Post struct {
	ID                 uuid.UUID
	AccountPubkey      string
	AuthorPubkey       string
	Status             PostStatus
	ScheduledAt        *time.Time
	Relays             []string
	PublishAttemptedAt *time.Time
	PublishError       string
	RawEvent           string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PostStatus enumerates post lifecycle states. Transitions are caller-driven;
// the server validates values at the boundary but keeps no state machine.
type PostStatus string

const (
	// PostStatusDraft is a post that has not been queued for publication.
	PostStatusDraft PostStatus = "draft"
	// PostStatusScheduled is a post handed to the scheduling delegate.
	PostStatusScheduled PostStatus = "scheduled"
	// PostStatusPublished is a post the delegate reported as broadcast.
	PostStatusPublished PostStatus = "published"
	// PostStatusFailed is a post whose publication attempt failed.
	PostStatusFailed PostStatus = "failed"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusScheduled, PostStatusPublished, PostStatusFailed:
		return true
	}
	return false
}

// PostFilter narrows ListByOwner results. An empty Status matches all states.
type PostFilter struct {
	Status PostStatus
	Limit  int
	Offset int
}

// CreatePostParams contains parameters to create a post. OwnerPubkey always
// comes from the authenticated identity, never from the request body.
type CreatePostParams struct {
	OwnerPubkey string
	Status      PostStatus
	RawEvent    string
	ScheduledAt *time.Time
	Relays      []string
}

// UpdatePostStatusParams contains parameters for a status update. Nil pointer
// fields leave the stored value untouched.
type UpdatePostStatusParams struct {
	Status             PostStatus
	PublishError       *string
	PublishAttemptedAt *time.Time
}
