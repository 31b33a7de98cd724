package repository

import (
	"context"

	"minitwit/internal/model"
)

// UserRepository persists credentials. Lookups return model.ErrUserNotFound when absent.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// FollowRepository persists the social graph.
type FollowRepository interface {
	// Create inserts the edge and reports whether it was new.
	Create(ctx context.Context, whoID, whomID int64) (bool, error)
	// Delete removes the edge and reports whether one existed.
	Delete(ctx context.Context, whoID, whomID int64) (bool, error)
	Exists(ctx context.Context, whoID, whomID int64) (bool, error)
	// GetFollowedIDs returns every whom_id followed by whoID.
	GetFollowedIDs(ctx context.Context, whoID int64) ([]int64, error)
	// GetFollowerIDs returns every who_id following whomID.
	GetFollowerIDs(ctx context.Context, whomID int64) ([]int64, error)
}

// MessageRepository persists messages. Every listing is ordered
// pub_date DESC, message_id DESC and joined with the author.
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	GetRecent(ctx context.Context, limit int) ([]model.TimelineEntry, error)
	GetRecentByAuthors(ctx context.Context, authorIDs []int64, limit int) ([]model.TimelineEntry, error)
	// GetByIDs returns entries in the order of ids, skipping unknown ids.
	GetByIDs(ctx context.Context, ids []int64) ([]model.TimelineEntry, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
}
