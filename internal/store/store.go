package store

import (
	"context"
	"errors"

	"github.com/alphabot-ai/discuss/internal/model"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate comment")
)

type Store interface {
	CommentStore
	GetSiteStats(ctx context.Context) (model.SiteStats, error)
	Close() error
}

type CommentStore interface {
	// CreateComment inserts the comment. A zero ID lets the database assign one.
	CreateComment(ctx context.Context, comment *model.Comment) (int64, error)
	GetComment(ctx context.Context, id int64) (model.Comment, error)
	// ListComments returns all comments, newest first.
	ListComments(ctx context.Context) ([]model.Comment, error)
	// PatchComment applies the non-nil fields of patch and returns the stored record.
	PatchComment(ctx context.Context, id int64, patch model.CommentPatch) (model.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
	CommentExists(ctx context.Context, id int64) (bool, error)
}
