package store

import (
	"context"
	"errors"

	"oli-admin/internal/model"
)

var (
	ErrNotFound = errors.New("document not found")
)

// Snapshot is the full content of both collections at fetch time.
type Snapshot struct {
	Items    []model.Item
	Articles []model.Article
}

// Store is the document service backing the console. Ids are assigned on create.
// Update of a missing document fails with ErrNotFound; delete of a missing one succeeds.
type Store interface {
	FetchAll(ctx context.Context) (Snapshot, error)

	CreateItem(ctx context.Context, item model.Item) (string, error)
	UpdateItem(ctx context.Context, id string, item model.Item) error
	DeleteItem(ctx context.Context, id string) error

	CreateArticle(ctx context.Context, article model.Article) (string, error)
	UpdateArticle(ctx context.Context, id string, article model.Article) error
	DeleteArticle(ctx context.Context, id string) error
}
