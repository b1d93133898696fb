package repositories

import (
	"context"

	"inkwell/app/models"
)

// PostRepository defines the interface for post data access
type PostRepository interface {
	// ListPosts returns every post sorted by date descending (slug ascending
	// on ties). Posts whose props key is absent or corrupt are skipped and
	// reported through the warning slice, never as an error.
	ListPosts(ctx context.Context) ([]models.PostSummary, []Warning, error)
	GetPost(ctx context.Context, slug string) (*models.Post, error)
	SavePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, slug string) error
	Publish(ctx context.Context, slug string) error
	Unpublish(ctx context.Context, slug string) error
	// Ready checks read access to the backing store.
	Ready(ctx context.Context) error
}

// LabelIndex answers reverse-index queries.
type LabelIndex interface {
	// ListByLabel returns the slugs carrying a label, in ascending order,
	// from a single listing of the label's reverse prefix.
	ListByLabel(ctx context.Context, label string) ([]string, error)
}
