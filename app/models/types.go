package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ContentType identifies the markup format of a post body.
type ContentType string

const (
	ContentTypeMarkdown         ContentType = "markdown"
	ContentTypeRestructuredText ContentType = "restructuredtext"
)

// Post represents a blog post. A post is persisted as several object keys:
// its metadata travels inside the props key, the body lives under the
// content key and each label is a marker key of its own.
type Post struct {
	Slug        string      `json:"slug" validate:"required,min=3,max=100"`
	Date        time.Time   `json:"date" validate:"required"`
	Title       string      `json:"title" validate:"required,min=1,max=200"`
	ContentType ContentType `json:"content_type" validate:"required,oneof=markdown restructuredtext"`
	Content     string      `json:"content" validate:"required"`
	Labels      []string    `json:"labels" validate:"dive,min=1,max=50"`
	ImageIDs    []string    `json:"image_ids" validate:"dive,min=1,max=100"`
	BskyPostURL string      `json:"bsky_post_url,omitempty" validate:"omitempty,url"`
	Published   bool        `json:"published"`
}

// PostSummary is the listing view of a post: everything from the props key
// plus the labels found next to it, but no content.
type PostSummary struct {
	Slug        string      `json:"slug"`
	Date        time.Time   `json:"date"`
	Title       string      `json:"title"`
	ContentType ContentType `json:"content_type"`
	Labels      []string    `json:"labels"`
	ImageIDs    []string    `json:"image_ids"`
	BskyPostURL string      `json:"bsky_post_url,omitempty"`
	Published   bool        `json:"published"`
}
