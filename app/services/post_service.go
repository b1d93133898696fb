package services

import (
	"context"
	"fmt"
	"log/slog"

	"inkwell/app/images"
	"inkwell/app/keyschema"
	"inkwell/app/links"
	"inkwell/app/models"
	"inkwell/app/render"
	"inkwell/app/repositories"
)

// PostService handles business logic for blog posts: validation, rendering,
// link checking and persistence through the repository.
type PostService struct {
	repo     repositories.PostRepository
	labels   repositories.LabelIndex
	checker  *links.Checker
	renderer *render.Renderer
	images   *images.Service
	log      *slog.Logger
}

// NewPostService creates a new PostService.
func NewPostService(
	repo repositories.PostRepository,
	labels repositories.LabelIndex,
	checker *links.Checker,
	renderer *render.Renderer,
	imgs *images.Service,
	log *slog.Logger,
) *PostService {
	if log == nil {
		log = slog.Default()
	}
	return &PostService{
		repo:     repo,
		labels:   labels,
		checker:  checker,
		renderer: renderer,
		images:   imgs,
		log:      log,
	}
}

// SaveResult carries what a save (or check) produced: the rendered HTML and
// any broken-link findings. On a real save the findings are advisory.
type SaveResult struct {
	HTML        string             `json:"html"`
	BrokenLinks []links.BrokenLink `json:"broken_links,omitempty"`
}

// CheckError is returned by the dry-run path when broken links are found;
// there the findings are validation errors, not advisories.
type CheckError struct {
	Broken []links.BrokenLink
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("check failed: %d broken link(s)", len(e.Broken))
}

// SavePost validates, renders and persists a post. With dryRun set it
// performs every check, including link integrity, but issues no writes;
// broken links then fail the call instead of riding along as warnings.
func (s *PostService) SavePost(ctx context.Context, post *models.Post, dryRun bool) (*SaveResult, error) {
	post.Normalize()
	if err := validatePost(post); err != nil {
		return nil, err
	}

	valid, err := s.validLinks(ctx, post.Slug)
	if err != nil {
		return nil, err
	}
	html, err := s.renderer.Render(post.ContentType, post.Content, valid)
	if err != nil {
		return nil, fmt.Errorf("invalid post content: %w", err)
	}

	broken, err := s.checker.Check(ctx, post.Content, post.ImageIDs)
	if err != nil {
		return nil, err
	}

	result := &SaveResult{HTML: html, BrokenLinks: broken}
	if dryRun {
		if len(broken) > 0 {
			return result, &CheckError{Broken: broken}
		}
		return result, nil
	}

	if err := s.repo.SavePost(ctx, post); err != nil {
		return nil, err
	}
	if len(broken) > 0 {
		s.log.Warn("post saved with broken links", "slug", post.Slug, "count", len(broken))
	}
	return result, nil
}

// GetPost retrieves a post and its rendered HTML.
func (s *PostService) GetPost(ctx context.Context, slug string) (*models.Post, string, error) {
	post, err := s.repo.GetPost(ctx, slug)
	if err != nil {
		return nil, "", err
	}
	valid, err := s.validLinks(ctx, slug)
	if err != nil {
		return nil, "", err
	}
	html, err := s.renderer.Render(post.ContentType, post.Content, valid)
	if err != nil {
		// Stored content that no longer renders should not hide the post.
		s.log.Warn("stored content failed to render", "slug", slug, "error", err)
		html = ""
	}
	return post, html, nil
}

// ListPosts retrieves every post summary plus skip warnings.
func (s *PostService) ListPosts(ctx context.Context) ([]models.PostSummary, []repositories.Warning, error) {
	return s.repo.ListPosts(ctx)
}

// DeletePost deletes a post and its label markers.
func (s *PostService) DeletePost(ctx context.Context, slug string) error {
	return s.repo.DeletePost(ctx, slug)
}

// Publish marks a post published through the standard save path.
func (s *PostService) Publish(ctx context.Context, slug string) error {
	return s.repo.Publish(ctx, slug)
}

// Unpublish clears the published flag through the standard save path.
func (s *PostService) Unpublish(ctx context.Context, slug string) error {
	return s.repo.Unpublish(ctx, slug)
}

// ListByLabel queries the reverse label index.
func (s *PostService) ListByLabel(ctx context.Context, label string) ([]string, error) {
	return s.labels.ListByLabel(ctx, label)
}

// Ready reports whether the backing store answers reads.
func (s *PostService) Ready(ctx context.Context) error {
	return s.repo.Ready(ctx)
}

// validLinks assembles the internal link targets for rendering: every live
// post (plus the one being saved) and every stored image.
func (s *PostService) validLinks(ctx context.Context, extraSlug string) (render.ValidLinks, error) {
	summaries, _, err := s.repo.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(summaries)+1)
	for _, sum := range summaries {
		slugs = append(slugs, sum.Slug)
	}
	if extraSlug != "" {
		slugs = append(slugs, extraSlug)
	}
	ids, err := s.images.List(ctx)
	if err != nil {
		return nil, err
	}
	return render.BuildValidLinks(slugs, ids), nil
}

// validatePost runs every pre-store check on a post.
func validatePost(post *models.Post) error {
	if err := post.Validate(); err != nil {
		return fmt.Errorf("invalid post: %w", err)
	}
	if err := keyschema.ValidateSlug(post.Slug); err != nil {
		return err
	}
	for _, label := range post.Labels {
		if err := keyschema.ValidateLabel(label); err != nil {
			return err
		}
	}
	for _, id := range post.ImageIDs {
		if err := keyschema.ValidateImageID(id); err != nil {
			return err
		}
	}
	return nil
}
