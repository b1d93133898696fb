// Package links verifies image references in post content against the image
// key space. Findings are advisory for saves and blocking for the check
// (dry-run) path; a missing image is a broken reference, never a fatal error.
package links

import (
	"context"
	"fmt"
	"regexp"

	"inkwell/app/keyschema"
	"inkwell/app/storage"
)

// BrokenLink records one unresolved image reference.
type BrokenLink struct {
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

// imageRefPattern matches /images/{id} paths in raw or rendered content.
var imageRefPattern = regexp.MustCompile(`/images/([A-Za-z0-9._-]+)`)

// Checker validates image references through the store port.
type Checker struct {
	store storage.ObjectStore
}

// NewChecker creates a link checker over the given store.
func NewChecker(store storage.ObjectStore) *Checker {
	return &Checker{store: store}
}

// Check extracts image references from content and the declared image IDs
// and verifies each has an original object. All findings are aggregated; a
// missing image never aborts the check. Store failures do.
func (c *Checker) Check(ctx context.Context, content string, imageIDs []string) ([]BrokenLink, error) {
	ids := referencedImageIDs(content, imageIDs)
	var broken []BrokenLink
	for _, id := range ids {
		exists, err := c.imageExists(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("check image %s: %w", id, err)
		}
		if !exists {
			broken = append(broken, BrokenLink{
				Reference: id,
				Reason:    "no original object for image",
			})
		}
	}
	return broken, nil
}

func (c *Checker) imageExists(ctx context.Context, id string) (bool, error) {
	page, err := c.store.List(ctx, keyschema.ImageKey(id, keyschema.VariantOriginal), "", "")
	if err != nil {
		return false, err
	}
	return len(page.Entries) > 0, nil
}

// referencedImageIDs merges IDs found in the content with the declared
// sequence, preserving first-seen order.
func referencedImageIDs(content string, declared []string) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range declared {
		add(id)
	}
	for _, m := range imageRefPattern.FindAllStringSubmatch(content, -1) {
		add(m[1])
	}
	return ids
}
