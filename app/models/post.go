package models

import (
	"errors"
	"sort"
	"time"
)

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	if p.Date.IsZero() {
		return errors.New("date cannot be zero")
	}

	return nil
}

// Normalize sets up derived fields before saving: it defaults the date and
// content type and deduplicates labels into a sorted set.
func (p *Post) Normalize() {
	if p.Date.IsZero() {
		p.Date = time.Now().UTC()
	}
	p.Date = p.Date.UTC().Truncate(time.Second)

	if p.ContentType == "" {
		p.ContentType = ContentTypeMarkdown
	}

	if len(p.Labels) > 0 {
		seen := make(map[string]struct{}, len(p.Labels))
		labels := p.Labels[:0]
		for _, l := range p.Labels {
			if _, ok := seen[l]; ok {
				continue
			}
			seen[l] = struct{}{}
			labels = append(labels, l)
		}
		sort.Strings(labels)
		p.Labels = labels
	}
}

// Summary projects the post into its listing view.
func (p *Post) Summary() PostSummary {
	return PostSummary{
		Slug:        p.Slug,
		Date:        p.Date,
		Title:       p.Title,
		ContentType: p.ContentType,
		Labels:      p.Labels,
		ImageIDs:    p.ImageIDs,
		BskyPostURL: p.BskyPostURL,
		Published:   p.Published,
	}
}

// HasLabel reports whether the post carries the given label.
func (p *Post) HasLabel(label string) bool {
	for _, l := range p.Labels {
		if l == label {
			return true
		}
	}
	return false
}
