package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"inkwell/app/keyschema"
	"inkwell/app/storage"
)

// StoreLabelIndex answers label queries from the reverse marker key space:
// one delimiter listing of labels/{label}/ costs O(matching posts), not a
// full bucket scan. The reverse index is derived state; a marker without a
// live post is tolerated, never an error.
type StoreLabelIndex struct {
	store storage.ObjectStore
	log   *slog.Logger
}

// NewStoreLabelIndex creates a label index over the given store.
func NewStoreLabelIndex(store storage.ObjectStore, log *slog.Logger) *StoreLabelIndex {
	if log == nil {
		log = slog.Default()
	}
	return &StoreLabelIndex{store: store, log: log}
}

// ListByLabel implements LabelIndex.
func (x *StoreLabelIndex) ListByLabel(ctx context.Context, label string) ([]string, error) {
	if err := keyschema.ValidateLabel(label); err != nil {
		return nil, err
	}
	entries, _, err := storage.ListAll(ctx, x.store, keyschema.LabelPrefix(label), keyschema.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("list label %s: %w", label, err)
	}
	var slugs []string
	for _, key := range entries {
		parts, err := keyschema.ParseKey(key)
		if err != nil || parts.Kind != keyschema.KindReverseLabel {
			x.log.Warn("skipping unrecognized reverse marker", "key", key)
			continue
		}
		slugs = append(slugs, parts.Slug)
	}
	sort.Strings(slugs)
	return slugs, nil
}

// ListLabels enumerates every label that has at least one reverse marker.
func (x *StoreLabelIndex) ListLabels(ctx context.Context) ([]string, error) {
	_, prefixes, err := storage.ListAll(ctx, x.store, keyschema.LabelsRoot, keyschema.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	labels := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		labels = append(labels, p[len(keyschema.LabelsRoot):len(p)-1])
	}
	sort.Strings(labels)
	return labels, nil
}
