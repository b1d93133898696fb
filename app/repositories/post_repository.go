package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"inkwell/app/keyschema"
	"inkwell/app/models"
	"inkwell/app/storage"
)

// StorePostRepository implements PostRepository on the object-store port.
// Multi-key writes are not atomic; the fixed step ordering below biases
// partial failures toward "stale data lingers" instead of "post vanishes",
// and every read path tolerates the partial states those failures leave.
type StorePostRepository struct {
	store storage.ObjectStore
	log   *slog.Logger
}

// NewStorePostRepository creates a repository over the given store.
func NewStorePostRepository(store storage.ObjectStore, log *slog.Logger) *StorePostRepository {
	if log == nil {
		log = slog.Default()
	}
	return &StorePostRepository{store: store, log: log}
}

// postKeys aggregates one listing pass over posts/{slug}/.
type postKeys struct {
	all        []string
	propsKeys  []string
	hasContent bool
	labels     []string
}

func (r *StorePostRepository) scanPost(ctx context.Context, slug string) (postKeys, error) {
	entries, _, err := storage.ListAll(ctx, r.store, keyschema.PostPrefix(slug), "")
	if err != nil {
		return postKeys{}, fmt.Errorf("list %s: %w", slug, err)
	}
	pk := postKeys{all: entries}
	for _, key := range entries {
		parts, err := keyschema.ParseKey(key)
		if err != nil {
			r.log.Warn("skipping unrecognized key", "key", key)
			continue
		}
		switch parts.Kind {
		case keyschema.KindProps:
			pk.propsKeys = append(pk.propsKeys, parts.EncodedProps)
		case keyschema.KindContent:
			pk.hasContent = true
		case keyschema.KindForwardLabel:
			pk.labels = append(pk.labels, parts.Label)
		}
	}
	sort.Strings(pk.labels)
	return pk, nil
}

// pickProps resolves concurrent props keys deterministically: the newest
// embedded date wins, ties go to the lexically greatest encoding. Corrupt
// payloads are ignored; ok is false when none decodes.
func pickProps(encodings []string) (props keyschema.Props, chosen string, ok bool) {
	for _, enc := range encodings {
		p, err := keyschema.DecodeProps(enc)
		if err != nil {
			continue
		}
		if !ok || p.Date.After(props.Date) || (p.Date.Equal(props.Date) && enc > chosen) {
			props, chosen, ok = p, enc, true
		}
	}
	return props, chosen, ok
}

// ListPosts implements PostRepository.
func (r *StorePostRepository) ListPosts(ctx context.Context) ([]models.PostSummary, []Warning, error) {
	_, prefixes, err := storage.ListAll(ctx, r.store, keyschema.PostsRoot, keyschema.Delimiter)
	if err != nil {
		return nil, nil, fmt.Errorf("list posts: %w", err)
	}

	var summaries []models.PostSummary
	var warnings []Warning
	for _, prefix := range prefixes {
		slug := strings.TrimSuffix(strings.TrimPrefix(prefix, keyschema.PostsRoot), keyschema.Delimiter)
		pk, err := r.scanPost(ctx, slug)
		if err != nil {
			return nil, nil, err
		}
		if len(pk.propsKeys) == 0 {
			// No props key means the post does not exist, whatever else is
			// left under the prefix (e.g. a crashed delete).
			warnings = append(warnings, Warning{Slug: slug, Reason: "no props key"})
			r.log.Warn("skipping post without props key", "slug", slug)
			continue
		}
		props, _, ok := pickProps(pk.propsKeys)
		if !ok {
			warnings = append(warnings, Warning{Slug: slug, Reason: "corrupt props key"})
			r.log.Warn("skipping post with corrupt props key", "slug", slug)
			continue
		}
		summaries = append(summaries, models.PostSummary{
			Slug:        slug,
			Date:        props.Date,
			Title:       props.Title,
			ContentType: props.ContentType,
			Labels:      pk.labels,
			ImageIDs:    props.ImageIDs,
			BskyPostURL: props.BskyPostURL,
			Published:   props.Published,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].Date.Equal(summaries[j].Date) {
			return summaries[i].Date.After(summaries[j].Date)
		}
		return summaries[i].Slug < summaries[j].Slug
	})
	return summaries, warnings, nil
}

// GetPost implements PostRepository.
func (r *StorePostRepository) GetPost(ctx context.Context, slug string) (*models.Post, error) {
	if err := keyschema.ValidateSlug(slug); err != nil {
		return nil, err
	}
	pk, err := r.scanPost(ctx, slug)
	if err != nil {
		return nil, err
	}
	if len(pk.propsKeys) == 0 {
		return nil, ErrNotFound
	}
	props, _, ok := pickProps(pk.propsKeys)
	if !ok {
		return nil, fmt.Errorf("post %s: %w", slug, keyschema.ErrCorrupt)
	}
	if !pk.hasContent {
		return nil, fmt.Errorf("%w: props without content for %s", ErrInconsistent, slug)
	}
	content, err := r.store.Get(ctx, keyschema.ContentKey(slug))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// The content key disappeared between the listing and the get;
			// most likely a delete racing us.
			return nil, fmt.Errorf("%w: content vanished for %s", ErrInconsistent, slug)
		}
		return nil, fmt.Errorf("get content %s: %w", slug, err)
	}

	r.repairReverseMarkers(ctx, slug, pk.labels)

	return &models.Post{
		Slug:        slug,
		Date:        props.Date,
		Title:       props.Title,
		ContentType: props.ContentType,
		Content:     string(content),
		Labels:      pk.labels,
		ImageIDs:    props.ImageIDs,
		BskyPostURL: props.BskyPostURL,
		Published:   props.Published,
	}, nil
}

// reverseMarkerKeys lists every reverse marker pointing at slug, whatever
// label it sits under. The forward markers cannot answer this: a failed
// label-remove step deletes the forward side first, so the orphaned reverse
// marker is only discoverable from the reverse key space itself.
func (r *StorePostRepository) reverseMarkerKeys(ctx context.Context, slug string) ([]string, error) {
	entries, _, err := storage.ListAll(ctx, r.store, keyschema.LabelsRoot, "")
	if err != nil {
		return nil, fmt.Errorf("list reverse markers: %w", err)
	}
	var keys []string
	for _, key := range entries {
		parts, err := keyschema.ParseKey(key)
		if err != nil || parts.Kind != keyschema.KindReverseLabel {
			continue
		}
		if parts.Slug == slug {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// repairReverseMarkers re-issues missing reverse markers for forward markers
// found on a read. Best effort: failures are logged, never surfaced.
func (r *StorePostRepository) repairReverseMarkers(ctx context.Context, slug string, labels []string) {
	for _, label := range labels {
		key := keyschema.ReverseLabelKey(label, slug)
		_, err := r.store.Get(ctx, key)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			r.log.Warn("reverse marker check failed", "key", key, "error", err)
			continue
		}
		if err := r.store.Put(ctx, key, nil); err != nil {
			r.log.Warn("reverse marker repair failed", "key", key, "error", err)
			continue
		}
		r.log.Info("repaired missing reverse marker", "label", label, "slug", slug)
	}
}

func (r *StorePostRepository) validate(post *models.Post) error {
	if err := post.Validate(); err != nil {
		return err
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

// SavePost implements PostRepository. Step order: content, new props, label
// additions, label removals, old props deletes. A reader therefore never
// sees props pointing at absent content, and a failure midway leaves extra
// old data rather than a missing post.
func (r *StorePostRepository) SavePost(ctx context.Context, post *models.Post) error {
	post.Normalize()
	if err := r.validate(post); err != nil {
		return err
	}

	encoded, err := keyschema.EncodeProps(keyschema.PropsOf(post))
	if err != nil {
		return err
	}

	pk, err := r.scanPost(ctx, post.Slug)
	if err != nil {
		return err
	}

	if err := r.store.Put(ctx, keyschema.ContentKey(post.Slug), []byte(post.Content)); err != nil {
		return &StepError{Step: StepContent, Err: err}
	}
	if err := r.store.Put(ctx, keyschema.PropsKey(post.Slug, encoded), nil); err != nil {
		return &StepError{Step: StepProps, Err: err}
	}

	oldLabels := make(map[string]struct{}, len(pk.labels))
	for _, l := range pk.labels {
		oldLabels[l] = struct{}{}
	}
	newLabels := make(map[string]struct{}, len(post.Labels))
	for _, l := range post.Labels {
		newLabels[l] = struct{}{}
	}

	for _, label := range post.Labels {
		if _, ok := oldLabels[label]; ok {
			continue
		}
		if err := r.store.Put(ctx, keyschema.ForwardLabelKey(post.Slug, label), nil); err != nil {
			return &StepError{Step: StepLabelAdd, Err: err}
		}
		if err := r.store.Put(ctx, keyschema.ReverseLabelKey(label, post.Slug), nil); err != nil {
			return &StepError{Step: StepLabelAdd, Err: err}
		}
	}
	for _, label := range pk.labels {
		if _, ok := newLabels[label]; ok {
			continue
		}
		if err := r.store.Delete(ctx, keyschema.ForwardLabelKey(post.Slug, label)); err != nil {
			return &StepError{Step: StepLabelRemove, Err: err}
		}
	}
	// Reverse removals come from the reverse key space, not the forward diff:
	// a prior failed removal leaves a reverse marker with no forward
	// counterpart, and a retried save must still sweep it.
	reverseKeys, err := r.reverseMarkerKeys(ctx, post.Slug)
	if err != nil {
		return err
	}
	for _, key := range reverseKeys {
		parts, perr := keyschema.ParseKey(key)
		if perr != nil {
			continue
		}
		if _, ok := newLabels[parts.Label]; ok {
			continue
		}
		if err := r.store.Delete(ctx, key); err != nil {
			return &StepError{Step: StepLabelRemove, Err: err}
		}
	}

	// Replace-via-create-then-delete: the new props key is durable before
	// any old version disappears.
	for _, enc := range pk.propsKeys {
		if enc == encoded {
			continue
		}
		if err := r.store.Delete(ctx, keyschema.PropsKey(post.Slug, enc)); err != nil {
			return &StepError{Step: StepPropsCleanup, Err: err}
		}
	}
	return nil
}

// DeletePost implements PostRepository. Deletion is not atomic; a crash
// leaves partial state that ListPosts already tolerates (a slug without a
// props key reads as already deleted). Reverse markers are swept from the
// reverse key space so orphans from an earlier failed removal go too; a
// retry against residual keys completes the delete instead of failing.
func (r *StorePostRepository) DeletePost(ctx context.Context, slug string) error {
	if err := keyschema.ValidateSlug(slug); err != nil {
		return err
	}
	pk, err := r.scanPost(ctx, slug)
	if err != nil {
		return err
	}
	reverseKeys, err := r.reverseMarkerKeys(ctx, slug)
	if err != nil {
		return err
	}
	if len(pk.propsKeys) == 0 && len(pk.all) == 0 && len(reverseKeys) == 0 {
		return ErrNotFound
	}
	for _, key := range pk.all {
		if err := r.store.Delete(ctx, key); err != nil {
			return &StepError{Step: StepPostKeys, Err: err}
		}
	}
	for _, key := range reverseKeys {
		if err := r.store.Delete(ctx, key); err != nil {
			return &StepError{Step: StepReverseIndex, Err: err}
		}
	}
	return nil
}

// Publish implements PostRepository.
func (r *StorePostRepository) Publish(ctx context.Context, slug string) error {
	return r.setPublished(ctx, slug, true)
}

// Unpublish implements PostRepository.
func (r *StorePostRepository) Unpublish(ctx context.Context, slug string) error {
	return r.setPublished(ctx, slug, false)
}

// setPublished flips the published flag through the standard save path, so
// it is just another props version, not a distinct protocol.
func (r *StorePostRepository) setPublished(ctx context.Context, slug string, published bool) error {
	post, err := r.GetPost(ctx, slug)
	if err != nil {
		return err
	}
	if post.Published == published {
		return nil
	}
	post.Published = published
	return r.SavePost(ctx, post)
}

// Ready checks read access to the underlying store.
func (r *StorePostRepository) Ready(ctx context.Context) error {
	_, err := r.store.List(ctx, keyschema.PostsRoot, keyschema.Delimiter, "")
	return err
}
