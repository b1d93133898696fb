// Package images manages the image key space. Every upload produces three
// objects: the lossless original, a 1000px bound variant and a 150px
// thumbnail. Posts reference images weakly by ID; deleting a post never
// touches its images.
package images

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"inkwell/app/keyschema"
	"inkwell/app/storage"
)

var (
	// ErrExists means the image ID is already taken.
	ErrExists = errors.New("image already exists")
	// ErrNotFound means no object exists for the image ID.
	ErrNotFound = errors.New("image not found")
)

const (
	largeBound = 1000
	thumbBound = 150

	largeQuality = 90
	thumbQuality = 85
)

// Service implements the image pipeline over the store port.
type Service struct {
	store storage.ObjectStore
	log   *slog.Logger
}

// NewService creates an image service over the given store.
func NewService(store storage.ObjectStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log}
}

// Create stores a new image under id, generating one when empty. Raster
// uploads are re-encoded (webp original, JPEG variants); SVG uploads pass
// through unchanged after a structural check, serving all three variants.
func (s *Service) Create(ctx context.Context, id string, raw []byte) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if err := keyschema.ValidateImageID(id); err != nil {
		return "", err
	}
	taken, err := s.exists(ctx, id)
	if err != nil {
		return "", err
	}
	if taken {
		return "", fmt.Errorf("%w: %s", ErrExists, id)
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		if svgErr := validateSVG(raw); svgErr != nil {
			return "", fmt.Errorf("unsupported image data: %w", svgErr)
		}
		return id, s.putVariants(ctx, id, raw, raw, raw)
	}

	original, err := encodeWebP(img)
	if err != nil {
		return "", err
	}
	large := img
	if b := img.Bounds(); b.Dx() > largeBound || b.Dy() > largeBound {
		large = imaging.Fit(img, largeBound, largeBound, imaging.Lanczos)
	}
	largeData, err := encodeJPEG(large, largeQuality)
	if err != nil {
		return "", err
	}
	thumbData, err := encodeJPEG(imaging.Fit(img, thumbBound, thumbBound, imaging.Lanczos), thumbQuality)
	if err != nil {
		return "", err
	}
	return id, s.putVariants(ctx, id, original, largeData, thumbData)
}

func (s *Service) putVariants(ctx context.Context, id string, original, large, thumb []byte) error {
	variants := []struct {
		v    keyschema.ImageVariant
		data []byte
	}{
		{keyschema.VariantOriginal, original},
		{keyschema.VariantLarge, large},
		{keyschema.VariantThumbnail, thumb},
	}
	for _, it := range variants {
		if err := s.store.Put(ctx, keyschema.ImageKey(id, it.v), it.data); err != nil {
			return fmt.Errorf("put %s variant: %w", it.v, err)
		}
	}
	return nil
}

// Get returns the bytes and content type of one variant.
func (s *Service) Get(ctx context.Context, id string, variant keyschema.ImageVariant) ([]byte, string, error) {
	if err := keyschema.ValidateImageID(id); err != nil {
		return nil, "", err
	}
	data, err := s.store.Get(ctx, keyschema.ImageKey(id, variant))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: %s/%s", ErrNotFound, id, variant)
		}
		return nil, "", err
	}
	return data, contentTypeOf(variant, data), nil
}

// List enumerates every stored image ID.
func (s *Service) List(ctx context.Context) ([]string, error) {
	_, prefixes, err := storage.ListAll(ctx, s.store, keyschema.ImagesRoot, keyschema.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	ids := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		ids = append(ids, p[len(keyschema.ImagesRoot):len(p)-1])
	}
	return ids, nil
}

// Delete removes every variant of an image.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := keyschema.ValidateImageID(id); err != nil {
		return err
	}
	entries, _, err := storage.ListAll(ctx, s.store, keyschema.ImagePrefix(id), "")
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	for _, key := range entries {
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

func (s *Service) exists(ctx context.Context, id string) (bool, error) {
	page, err := s.store.List(ctx, keyschema.ImagePrefix(id), "", "")
	if err != nil {
		return false, err
	}
	return len(page.Entries) > 0, nil
}

func encodeWebP(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: true}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// validateSVG accepts any XML document that opens at least one element.
func validateSVG(raw []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return errors.New("empty svg content")
		}
		if err != nil {
			return fmt.Errorf("read svg: %w", err)
		}
		if _, ok := tok.(xml.StartElement); ok {
			return nil
		}
	}
}

func contentTypeOf(variant keyschema.ImageVariant, data []byte) string {
	head := strings.TrimSpace(string(data[:min(len(data), 256)]))
	if strings.HasPrefix(head, "<?xml") || strings.HasPrefix(head, "<svg") {
		return "image/svg+xml"
	}
	if variant == keyschema.VariantOriginal {
		return "image/webp"
	}
	return "image/jpeg"
}
