// Package keyschema encodes blog entities into object-store keys and back.
// The whole "database" is this key layout:
//
//	posts/{slug}/props/{base64-url-safe-encoded-props}
//	posts/{slug}/content/raw
//	posts/{slug}/labels/{label}/true
//	labels/{label}/{slug}
//	images/{id}/original
//	images/{id}/1000
//	images/{id}/150
//
// The layout is a compatibility contract and must not change.
package keyschema

import (
	"fmt"
	"strings"
)

// Delimiter separates key segments; slugs and labels may never contain it.
const Delimiter = "/"

// Roots of the three key families.
const (
	PostsRoot  = "posts/"
	LabelsRoot = "labels/"
	ImagesRoot = "images/"
)

// ImageVariant names one of the derived objects stored per image.
type ImageVariant string

const (
	VariantOriginal  ImageVariant = "original"
	VariantLarge     ImageVariant = "1000"
	VariantThumbnail ImageVariant = "150"
)

// ValidationError reports a slug, label or image ID that cannot become a key
// segment. It is raised before any store call is made.
type ValidationError struct {
	Part   string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Part, e.Value, e.Reason)
}

const keyPartChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789._-"

func validateKeyPart(part, value string, minLen, maxLen int) error {
	if len(value) < minLen {
		return &ValidationError{Part: part, Value: value, Reason: "too short"}
	}
	if len(value) > maxLen {
		return &ValidationError{Part: part, Value: value, Reason: "too long"}
	}
	for _, r := range value {
		if !strings.ContainsRune(keyPartChars, r) {
			return &ValidationError{Part: part, Value: value, Reason: fmt.Sprintf("character %q not allowed", r)}
		}
	}
	return nil
}

// ValidateSlug rejects slugs that cannot serve as a key segment.
func ValidateSlug(slug string) error {
	return validateKeyPart("slug", slug, 3, 100)
}

// ValidateLabel rejects labels that cannot serve as a key segment.
func ValidateLabel(label string) error {
	return validateKeyPart("label", label, 1, 50)
}

// ValidateImageID rejects image IDs that cannot serve as a key segment.
func ValidateImageID(id string) error {
	return validateKeyPart("image id", id, 3, 100)
}

// PostPrefix returns the prefix under which every key of a post lives.
func PostPrefix(slug string) string {
	return PostsRoot + slug + Delimiter
}

// PropsPrefix returns the prefix of a post's props keys. At most one key
// should live here at any consistent read.
func PropsPrefix(slug string) string {
	return PostPrefix(slug) + "props" + Delimiter
}

// PropsKey builds the props key for an encoded payload.
func PropsKey(slug, encoded string) string {
	return PropsPrefix(slug) + encoded
}

// ContentKey returns the fixed key holding a post's raw body.
func ContentKey(slug string) string {
	return PostPrefix(slug) + "content/raw"
}

// ForwardLabelKey returns the post-side label marker key.
func ForwardLabelKey(slug, label string) string {
	return PostPrefix(slug) + "labels" + Delimiter + label + "/true"
}

// ReverseLabelKey returns the label-side marker key.
func ReverseLabelKey(label, slug string) string {
	return LabelsRoot + label + Delimiter + slug
}

// LabelPrefix returns the prefix listing all posts carrying a label.
func LabelPrefix(label string) string {
	return LabelsRoot + label + Delimiter
}

// ImagePrefix returns the prefix under which every variant of an image lives.
func ImagePrefix(id string) string {
	return ImagesRoot + id + Delimiter
}

// ImageKey builds the key of one image variant.
func ImageKey(id string, variant ImageVariant) string {
	return ImagePrefix(id) + string(variant)
}
