package keyschema

import (
	"fmt"
	"strings"
)

// KeyKind classifies a parsed key.
type KeyKind int

const (
	KindUnknown KeyKind = iota
	KindProps
	KindContent
	KindForwardLabel
	KindReverseLabel
	KindImage
)

// KeyParts is the decoded form of a store key. Only the fields relevant to
// the Kind are set.
type KeyParts struct {
	Kind         KeyKind
	Slug         string
	EncodedProps string
	Label        string
	ImageID      string
	Variant      ImageVariant
}

// ParseKey classifies a raw store key. Keys that do not match the layout
// return an error wrapping ErrCorrupt; listing paths skip such keys.
func ParseKey(key string) (KeyParts, error) {
	segs := strings.Split(key, Delimiter)
	switch {
	case len(segs) == 4 && segs[0] == "posts" && segs[2] == "props":
		if segs[1] == "" || segs[3] == "" {
			break
		}
		return KeyParts{Kind: KindProps, Slug: segs[1], EncodedProps: segs[3]}, nil
	case len(segs) == 4 && segs[0] == "posts" && segs[2] == "content" && segs[3] == "raw":
		if segs[1] == "" {
			break
		}
		return KeyParts{Kind: KindContent, Slug: segs[1]}, nil
	case len(segs) == 5 && segs[0] == "posts" && segs[2] == "labels" && segs[4] == "true":
		if segs[1] == "" || segs[3] == "" {
			break
		}
		return KeyParts{Kind: KindForwardLabel, Slug: segs[1], Label: segs[3]}, nil
	case len(segs) == 3 && segs[0] == "labels":
		if segs[1] == "" || segs[2] == "" {
			break
		}
		return KeyParts{Kind: KindReverseLabel, Label: segs[1], Slug: segs[2]}, nil
	case len(segs) == 3 && segs[0] == "images":
		v := ImageVariant(segs[2])
		if segs[1] == "" || (v != VariantOriginal && v != VariantLarge && v != VariantThumbnail) {
			break
		}
		return KeyParts{Kind: KindImage, ImageID: segs[1], Variant: v}, nil
	}
	return KeyParts{}, fmt.Errorf("%w: unrecognized key %q", ErrCorrupt, key)
}
