package keyschema

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"inkwell/app/models"
)

// ErrCorrupt marks a props payload (or key) that cannot be decoded. Listing
// paths treat it as skip-and-warn, never as a fatal condition.
var ErrCorrupt = errors.New("corrupt props payload")

// propsVersion1 tags the only payload layout currently written. The version
// byte sits in front of the msgpack body so that structurally invalid input
// fails decoding instead of silently misparsing.
const propsVersion1 = 0x01

// Props holds every post attribute that travels inside the props key, which
// is everything except the content body and the labels.
type Props struct {
	Date        time.Time
	Title       string
	ContentType models.ContentType
	Published   bool
	ImageIDs    []string
	BskyPostURL string
}

// propsV1 is the wire layout: a fixed msgpack array so the encoding of equal
// field values is byte-identical. Field order is part of the format.
type propsV1 struct {
	_msgpack struct{} `msgpack:",as_array"`

	Date        int64
	Title       string
	ContentType string
	Published   bool
	ImageIDs    []string
	BskyPostURL string
}

var propsEncoding = base64.RawURLEncoding

// EncodeProps serializes props into the key segment form. The encoding is
// deterministic: equal field values always produce the same string, so an
// unchanged post re-encodes to the key that is already stored.
func EncodeProps(p Props) (string, error) {
	wire := propsV1{
		Date:        p.Date.UTC().Unix(),
		Title:       p.Title,
		ContentType: string(p.ContentType),
		Published:   p.Published,
		ImageIDs:    p.ImageIDs,
		BskyPostURL: p.BskyPostURL,
	}
	if len(wire.ImageIDs) == 0 {
		wire.ImageIDs = nil
	}
	raw, err := msgpack.Marshal(&wire)
	if err != nil {
		return "", fmt.Errorf("encode props: %w", err)
	}
	payload := make([]byte, 0, len(raw)+1)
	payload = append(payload, propsVersion1)
	payload = append(payload, raw...)
	return propsEncoding.EncodeToString(payload), nil
}

// DecodeProps reverses EncodeProps. Malformed or truncated input returns an
// error wrapping ErrCorrupt; it never panics.
func DecodeProps(encoded string) (Props, error) {
	payload, err := propsEncoding.DecodeString(encoded)
	if err != nil {
		return Props{}, fmt.Errorf("%w: bad base64: %v", ErrCorrupt, err)
	}
	if len(payload) < 2 {
		return Props{}, fmt.Errorf("%w: payload truncated", ErrCorrupt)
	}
	if payload[0] != propsVersion1 {
		return Props{}, fmt.Errorf("%w: unknown version %d", ErrCorrupt, payload[0])
	}
	var wire propsV1
	if err := msgpack.Unmarshal(payload[1:], &wire); err != nil {
		return Props{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	ct := models.ContentType(wire.ContentType)
	if ct != models.ContentTypeMarkdown && ct != models.ContentTypeRestructuredText {
		return Props{}, fmt.Errorf("%w: unknown content type %q", ErrCorrupt, wire.ContentType)
	}
	return Props{
		Date:        time.Unix(wire.Date, 0).UTC(),
		Title:       wire.Title,
		ContentType: ct,
		Published:   wire.Published,
		ImageIDs:    wire.ImageIDs,
		BskyPostURL: wire.BskyPostURL,
	}, nil
}

// PropsOf projects a post into its props form.
func PropsOf(p *models.Post) Props {
	return Props{
		Date:        p.Date,
		Title:       p.Title,
		ContentType: p.ContentType,
		Published:   p.Published,
		ImageIDs:    p.ImageIDs,
		BskyPostURL: p.BskyPostURL,
	}
}
