// Package codec implements the decode -> exact-extent resize -> encode
// facade described in spec.md §4.3, atop github.com/disintegration/
// imaging (grounded on other_examples' machsix-hugo_gallery image
// pipeline, which calls the same Resize/Lanczos/Save shape).
package codec

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"

	"github.com/RedstoneMedia/pictocrab/internal/errs"
)

// Codec is the interface internal/pipeline depends on, so tests can
// substitute a fake that skips real image decoding.
type Codec interface {
	DecodeResizeEncode(raw []byte, width, height int) ([]byte, error)
}

// Imaging is the production Codec implementation.
type Imaging struct{}

var _ Codec = Imaging{}

// DecodeResizeEncode implements spec.md §4.3: decode raw (auto-detecting
// format), resize to exactly (width, height) if the decoded extent
// doesn't already match, and encode to uncompressed bitmap.
func (Imaging) DecodeResizeEncode(raw []byte, width, height int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &errs.CodecError{Op: "decode", Err: err}
	}

	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		// imaging.Resize forces both axes to the requested size
		// independently, i.e. without preserving aspect ratio, matching
		// spec.md's "exact-extent resize" and the original's
		// img.thumbnail_exact(width, height).
		img = imaging.Resize(img, width, height, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.BMP); err != nil {
		return nil, &errs.CodecError{Op: "encode", Err: err}
	}
	return out.Bytes(), nil
}

// Bounds returns an image's pixel width/height; exposed for tests that
// verify the resize contract in spec.md §8 by decoding a response frame.
func Bounds(img image.Image) (int, int) {
	b := img.Bounds()
	return b.Dx(), b.Dy()
}
