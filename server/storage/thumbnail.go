package storage

import (
	"bytes"

	"github.com/disintegration/imaging"
)

// ThumbnailSize is the bounding box of generated thumbnails, in pixels.
// Scan pages are tall, so thumbnails fit within a square rather than
// scaling by width alone.
const ThumbnailSize = 320

// Thumbnail downscales an image to fit within ThumbnailSize and encodes
// it as JPEG. The aspect ratio is preserved; images already smaller than
// the box are re-encoded unscaled.
func Thumbnail(imageData []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	thumb := imaging.Fit(src, ThumbnailSize, ThumbnailSize, imaging.Lanczos)
	out := &bytes.Buffer{}
	if err := imaging.Encode(out, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
