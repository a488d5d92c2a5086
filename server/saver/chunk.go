package saver

// DefaultMaxChunkSize bounds the estimated byte size of one upload
// request. It reflects what the persistence endpoint accepts, not
// anything inherent to the pipeline, so it's configurable (see Options).
const DefaultMaxChunkSize = 45 * 1024 * 1024

// Fixed per-image estimate for multipart boundaries and form field names.
const perImageOverhead = 200

// ImagePayload is one image materialized for upload: its raw bytes, its
// serialized annotation payload, and whether it counts as labeled.
type ImagePayload struct {
	Name      string
	File      []byte
	Label     []byte
	IsLabeled bool
}

func (p *ImagePayload) EstimatedSize() int64 {
	return int64(len(p.File)) + int64(len(p.Label)) + perImageOverhead
}

// SplitChunks packs images into chunks of estimated size <= maxChunkSize,
// preserving order. A chunk is sealed when the next image would push it
// over the budget; an image that alone exceeds the budget still gets its
// own chunk rather than being dropped.
func SplitChunks(images []ImagePayload, maxChunkSize int64) [][]ImagePayload {
	chunks := [][]ImagePayload{}
	current := []ImagePayload{}
	currentSize := int64(0)
	for _, img := range images {
		size := img.EstimatedSize()
		if currentSize+size > maxChunkSize && len(current) > 0 {
			chunks = append(chunks, current)
			current = []ImagePayload{}
			currentSize = 0
		}
		current = append(current, img)
		currentSize += size
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}
