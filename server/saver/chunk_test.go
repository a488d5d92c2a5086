package saver

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func makePayloads(n int, fileSize int) []ImagePayload {
	payloads := make([]ImagePayload, n)
	for i := 0; i < n; i++ {
		payloads[i] = ImagePayload{
			Name: fmt.Sprintf("page-%03d.jpg", i),
			File: make([]byte, fileSize),
		}
	}
	return payloads
}

func TestSplitChunks(t *testing.T) {
	mb := 1024 * 1024

	// Five 2MB images under a 5MB budget pack as 2+2+1
	chunks := SplitChunks(makePayloads(5, 2*mb), int64(5*mb))
	require.Len(t, chunks, 3)
	require.Len(t, chunks[0], 2)
	require.Len(t, chunks[1], 2)
	require.Len(t, chunks[2], 1)

	// Order is preserved across chunk boundaries
	require.Equal(t, "page-000.jpg", chunks[0][0].Name)
	require.Equal(t, "page-004.jpg", chunks[2][0].Name)

	// Every chunk except possibly the last respects the budget
	for _, chunk := range chunks {
		total := int64(0)
		for i := range chunk {
			total += chunk[i].EstimatedSize()
		}
		require.LessOrEqual(t, total, int64(5*mb))
	}
}

func TestSplitChunksOversizedImage(t *testing.T) {
	mb := 1024 * 1024
	payloads := []ImagePayload{
		{Name: "small-1.jpg", File: make([]byte, mb)},
		{Name: "huge.jpg", File: make([]byte, 10*mb)},
		{Name: "small-2.jpg", File: make([]byte, mb)},
	}
	// The oversized image still uploads, alone in its own chunk
	chunks := SplitChunks(payloads, int64(5*mb))
	require.Len(t, chunks, 3)
	require.Equal(t, "small-1.jpg", chunks[0][0].Name)
	require.Equal(t, "huge.jpg", chunks[1][0].Name)
	require.Equal(t, "small-2.jpg", chunks[2][0].Name)
}

func TestSplitChunksEmpty(t *testing.T) {
	require.Len(t, SplitChunks(nil, DefaultMaxChunkSize), 0)
}
