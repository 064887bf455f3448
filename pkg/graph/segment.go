package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/hopgraph/hopgraph/pkg/common"
)

// ErrInvalidSegmentParams is returned when the overlap is not smaller than the
// window size, or either parameter is not positive.
var ErrInvalidSegmentParams = errors.New("segment overlap must be smaller than the window size")

// SegmentText splits text into overlapping windows of window characters,
// advancing by window-overlap characters per step. The final window may be
// shorter and is kept as-is. Text shorter than one window yields a single
// span containing the whole text.
func SegmentText(text string, window int, overlap int) ([]string, error) {
	if window <= 0 || overlap < 0 || overlap >= window {
		return nil, ErrInvalidSegmentParams
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}
	if len(runes) <= window {
		return []string{text}, nil
	}

	stride := window - overlap
	spans := make([]string, 0, (len(runes)-overlap+stride-1)/stride)
	for start := 0; start < len(runes); start += stride {
		end := min(start+window, len(runes))
		spans = append(spans, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return spans, nil
}

// BuildChunks segments text and wraps each span in a chunk carrying a
// deterministic ID and a content hash. Re-running over the same text produces
// identical chunks.
func BuildChunks(dataset string, source string, text string, window int, overlap int) ([]common.Chunk, error) {
	spans, err := SegmentText(text, window, overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]common.Chunk, 0, len(spans))
	for i, span := range spans {
		chunks = append(chunks, common.Chunk{
			ID:      fmt.Sprintf("%s_chunk_%05d", dataset, i),
			Dataset: dataset,
			Ordinal: i,
			Source:  source,
			Text:    span,
			Hash:    HashText(span),
		})
	}
	return chunks, nil
}

// HashText returns the hex-encoded SHA-256 digest of the text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
