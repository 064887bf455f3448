package query

import (
	"fmt"
	"strings"

	"github.com/hopgraph/hopgraph/pkg/common"
)

// NoContextFallback is handed to the answer model when retrieval comes back
// empty, so the model declines instead of hallucinating.
const NoContextFallback = "No context found."

// AssembleContext joins retrieved chunks into the context block of the answer
// prompt. Chunks appear in rank order, each numbered and separated by a blank
// line. Chunks that surfaced entity names carry them as a mention line.
func AssembleContext(chunks []common.ScoredChunk) string {
	if len(chunks) == 0 {
		return NoContextFallback
	}

	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, strings.TrimSpace(c.Chunk.Text))
		if len(c.Entities) > 0 {
			fmt.Fprintf(&b, "\n(mentions: %s)", strings.Join(c.Entities, ", "))
		}
	}
	return b.String()
}
