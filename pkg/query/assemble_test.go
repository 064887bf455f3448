package query

import (
	"context"
	"strings"
	"testing"

	"github.com/hopgraph/hopgraph/pkg/common"
)

func TestAssembleContext(t *testing.T) {
	chunks := []common.ScoredChunk{
		{Chunk: common.Chunk{Text: "Goats need vitamin A."}, Score: 0.9},
		{Chunk: common.Chunk{Text: "  Deficiency causes night blindness.  "}, Score: 0.7, Entities: []string{"vitamin_A", "night_blindness"}},
	}

	got := AssembleContext(chunks)

	if !strings.HasPrefix(got, "[1] Goats need vitamin A.") {
		t.Errorf("context does not start with first chunk:\n%s", got)
	}
	if !strings.Contains(got, "[2] Deficiency causes night blindness.") {
		t.Errorf("second chunk missing or not trimmed:\n%s", got)
	}
	if !strings.Contains(got, "(mentions: vitamin_A, night_blindness)") {
		t.Errorf("entity mentions missing:\n%s", got)
	}
}

func TestAssembleContextEmpty(t *testing.T) {
	if got := AssembleContext(nil); got != NoContextFallback {
		t.Errorf("AssembleContext(nil) = %q, want %q", got, NoContextFallback)
	}
}

func TestEngineAnswer(t *testing.T) {
	st := testStore()
	client := &fakeAI{completions: []string{"Night blindness."}}

	e := NewRetrievalEngine(NewRetrievalEngineParams{Store: st, AI: client})

	result, err := e.Answer(context.Background(), "demo", "What does vitamin A deficiency cause?", 1, 5)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.Answer != "Night blindness." {
		t.Errorf("answer = %q", result.Answer)
	}
	if len(result.Chunks) != 2 {
		t.Errorf("chunks = %d, want 2", len(result.Chunks))
	}

	prompt := client.prompts[len(client.prompts)-1]
	if !strings.Contains(prompt, "text of demo_chunk_00000") {
		t.Error("prompt does not carry retrieved context")
	}
	if !strings.Contains(prompt, "What does vitamin A deficiency cause?") {
		t.Error("prompt does not carry the question")
	}
	if !strings.Contains(prompt, "english") {
		t.Error("prompt does not carry the answer language")
	}
}

func TestEngineAnswerNoContext(t *testing.T) {
	client := &fakeAI{completions: []string{"I cannot answer that from the provided context."}}
	e := NewRetrievalEngine(NewRetrievalEngineParams{Store: &fakeStore{}, AI: client})

	result, err := e.Answer(context.Background(), "demo", "Anything?", 0, 5)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if len(result.Chunks) != 0 {
		t.Errorf("chunks = %d, want 0", len(result.Chunks))
	}
	if !strings.Contains(client.prompts[0], NoContextFallback) {
		t.Error("fallback context missing from prompt")
	}
}
