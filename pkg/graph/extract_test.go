package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hopgraph/hopgraph/pkg/ai"
)

type fakeAI struct {
	completions   []string
	completionErr error
	calls         int
	prompts       []string
	models        []string

	embedding []float32
	embedErr  error
}

func (f *fakeAI) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var cfg ai.GenerateOptions
	for _, opt := range opts {
		opt(&cfg)
	}
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.models = append(f.models, cfg.Model)
	if f.completionErr != nil {
		return "", f.completionErr
	}
	if len(f.completions) == 0 {
		return "[]", nil
	}
	out := f.completions[0]
	f.completions = f.completions[1:]
	return out, nil
}

func (f *fakeAI) GenerateCompletionWithFormat(ctx context.Context, name string, description string, prompt string, out any, opts ...ai.GenerateOption) error {
	return errors.New("not implemented")
}

func (f *fakeAI) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if f.embedding != nil {
		return f.embedding, nil
	}
	return make([]float32, 4), nil
}

func (f *fakeAI) ResetMetrics() {}

func (f *fakeAI) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func TestExtractFirstAttempt(t *testing.T) {
	client := &fakeAI{
		completions: []string{`[{"head": "goat", "relation": "is_a", "tail": "ruminant"}]`},
	}
	e := NewTripleExtractor(NewTripleExtractorParams{Client: client})

	triples, err := e.Extract(context.Background(), "Goats are ruminants.")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(triples) != 1 || triples[0].Head != "goat" {
		t.Fatalf("Extract() = %v", triples)
	}
	if client.calls != 1 {
		t.Errorf("completion calls = %d, want 1", client.calls)
	}
}

func TestExtractRetriesOnGarbage(t *testing.T) {
	client := &fakeAI{
		completions: []string{
			"complete nonsense with no structure",
			`[{"head": "goat", "relation": "is_a", "tail": "ruminant"}]`,
		},
	}
	e := NewTripleExtractor(NewTripleExtractorParams{Client: client})

	triples, err := e.Extract(context.Background(), "Goats are ruminants.")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(triples) != 1 {
		t.Fatalf("Extract() = %v", triples)
	}
	if client.calls != 2 {
		t.Errorf("completion calls = %d, want 2", client.calls)
	}
}

func TestExtractEmptyShortText(t *testing.T) {
	client := &fakeAI{}
	e := NewTripleExtractor(NewTripleExtractorParams{Client: client})

	triples, err := e.Extract(context.Background(), "Short text.")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(triples) != 0 {
		t.Fatalf("Extract() = %v, want empty", triples)
	}
	if client.calls != extractAttempts {
		t.Errorf("completion calls = %d, want %d", client.calls, extractAttempts)
	}
}

func TestExtractParagraphFallback(t *testing.T) {
	para1 := strings.Repeat("Goats eat hay. ", 30)
	para2 := strings.Repeat("Vitamin A matters. ", 30)
	text := para1 + "\n\n" + para2

	client := &fakeAI{
		completions: []string{
			"[]", "[]", "[]", // full-text attempts
			`[{"head": "goat", "relation": "eats", "tail": "hay"}]`, // first paragraph
			`[{"head": "vitamin_A", "relation": "matters_to", "tail": "goat"}]`, // second paragraph
		},
	}
	e := NewTripleExtractor(NewTripleExtractorParams{Client: client})

	triples, err := e.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(triples) != 2 {
		t.Fatalf("Extract() = %v, want 2 triples", triples)
	}
	if client.calls != extractAttempts+2 {
		t.Errorf("completion calls = %d, want %d", client.calls, extractAttempts+2)
	}

	lastPrompt := client.prompts[len(client.prompts)-1]
	if !strings.Contains(lastPrompt, "Vitamin A matters.") {
		t.Error("paragraph prompt does not carry the paragraph text")
	}
	if strings.Contains(lastPrompt, "Goats eat hay.") {
		t.Error("paragraph prompt carries text from another paragraph")
	}
}

func TestExtractUsesConfiguredModel(t *testing.T) {
	client := &fakeAI{
		completions: []string{`[{"head": "goat", "relation": "is_a", "tail": "ruminant"}]`},
	}
	e := NewTripleExtractor(NewTripleExtractorParams{Client: client, Model: "extract-model"})

	if _, err := e.Extract(context.Background(), "Goats are ruminants."); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(client.models) != 1 || client.models[0] != "extract-model" {
		t.Errorf("completion models = %v, want [extract-model]", client.models)
	}
}

func TestExtractDefaultModel(t *testing.T) {
	client := &fakeAI{
		completions: []string{`[{"head": "goat", "relation": "is_a", "tail": "ruminant"}]`},
	}
	e := NewTripleExtractor(NewTripleExtractorParams{Client: client})

	if _, err := e.Extract(context.Background(), "Goats are ruminants."); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(client.models) != 1 || client.models[0] != "" {
		t.Errorf("completion models = %v, want the client default", client.models)
	}
}

func TestExtractContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeAI{}
	e := NewTripleExtractor(NewTripleExtractorParams{Client: client})

	if _, err := e.Extract(ctx, "Goats are ruminants."); !errors.Is(err, context.Canceled) {
		t.Errorf("Extract() error = %v, want context.Canceled", err)
	}
	if client.calls != 0 {
		t.Errorf("completion calls = %d, want 0", client.calls)
	}
}

func TestSplitForExtraction(t *testing.T) {
	long := strings.Repeat("y", splitSliceChars+10)
	text := "first paragraph\n\n\n" + long + "\n\nlast"

	parts := splitForExtraction(text)
	if len(parts) != 4 {
		t.Fatalf("parts = %d, want 4", len(parts))
	}
	if parts[0] != "first paragraph" {
		t.Errorf("parts[0] = %q", parts[0])
	}
	if len(parts[1]) != splitSliceChars || len(parts[2]) != 10 {
		t.Errorf("oversized paragraph sliced into %d and %d chars", len(parts[1]), len(parts[2]))
	}
	if parts[3] != "last" {
		t.Errorf("parts[3] = %q", parts[3])
	}
}
