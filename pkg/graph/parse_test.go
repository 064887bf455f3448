package graph

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hopgraph/hopgraph/pkg/common"
)

func TestParseTriples(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []common.Triple
	}{
		{
			name: "clean array",
			raw:  `[{"head": "goat", "relation": "deficient_in", "tail": "vitamin_A"}]`,
			want: []common.Triple{
				{Head: "goat", Relation: "deficient_in", Tail: "vitamin_A"},
			},
		},
		{
			name: "markdown fenced",
			raw:  "```json\n[{\"head\": \"goat\", \"relation\": \"weight_is\", \"tail\": \"45kg\"}]\n```",
			want: []common.Triple{
				{Head: "goat", Relation: "weight_is", Tail: "45kg"},
			},
		},
		{
			name: "prose around array",
			raw:  `Here are the triples: [{"head": "feed", "relation": "contains", "tail": "protein"}] Hope that helps!`,
			want: []common.Triple{
				{Head: "feed", Relation: "contains", Tail: "protein"},
			},
		},
		{
			name: "trailing comma repaired",
			raw:  `[{"head": "feed", "relation": "contains", "tail": "protein"},]`,
			want: []common.Triple{
				{Head: "feed", Relation: "contains", Tail: "protein"},
			},
		},
		{
			name: "whitespace normalized",
			raw:  `[{"head": "  dairy   goat ", "relation": " bred_for ", "tail": "milk  production"}]`,
			want: []common.Triple{
				{Head: "dairy goat", Relation: "bred_for", Tail: "milk production"},
			},
		},
		{
			name: "array form",
			raw:  `[["goat", "is_a", "ruminant"]]`,
			want: []common.Triple{
				{Head: "goat", Relation: "is_a", Tail: "ruminant"},
			},
		},
		{
			name: "mixed array and object form",
			raw: `[
				["goat", "is_a", "ruminant"],
				{"head": "goat", "relation": "eats", "tail": "grass"}
			]`,
			want: []common.Triple{
				{Head: "goat", Relation: "is_a", Tail: "ruminant"},
				{Head: "goat", Relation: "eats", Tail: "grass"},
			},
		},
		{
			name: "two element array dropped",
			raw:  `[["goat", "is_a"], {"head": "goat", "relation": "eats", "tail": "grass"}]`,
			want: []common.Triple{
				{Head: "goat", Relation: "eats", Tail: "grass"},
			},
		},
		{
			name: "exact duplicates collapsed",
			raw: `[
				{"head": "goat", "relation": "is_a", "tail": "ruminant"},
				{"head": "goat", "relation": "is_a", "tail": "ruminant"}
			]`,
			want: []common.Triple{
				{Head: "goat", Relation: "is_a", Tail: "ruminant"},
			},
		},
		{
			name: "empty array",
			raw:  `[]`,
			want: []common.Triple{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTriples(tt.raw)
			if err != nil {
				t.Fatalf("ParseTriples() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTriples() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTriplesDropsInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "self loop",
			raw:  `[{"head": "goat", "relation": "is_a", "tail": "Goat"}]`,
		},
		{
			name: "pronoun head",
			raw:  `[{"head": "it", "relation": "causes", "tail": "death"}]`,
		},
		{
			name: "pronoun tail cjk",
			raw:  `[{"head": "vitamin_A", "relation": "prevents", "tail": "它"}]`,
		},
		{
			name: "single char endpoint",
			raw:  `[{"head": "a", "relation": "causes", "tail": "blindness"}]`,
		},
		{
			name: "oversized endpoint",
			raw:  `[{"head": "` + strings.Repeat("x", 51) + `", "relation": "causes", "tail": "blindness"}]`,
		},
		{
			name: "numeric relation",
			raw:  `[{"head": "goat", "relation": "12345", "tail": "ruminant"}]`,
		},
		{
			name: "empty relation",
			raw:  `[{"head": "goat", "relation": "", "tail": "ruminant"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTriples(tt.raw)
			if err != nil {
				t.Fatalf("ParseTriples() error = %v", err)
			}
			if len(got) != 0 {
				t.Errorf("ParseTriples() = %v, want empty", got)
			}
		})
	}
}

func TestParseTriplesUnrecoverable(t *testing.T) {
	if _, err := ParseTriples("no json here at all"); err == nil {
		t.Error("ParseTriples() expected error for non-JSON input")
	}
}
