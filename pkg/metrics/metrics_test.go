package metrics

import (
	"math"
	"testing"
)

func TestExactMatch(t *testing.T) {
	tests := []struct {
		name       string
		prediction string
		reference  string
		want       bool
	}{
		{name: "identical", prediction: "night blindness", reference: "night blindness", want: true},
		{name: "case and punctuation", prediction: "Night Blindness!", reference: "night blindness", want: true},
		{name: "extra whitespace", prediction: "  night   blindness ", reference: "night blindness", want: true},
		{name: "different content", prediction: "day blindness", reference: "night blindness", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExactMatch(tt.prediction, tt.reference); got != tt.want {
				t.Errorf("ExactMatch(%q, %q) = %v, want %v", tt.prediction, tt.reference, got, tt.want)
			}
		})
	}
}

func TestTokenF1(t *testing.T) {
	tests := []struct {
		name       string
		prediction string
		reference  string
		want       float64
	}{
		{name: "perfect", prediction: "vitamin a deficiency", reference: "vitamin a deficiency", want: 1},
		{name: "no overlap", prediction: "apples and oranges", reference: "goats and vitamins", want: 0.3333333333},
		{name: "disjoint", prediction: "alpha beta", reference: "gamma delta", want: 0},
		{name: "both empty", prediction: "", reference: "", want: 1},
		{name: "one empty", prediction: "something", reference: "", want: 0},
		{
			name:       "partial overlap",
			prediction: "causes night blindness",
			reference:  "vitamin a deficiency causes night blindness",
			want:       2.0 / 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenF1(tt.prediction, tt.reference); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TokenF1(%q, %q) = %v, want %v", tt.prediction, tt.reference, got, tt.want)
			}
		})
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "length mismatch", a: []float32{1, 2}, b: []float32{1}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsEffectiveAnswer(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   bool
	}{
		{name: "real answer", answer: "Vitamin A deficiency causes night blindness in goats.", want: true},
		{name: "too short", answer: "Yes.", want: false},
		{name: "refusal", answer: "I cannot answer this question from the given material.", want: false},
		{name: "no context", answer: "No context found for this question, sorry.", want: false},
		{name: "whitespace only", answer: "            ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEffectiveAnswer(tt.answer); got != tt.want {
				t.Errorf("IsEffectiveAnswer(%q) = %v, want %v", tt.answer, got, tt.want)
			}
		})
	}
}
