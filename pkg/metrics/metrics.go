package metrics

import (
	"math"
	"strings"
	"unicode"
)

// Refusal openers that mark an answer as a non-answer regardless of length.
var refusalPatterns = []string{
	"no context found",
	"i cannot answer",
	"i can't answer",
	"i don't know",
	"i do not know",
	"not enough information",
	"no information",
	"cannot be determined",
	"based on the provided context, i cannot",
}

const minEffectiveAnswerLength = 10

// normalizeAnswer lowercases, strips punctuation, and collapses whitespace so
// exact match and token overlap compare content rather than formatting.
func normalizeAnswer(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ExactMatch reports whether prediction and reference are identical after
// normalization.
func ExactMatch(prediction string, reference string) bool {
	return normalizeAnswer(prediction) == normalizeAnswer(reference)
}

// TokenF1 computes the token-overlap F1 score between prediction and
// reference after normalization. Both empty yields 1, one empty yields 0.
func TokenF1(prediction string, reference string) float64 {
	predTokens := strings.Fields(normalizeAnswer(prediction))
	refTokens := strings.Fields(normalizeAnswer(reference))

	if len(predTokens) == 0 && len(refTokens) == 0 {
		return 1
	}
	if len(predTokens) == 0 || len(refTokens) == 0 {
		return 0
	}

	refCounts := make(map[string]int, len(refTokens))
	for _, tok := range refTokens {
		refCounts[tok]++
	}

	overlap := 0
	for _, tok := range predTokens {
		if refCounts[tok] > 0 {
			refCounts[tok]--
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}

	precision := float64(overlap) / float64(len(predTokens))
	recall := float64(overlap) / float64(len(refTokens))
	return 2 * precision * recall / (precision + recall)
}

// Cosine computes the cosine similarity of two vectors. Mismatched lengths or
// zero vectors yield 0.
func Cosine(a []float32, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// IsEffectiveAnswer reports whether an answer carries content: long enough
// after trimming and not opening with a refusal.
func IsEffectiveAnswer(answer string) bool {
	trimmed := strings.TrimSpace(answer)
	if len([]rune(trimmed)) < minEffectiveAnswerLength {
		return false
	}

	lowered := strings.ToLower(trimmed)
	for _, pattern := range refusalPatterns {
		if strings.Contains(lowered, pattern) {
			return false
		}
	}
	return true
}
