package graph

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/hopgraph/hopgraph/internal/util"
	"github.com/hopgraph/hopgraph/pkg/common"
	"github.com/hopgraph/hopgraph/pkg/logger"

	"github.com/kaptinlin/jsonrepair"
)

const (
	minEndpointChars = 2
	maxEndpointChars = 50
	maxRelationChars = 30
)

// Pronoun endpoints slip through coreference resolution often enough to
// pollute the graph; drop them outright.
var pronounStoplist = map[string]struct{}{
	"it": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"they": {}, "them": {},
	"它": {}, "這": {}, "那": {}, "該": {}, "此": {}, "其": {},
}

type rawTriple struct {
	Head     string `json:"head"`
	Relation string `json:"relation"`
	Tail     string `json:"tail"`
}

func decodeTriples(raw string) ([]rawTriple, error) {
	raw = strings.TrimSpace(raw)

	if triples, err := decodeTripleArray(raw); err == nil {
		return triples, nil
	}

	// Models occasionally wrap the array in prose or a markdown fence;
	// recover the outermost array before resorting to repair.
	if start, end := strings.Index(raw, "["), strings.LastIndex(raw, "]"); start != -1 && end > start {
		candidate := raw[start : end+1]
		if triples, err := decodeTripleArray(candidate); err == nil {
			logger.Debug("[Extract] Recovered triple array from noisy output", "offset", start)
			return triples, nil
		}
		raw = candidate
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, err
	}
	triples, err := decodeTripleArray(repaired)
	if err != nil {
		return nil, err
	}
	logger.Debug("[Extract] Repaired malformed triple JSON")
	return triples, nil
}

// decodeTripleArray decodes a JSON array whose elements are either
// head/relation/tail objects or bare 3-element string arrays. The two forms
// may be mixed in one response; elements in neither form are dropped.
func decodeTripleArray(raw string) ([]rawTriple, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		return nil, err
	}

	triples := make([]rawTriple, 0, len(elements))
	for _, element := range elements {
		var t rawTriple
		if err := json.Unmarshal(element, &t); err == nil {
			triples = append(triples, t)
			continue
		}
		var parts []string
		if err := json.Unmarshal(element, &parts); err == nil && len(parts) == 3 {
			triples = append(triples, rawTriple{Head: parts[0], Relation: parts[1], Tail: parts[2]})
		}
	}
	return triples, nil
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func validTriple(t common.Triple) bool {
	headLen := len([]rune(t.Head))
	tailLen := len([]rune(t.Tail))
	if headLen < minEndpointChars || headLen > maxEndpointChars {
		return false
	}
	if tailLen < minEndpointChars || tailLen > maxEndpointChars {
		return false
	}
	if t.Relation == "" || len([]rune(t.Relation)) > maxRelationChars || digitsOnly(t.Relation) {
		return false
	}
	if strings.EqualFold(t.Head, t.Tail) {
		return false
	}
	if _, ok := pronounStoplist[strings.ToLower(t.Head)]; ok {
		return false
	}
	if _, ok := pronounStoplist[strings.ToLower(t.Tail)]; ok {
		return false
	}
	return true
}

// ParseTriples decodes raw model output into validated, deduplicated triples.
// Output that cannot be decoded at all yields an error; individually invalid
// triples are silently dropped.
func ParseTriples(raw string) ([]common.Triple, error) {
	decoded, err := decodeTriples(raw)
	if err != nil {
		return nil, err
	}

	seen := make(map[common.Triple]struct{}, len(decoded))
	triples := make([]common.Triple, 0, len(decoded))
	for _, rt := range decoded {
		t := common.Triple{
			Head:     util.NormalizeText(rt.Head),
			Relation: util.NormalizeText(rt.Relation),
			Tail:     util.NormalizeText(rt.Tail),
		}
		if !validTriple(t) {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		triples = append(triples, t)
	}
	return triples, nil
}
