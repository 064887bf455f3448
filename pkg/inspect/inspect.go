package inspect

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/hopgraph/hopgraph/pkg/common"
	"github.com/hopgraph/hopgraph/pkg/logger"
	"github.com/hopgraph/hopgraph/pkg/store"
)

// DegreeBuckets counts entities by relation degree.
type DegreeBuckets struct {
	Isolated int `json:"isolated"`
	Low      int `json:"low"`  // 1-3 relations
	Mid      int `json:"mid"`  // 4-9 relations
	High     int `json:"high"` // 10 or more relations
}

// Report is the quality diagnostic of one dataset's graph.
//
// EffectiveDensity (relations per entity) is the authoritative density figure
// for grading; AcademicDensity (relations over all possible directed pairs)
// is reported alongside for reference only.
type Report struct {
	Dataset string `json:"dataset"`

	Chunks    int `json:"chunks"`
	Entities  int `json:"entities"`
	Relations int `json:"relations"`
	Mentions  int `json:"mentions"`

	EffectiveDensity float64 `json:"effective_density"`
	AcademicDensity  float64 `json:"academic_density"`
	AvgDegree        float64 `json:"avg_degree"`
	RelationTypes    int     `json:"relation_types"`

	Buckets DegreeBuckets `json:"degree_buckets"`
	Issues  []string      `json:"issues,omitempty"`

	Score int    `json:"score"`
	Grade string `json:"grade"`
}

// Inspector computes quality reports over stored graphs.
type Inspector struct {
	store store.GraphStorage
}

// NewInspector creates an Inspector over the given store.
func NewInspector(storeClient store.GraphStorage) *Inspector {
	return &Inspector{store: storeClient}
}

// Inspect builds the quality report for a dataset.
func (i *Inspector) Inspect(ctx context.Context, dataset string) (*Report, error) {
	stats, err := i.store.Stats(ctx, dataset)
	if err != nil {
		return nil, err
	}
	degrees, err := i.store.EntityDegrees(ctx, dataset)
	if err != nil {
		return nil, err
	}
	relations, err := i.store.ListRelations(ctx, dataset)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Dataset:   dataset,
		Chunks:    stats.Chunks,
		Entities:  stats.Entities,
		Relations: stats.Relations,
		Mentions:  stats.Mentions,
	}

	if stats.Entities > 0 {
		report.EffectiveDensity = float64(stats.Relations) / float64(stats.Entities)
		report.AvgDegree = 2 * float64(stats.Relations) / float64(stats.Entities)
	}
	if stats.Entities > 1 {
		report.AcademicDensity = float64(stats.Relations) /
			(float64(stats.Entities) * float64(stats.Entities-1))
	}

	relTypes := make(map[string]struct{}, len(relations))
	for _, r := range relations {
		relTypes[strings.ToLower(r.Type)] = struct{}{}
	}
	report.RelationTypes = len(relTypes)

	for _, degree := range degrees {
		switch {
		case degree == 0:
			report.Buckets.Isolated++
		case degree <= 3:
			report.Buckets.Low++
		case degree <= 9:
			report.Buckets.Mid++
		default:
			report.Buckets.High++
		}
	}

	report.Issues = collectIssues(degrees, relations)
	report.Score, report.Grade = grade(report)

	logger.Info("[Inspect] Report built",
		"dataset", dataset,
		"entities", report.Entities,
		"relations", report.Relations,
		"density", fmt.Sprintf("%.2f", report.EffectiveDensity),
		"grade", report.Grade,
	)

	return report, nil
}

func collectIssues(degrees map[string]int, relations []common.Relation) []string {
	var issues []string

	isolated := 0
	for _, d := range degrees {
		if d == 0 {
			isolated++
		}
	}
	if isolated > 0 {
		issues = append(issues, fmt.Sprintf("%d isolated entities without relations", isolated))
	}

	selfLoops := 0
	malformed := 0
	emptyProvenance := 0
	// The unique constraint on (head, type, tail) rules out exact duplicates,
	// but relations differing only in letter case still slip through.
	caseDupes := 0
	seen := make(map[string]bool, len(relations))
	for _, r := range relations {
		if strings.EqualFold(r.Head, r.Tail) {
			selfLoops++
		}
		if r.Type == "" || relTypeNumeric(r.Type) {
			malformed++
		}
		if len(r.Chunks) == 0 {
			emptyProvenance++
		}
		key := strings.ToLower(r.Head) + "|" + strings.ToLower(r.Type) + "|" + strings.ToLower(r.Tail)
		if seen[key] {
			caseDupes++
		}
		seen[key] = true
	}
	if selfLoops > 0 {
		issues = append(issues, fmt.Sprintf("%d self-loop relations", selfLoops))
	}
	if malformed > 0 {
		issues = append(issues, fmt.Sprintf("%d relations with empty or numeric types", malformed))
	}
	if emptyProvenance > 0 {
		issues = append(issues, fmt.Sprintf("%d relations without provenance chunks", emptyProvenance))
	}
	if caseDupes > 0 {
		issues = append(issues, fmt.Sprintf("%d duplicate relations differing only in case", caseDupes))
	}

	oversized := 0
	for name := range degrees {
		if len([]rune(name)) > 50 {
			oversized++
		}
	}
	if oversized > 0 {
		issues = append(issues, fmt.Sprintf("%d entities with oversized names", oversized))
	}

	return issues
}

// grade scores the graph on seven checks, one point each.
func grade(r *Report) (int, string) {
	score := 0
	if r.Entities > 0 && r.Relations > 0 {
		score++
	}
	if r.EffectiveDensity >= 1.8 {
		score++
	}
	if r.AvgDegree >= 2.0 {
		score++
	}
	if r.Entities > 0 && float64(r.Buckets.Isolated)/float64(r.Entities) <= 0.05 {
		score++
	}
	if r.Buckets.High > 0 {
		score++
	}
	if r.Mentions > 0 {
		score++
	}
	if len(r.Issues) == 0 {
		score++
	}

	switch {
	case score == 7:
		return score, "A+"
	case score == 6:
		return score, "A"
	case score >= 4:
		return score, "B"
	case score >= 2:
		return score, "C"
	default:
		return score, "D"
	}
}

func relTypeNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
