package inspect

import (
	"context"
	"math"
	"testing"

	"github.com/hopgraph/hopgraph/pkg/common"
	"github.com/hopgraph/hopgraph/pkg/store"
)

type fakeStore struct {
	store.GraphStorage

	stats     store.GraphStats
	degrees   map[string]int
	relations []common.Relation
}

func (s *fakeStore) Stats(ctx context.Context, dataset string) (*store.GraphStats, error) {
	stats := s.stats
	return &stats, nil
}

func (s *fakeStore) EntityDegrees(ctx context.Context, dataset string) (map[string]int, error) {
	return s.degrees, nil
}

func (s *fakeStore) ListRelations(ctx context.Context, dataset string) ([]common.Relation, error) {
	return s.relations, nil
}

func TestInspectDensityAndDegrees(t *testing.T) {
	st := &fakeStore{
		stats: store.GraphStats{Chunks: 3, Entities: 10, Relations: 20, Mentions: 25},
		degrees: map[string]int{
			"a": 0, "b": 1, "c": 3, "d": 4, "e": 9,
			"f": 10, "g": 15, "h": 2, "i": 5, "j": 1,
		},
	}
	report, err := NewInspector(st).Inspect(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}

	if math.Abs(report.EffectiveDensity-2.0) > 1e-9 {
		t.Errorf("effective density = %v, want 2.0", report.EffectiveDensity)
	}
	wantAcademic := 20.0 / (10.0 * 9.0)
	if math.Abs(report.AcademicDensity-wantAcademic) > 1e-9 {
		t.Errorf("academic density = %v, want %v", report.AcademicDensity, wantAcademic)
	}
	if math.Abs(report.AvgDegree-4.0) > 1e-9 {
		t.Errorf("avg degree = %v, want 4.0", report.AvgDegree)
	}

	want := DegreeBuckets{Isolated: 1, Low: 4, Mid: 3, High: 2}
	if report.Buckets != want {
		t.Errorf("buckets = %+v, want %+v", report.Buckets, want)
	}
}

func TestInspectIssuesAndGrade(t *testing.T) {
	st := &fakeStore{
		stats:   store.GraphStats{Entities: 2, Relations: 1, Mentions: 2},
		degrees: map[string]int{"goat": 1, "orphan": 0},
		relations: []common.Relation{
			{ID: 1, Head: "goat", Type: "is_a", Tail: "GOAT", Chunks: []string{"c1"}},
		},
	}
	report, err := NewInspector(st).Inspect(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}

	if len(report.Issues) != 2 {
		t.Errorf("issues = %v, want isolated + self-loop", report.Issues)
	}
	if report.RelationTypes != 1 {
		t.Errorf("relation types = %d, want 1", report.RelationTypes)
	}
	if report.Grade != "C" && report.Grade != "D" {
		t.Errorf("grade = %s for a weak graph", report.Grade)
	}
}

func TestInspectCaseDuplicateRelations(t *testing.T) {
	st := &fakeStore{
		stats:   store.GraphStats{Chunks: 1, Entities: 3, Relations: 3, Mentions: 3},
		degrees: map[string]int{"goat": 2, "ruminant": 2, "hay": 1},
		relations: []common.Relation{
			{ID: 1, Head: "goat", Type: "is_a", Tail: "ruminant", Chunks: []string{"c1"}},
			{ID: 2, Head: "Goat", Type: "IS_A", Tail: "Ruminant", Chunks: []string{"c1"}},
			{ID: 3, Head: "goat", Type: "eats", Tail: "hay", Chunks: []string{"c1"}},
		},
	}
	report, err := NewInspector(st).Inspect(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}

	found := false
	for _, issue := range report.Issues {
		if issue == "1 duplicate relations differing only in case" {
			found = true
		}
	}
	if !found {
		t.Errorf("issues = %v, want a case-duplicate entry", report.Issues)
	}
	if report.RelationTypes != 2 {
		t.Errorf("relation types = %d, want 2", report.RelationTypes)
	}
}

func TestInspectHealthyGraphGrade(t *testing.T) {
	degrees := map[string]int{}
	for i := 0; i < 20; i++ {
		degrees[string(rune('a'+i))] = 4
	}
	degrees["hub"] = 12

	st := &fakeStore{
		stats:   store.GraphStats{Chunks: 10, Entities: 21, Relations: 44, Mentions: 60},
		degrees: degrees,
	}
	report, err := NewInspector(st).Inspect(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if report.Score != 7 || report.Grade != "A+" {
		t.Errorf("score = %d grade = %s, want 7 A+", report.Score, report.Grade)
	}
}

func TestInspectEmptyGraph(t *testing.T) {
	report, err := NewInspector(&fakeStore{}).Inspect(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if report.EffectiveDensity != 0 || report.AvgDegree != 0 {
		t.Errorf("empty graph has nonzero density")
	}
	if report.Grade != "D" {
		t.Errorf("grade = %s, want D", report.Grade)
	}
}
