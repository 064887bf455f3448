package experiments

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ExportCells writes aggregated grid results as a timestamped CSV under dir
// and returns the file path.
func ExportCells(dir string, cells []CellResult) (string, error) {
	if len(cells) == 0 {
		return "", fmt.Errorf("no results to export")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf(
		"retrieval_%s_%s.csv",
		cells[0].RunID,
		time.Now().Format("20060102_150405"),
	))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"run_id", "dataset", "hop_depth", "top_k", "questions",
		"avg_f1", "avg_similarity", "exact_matches", "effective_rate",
		"avg_chunks", "avg_latency_ms", "total_tokens",
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, c := range cells {
		row := []string{
			c.RunID,
			c.Dataset,
			strconv.Itoa(c.HopDepth),
			strconv.Itoa(c.TopK),
			strconv.Itoa(c.Questions),
			formatFloat(c.AvgF1),
			formatFloat(c.AvgSimilarity),
			strconv.Itoa(c.ExactMatches),
			formatFloat(c.EffectiveRate),
			formatFloat(c.AvgChunks),
			formatFloat(c.AvgLatencyMs),
			strconv.Itoa(c.TotalTokens),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}

// ExportAnswers writes per-question answer records as JSON lines next to the
// aggregated CSV and returns the file path.
func ExportAnswers(dir string, records []AnswerRecord) (string, error) {
	if len(records) == 0 {
		return "", fmt.Errorf("no records to export")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf(
		"answers_%s_%s.jsonl",
		records[0].RunID,
		time.Now().Format("20060102_150405"),
	))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return "", err
		}
	}
	return path, nil
}

// ExportIndexing writes indexing-grid results as a timestamped CSV under dir
// and returns the file path.
func ExportIndexing(dir string, results []IndexingResult) (string, error) {
	if len(results) == 0 {
		return "", fmt.Errorf("no results to export")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf(
		"indexing_%s_%s.csv",
		results[0].RunID,
		time.Now().Format("20060102_150405"),
	))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"run_id", "dataset", "window", "overlap",
		"chunks", "chunks_failed", "entities", "relations",
		"density", "avg_degree", "grade", "build_duration_ms", "total_tokens",
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, r := range results {
		row := []string{
			r.RunID,
			r.Dataset,
			strconv.Itoa(r.Window),
			strconv.Itoa(r.Overlap),
			strconv.Itoa(r.Chunks),
			strconv.Itoa(r.ChunksFailed),
			strconv.Itoa(r.Entities),
			strconv.Itoa(r.Relations),
			formatFloat(r.Density),
			formatFloat(r.AvgDegree),
			r.Grade,
			strconv.FormatInt(r.BuildDuration, 10),
			strconv.Itoa(r.TotalTokens),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
