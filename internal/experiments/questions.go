package experiments

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Question is one evaluation item: the question text and an optional
// reference answer for overlap scoring.
type Question struct {
	ID        string
	Text      string
	Reference string
}

// LoadQuestions reads an evaluation question set from a CSV file with columns
// question[,reference]. A header row is detected and skipped.
func LoadQuestions(path string) ([]Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse question csv: %w", err)
	}

	questions := make([]Question, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "question") {
			continue
		}

		q := Question{
			ID:   fmt.Sprintf("q%03d", len(questions)+1),
			Text: strings.TrimSpace(row[0]),
		}
		if len(row) > 1 {
			q.Reference = strings.TrimSpace(row[1])
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions in %s", path)
	}
	return questions, nil
}
