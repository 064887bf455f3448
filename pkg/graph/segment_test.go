package graph

import (
	"errors"
	"strings"
	"testing"
)

func TestSegmentText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		window  int
		overlap int
		want    []string
	}{
		{
			name:    "shorter than window",
			text:    "tiny",
			window:  10,
			overlap: 2,
			want:    []string{"tiny"},
		},
		{
			name:    "exact window",
			text:    "abcdefghij",
			window:  10,
			overlap: 2,
			want:    []string{"abcdefghij"},
		},
		{
			name:    "overlapping windows",
			text:    "abcdefghij",
			window:  6,
			overlap: 2,
			want:    []string{"abcdef", "efghij"},
		},
		{
			name:    "short tail",
			text:    "abcdefghijk",
			window:  6,
			overlap: 2,
			want:    []string{"abcdef", "efghij", "ijk"},
		},
		{
			name:    "empty text",
			text:    "",
			window:  6,
			overlap: 2,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SegmentText(tt.text, tt.window, tt.overlap)
			if err != nil {
				t.Fatalf("SegmentText() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("SegmentText() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("span %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSegmentTextInvalidParams(t *testing.T) {
	tests := []struct {
		name    string
		window  int
		overlap int
	}{
		{name: "overlap equals window", window: 10, overlap: 10},
		{name: "overlap exceeds window", window: 10, overlap: 12},
		{name: "zero window", window: 0, overlap: 0},
		{name: "negative overlap", window: 10, overlap: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SegmentText("some text", tt.window, tt.overlap)
			if !errors.Is(err, ErrInvalidSegmentParams) {
				t.Errorf("SegmentText() error = %v, want ErrInvalidSegmentParams", err)
			}
		})
	}
}

func TestSegmentTextCoverage(t *testing.T) {
	text := strings.Repeat("abcdefghij", 37)
	window, overlap := 64, 16
	stride := window - overlap

	spans, err := SegmentText(text, window, overlap)
	if err != nil {
		t.Fatalf("SegmentText() error = %v", err)
	}

	wantCount := (len(text) - overlap + stride - 1) / stride
	if len(spans) != wantCount {
		t.Errorf("span count = %d, want %d", len(spans), wantCount)
	}

	// Dropping each span's leading overlap reconstructs the input.
	var rebuilt strings.Builder
	rebuilt.WriteString(spans[0])
	for _, span := range spans[1:] {
		rebuilt.WriteString(span[overlap:])
	}
	if rebuilt.String() != text {
		t.Error("concatenated spans do not reconstruct the input")
	}
}

func TestBuildChunks(t *testing.T) {
	text := strings.Repeat("x", 20)

	chunks, err := BuildChunks("demo", "demo.txt", text, 8, 2)
	if err != nil {
		t.Fatalf("BuildChunks() error = %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("chunk count = %d, want 3", len(chunks))
	}

	if chunks[0].ID != "demo_chunk_00000" {
		t.Errorf("first chunk ID = %q", chunks[0].ID)
	}
	if chunks[2].ID != "demo_chunk_00002" {
		t.Errorf("last chunk ID = %q", chunks[2].ID)
	}

	for i, c := range chunks {
		if c.Ordinal != i {
			t.Errorf("chunk %d ordinal = %d", i, c.Ordinal)
		}
		if c.Hash != HashText(c.Text) {
			t.Errorf("chunk %d hash mismatch", i)
		}
	}

	again, err := BuildChunks("demo", "demo.txt", text, 8, 2)
	if err != nil {
		t.Fatalf("BuildChunks() error = %v", err)
	}
	for i := range chunks {
		if chunks[i] != again[i] {
			t.Errorf("chunk %d not stable across runs", i)
		}
	}
}
