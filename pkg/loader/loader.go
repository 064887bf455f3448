package loader

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// CorpusLoader reads the raw text of a corpus source.
type CorpusLoader interface {
	GetText(ctx context.Context) ([]byte, error)
}

// Load resolves a source reference to its text. file paths are read from the
// local filesystem, http(s) URLs are fetched and reduced to readable text,
// and s3:// URIs are read from object storage.
func Load(ctx context.Context, source string) (string, error) {
	var l CorpusLoader

	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		l = NewWebLoader(source)
	case strings.HasPrefix(source, "s3://"):
		s3Loader, err := NewS3LoaderFromURI(ctx, source)
		if err != nil {
			return "", err
		}
		l = s3Loader
	default:
		l = NewFileLoader(source)
	}

	text, err := l.GetText(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", source, err)
	}
	return string(text), nil
}

// FileLoader reads a corpus from the local filesystem.
type FileLoader struct {
	path string
}

// NewFileLoader creates a loader for a local plain-text file.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// GetText reads the whole file.
func (l *FileLoader) GetText(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(l.path)
}
