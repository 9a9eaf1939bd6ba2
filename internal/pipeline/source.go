package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/llmmapper/internal/model"
)

// StdinSource is the input path that reads from standard input
const StdinSource = "-"

// SourceReader loads documents from files, stdin or URLs
type SourceReader struct {
	fetcher *Fetcher
	stdin   io.Reader
}

// NewSourceReader creates a reader that fetches URLs with fetcher
func NewSourceReader(fetcher *Fetcher) *SourceReader {
	return &SourceReader{
		fetcher: fetcher,
		stdin:   os.Stdin,
	}
}

// WithStdin replaces the reader used for "-"
func (r *SourceReader) WithStdin(stdin io.Reader) *SourceReader {
	r.stdin = stdin
	return r
}

// Load reads source and splits it into lines
func (r *SourceReader) Load(ctx context.Context, source string) (model.Document, error) {
	switch {
	case source == "":
		return model.Document{}, fmt.Errorf("no input given")

	case source == StdinSource:
		data, err := io.ReadAll(r.stdin)
		if err != nil {
			return model.Document{}, fmt.Errorf("read stdin: %w", err)
		}
		return model.NewDocument("stdin", string(data)), nil

	case IsURL(source):
		result, err := r.fetcher.Fetch(ctx, source)
		if err != nil {
			return model.Document{}, fmt.Errorf("fetch %s: %w", source, err)
		}
		return model.NewDocument(result.FinalURL, result.Text), nil

	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return model.Document{}, fmt.Errorf("read input: %w", err)
		}
		return model.NewDocument(source, string(data)), nil
	}
}

// IsURL reports whether source should be fetched over HTTP
func IsURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
