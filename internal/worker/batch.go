package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/llmmapper/internal/model"
	"github.com/ppiankov/llmmapper/internal/pipeline"
)

// Runner runs the extraction pipeline over one document
type Runner interface {
	Run(ctx context.Context, doc model.Document) (*pipeline.RunResult, error)
}

// Loader reads one input source into a document
type Loader interface {
	Load(ctx context.Context, source string) (model.Document, error)
}

// RunJob represents the extraction of one input source
type RunJob struct {
	Index  int
	Source string
	Loader Loader
	Runner Runner
}

// Execute loads the source and runs the pipeline over it
func (j *RunJob) Execute(ctx context.Context) Result {
	doc, err := j.Loader.Load(ctx, j.Source)
	if err != nil {
		return &FileResult{Index: j.Index, Source: j.Source, Error: err}
	}

	result, err := j.Runner.Run(ctx, doc)
	if err != nil {
		return &FileResult{Index: j.Index, Source: j.Source, Error: err}
	}

	return &FileResult{Index: j.Index, Source: j.Source, Result: result}
}

// FileResult represents the outcome for one input source
type FileResult struct {
	Index  int
	Source string
	Result *pipeline.RunResult
	Error  error
}

// GetError returns the error from the file result
func (r *FileResult) GetError() error {
	return r.Error
}

// BatchProcessor runs independent pipeline runs over several inputs concurrently
type BatchProcessor struct {
	loader      Loader
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(loader Loader, runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		loader:      loader,
		runner:      runner,
		concurrency: concurrency,
	}
}

// ProcessSources runs every source and returns the results in input order
func (b *BatchProcessor) ProcessSources(ctx context.Context, sources []string) []*FileResult {
	if len(sources) == 0 {
		return []*FileResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, source := range sources {
		pool.Submit(&RunJob{
			Index:  i,
			Source: source,
			Loader: b.loader,
			Runner: b.runner,
		})
	}

	results := pool.Wait()

	fileResults := make([]*FileResult, 0, len(sources))
	done := make(map[int]bool, len(results))
	for _, result := range results {
		fr := result.(*FileResult)
		done[fr.Index] = true
		fileResults = append(fileResults, fr)
	}

	// Inputs never started because the batch was cancelled still get a result
	for i, source := range sources {
		if done[i] {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = errors.New("input not processed")
		}
		fileResults = append(fileResults, &FileResult{
			Index:  i,
			Source: source,
			Error:  fmt.Errorf("not started: %w", err),
		})
	}

	sort.Slice(fileResults, func(i, j int) bool {
		return fileResults[i].Index < fileResults[j].Index
	})

	return fileResults
}

// ProcessFile reads sources from a list file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*FileResult, error) {
	sources, err := ReadSourcesFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	return b.ProcessSources(ctx, sources), nil
}

// ReadSourcesFromFile reads input paths or URLs from a file (one per line).
// Blank lines and # comments are skipped, duplicates dropped.
func ReadSourcesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return sources, nil
}
