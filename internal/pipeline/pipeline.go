package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/llmmapper/internal/extract"
	"github.com/ppiankov/llmmapper/internal/llm"
	"github.com/ppiankov/llmmapper/internal/model"
	"go.uber.org/zap"
)

// Pipeline turns buysheet documents into records, one model call per chunk.
// A Pipeline holds no per-run state and may serve several runs at once.
type Pipeline struct {
	provider       llm.Provider
	normalizer     *extract.Normalizer
	chunkSize      int
	promptOverride string
}

// NewPipeline creates a new pipeline calling the given provider
func NewPipeline(cfg *model.Config, provider llm.Provider) *Pipeline {
	return NewPipelineWithNormalizer(cfg, provider, extract.NewNormalizer())
}

// NewPipelineWithNormalizer creates a pipeline with a caller-supplied normalizer
func NewPipelineWithNormalizer(cfg *model.Config, provider llm.Provider, normalizer *extract.Normalizer) *Pipeline {
	chunkSize := cfg.Input.ChunkSize
	if chunkSize <= 0 {
		chunkSize = model.DefaultChunkSize
	}

	return &Pipeline{
		provider:       provider,
		normalizer:     normalizer,
		chunkSize:      chunkSize,
		promptOverride: cfg.LLM.Prompt,
	}
}

// RunResult contains the records of one completed run
type RunResult struct {
	Records model.ResultSet
	Stats   model.RunStats
}

// ChunkError reports a fatal failure while processing one chunk.
// Reply is empty when the model call itself failed.
type ChunkError struct {
	Index int
	Reply string
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d: %v", e.Index, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

type chunkOutcome int

const (
	chunkParsed chunkOutcome = iota
	chunkSkipped
	chunkFallback
)

// Run processes the document chunk by chunk, in order. Blank replies and replies
// without a JSON array contribute no records. Model and parse failures abort the
// run and no records are returned.
func (p *Pipeline) Run(ctx context.Context, doc model.Document) (*RunResult, error) {
	stats := model.RunStats{
		RunID:     uuid.NewString(),
		Source:    doc.Source,
		Lines:     len(doc.Lines),
		StartedAt: time.Now().UTC(),
	}

	chunks := doc.Chunks(p.chunkSize)
	stats.Chunks = len(chunks)

	log := zap.L().With(zap.String("run_id", stats.RunID), zap.String("source", doc.Source))
	log.Info("pipeline: run started",
		zap.String("provider", p.provider.Name()),
		zap.Int("lines", stats.Lines),
		zap.Int("chunks", stats.Chunks),
		zap.Int("chunk_size", p.chunkSize),
	)

	records := make(model.ResultSet, 0)
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, &ChunkError{Index: chunk.Index, Err: err}
		}

		chunkRecords, outcome, err := p.processChunk(ctx, log, chunk)
		if err != nil {
			log.Error("pipeline: run aborted", zap.Int("chunk", chunk.Index), zap.Error(err))
			return nil, err
		}

		switch outcome {
		case chunkSkipped:
			stats.SkippedChunks++
		case chunkFallback:
			stats.FallbackChunks++
		}
		records = append(records, chunkRecords...)
	}

	stats.Records = len(records)
	stats.FinishedAt = time.Now().UTC()
	stats.Duration = stats.FinishedAt.Sub(stats.StartedAt)

	log.Info("pipeline: run finished",
		zap.Int("records", stats.Records),
		zap.Int("skipped_chunks", stats.SkippedChunks),
		zap.Int("fallback_chunks", stats.FallbackChunks),
		zap.Duration("duration", stats.Duration),
	)

	return &RunResult{Records: records, Stats: stats}, nil
}

// processChunk runs one chunk through prompt, model, extraction and normalization
func (p *Pipeline) processChunk(ctx context.Context, log *zap.Logger, chunk model.Chunk) ([]model.Record, chunkOutcome, error) {
	start := time.Now()
	prompt := llm.EffectivePrompt(p.promptOverride, chunk.Text())

	reply, err := p.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, chunkParsed, &ChunkError{Index: chunk.Index, Err: err}
	}

	if isBlank(reply) {
		log.Warn("pipeline: empty reply, chunk skipped", zap.Int("chunk", chunk.Index))
		return nil, chunkSkipped, nil
	}

	text, fallback := extract.ExtractArray(reply)
	outcome := chunkParsed
	if fallback {
		log.Warn("pipeline: no JSON array in reply, using fallback",
			zap.Int("chunk", chunk.Index),
			zap.String("reply", reply),
		)
		outcome = chunkFallback
	}

	records, err := p.normalizer.Normalize(text)
	if err != nil {
		log.Error("pipeline: failed to parse JSON for chunk",
			zap.Int("chunk", chunk.Index),
			zap.String("reply", reply),
			zap.Error(err),
		)
		return nil, outcome, &ChunkError{Index: chunk.Index, Reply: reply, Err: err}
	}

	log.Info("pipeline: chunk done",
		zap.Int("chunk", chunk.Index),
		zap.Int("lines", len(chunk.Lines)),
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return records, outcome, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
