package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ppiankov/llmmapper/internal/extract"
	"github.com/ppiankov/llmmapper/internal/llm"
	"github.com/ppiankov/llmmapper/internal/model"
)

// scriptedProvider returns one scripted reply or error per call, in order
type scriptedProvider struct {
	mu      sync.Mutex
	replies []string
	errs    map[int]error // keyed by 1-based call number
	prompts []string
}

func (p *scriptedProvider) Name() string { return "mock" }

func (p *scriptedProvider) Complete(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prompts = append(p.prompts, prompt)
	call := len(p.prompts)
	if err, ok := p.errs[call]; ok {
		return "", err
	}
	if call > len(p.replies) {
		return "[]", nil
	}
	return p.replies[call-1], nil
}

func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

func testConfig(chunkSize int) *model.Config {
	cfg := model.DefaultConfig()
	cfg.Input.ChunkSize = chunkSize
	return cfg
}

func lines(n int) model.Document {
	text := make([]string, n)
	for i := range text {
		text[i] = fmt.Sprintf("row %d | In DC Date 2025-09-%02d | Cost Folio Season FALL 2025", i+1, i%28+1)
	}
	return model.NewDocument("test", strings.Join(text, "\n"))
}

const twoRecords = `[{"Release Date":"2025-09-12","Season":"SPRING 2025"},{"Release Date":"2025-10-01","Season":"FALL 2025"}]`

func TestRun_FortyFiveLines(t *testing.T) {
	provider := &scriptedProvider{replies: []string{twoRecords, twoRecords, ""}}
	p := NewPipeline(testConfig(20), provider)

	result, err := p.Run(context.Background(), lines(45))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if provider.calls() != 3 {
		t.Errorf("expected 3 model calls, got %d", provider.calls())
	}
	if len(result.Records) != 4 {
		t.Errorf("expected 4 records, got %d", len(result.Records))
	}
	if result.Stats.Chunks != 3 || result.Stats.SkippedChunks != 1 || result.Stats.Records != 4 {
		t.Errorf("unexpected stats: %+v", result.Stats)
	}
	if result.Stats.RunID == "" {
		t.Error("expected run id")
	}

	// Last chunk carries the 5 remaining lines
	if n := strings.Count(provider.prompts[2], "row "); n != 5 {
		t.Errorf("expected 5 lines in the last prompt, got %d", n)
	}
}

func TestRun_PreservesOrder(t *testing.T) {
	provider := &scriptedProvider{replies: []string{
		`[{"Season":"A"},{"Season":"B"}]`,
		`Here you go: [{"Season":"C"}]`,
	}}
	p := NewPipeline(testConfig(2), provider)

	result, err := p.Run(context.Background(), lines(4))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var got []string
	for _, r := range result.Records {
		got = append(got, r.Season.(string))
	}
	if strings.Join(got, ",") != "A,B,C" {
		t.Errorf("expected A,B,C, got %v", got)
	}
}

func TestRun_FallbackIsNotFatal(t *testing.T) {
	provider := &scriptedProvider{replies: []string{
		"I could not find any records.",
		`[{"Season":"FALL 2025"}]`,
	}}
	p := NewPipeline(testConfig(1), provider)

	result, err := p.Run(context.Background(), lines(2))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Records) != 1 {
		t.Errorf("expected 1 record, got %d", len(result.Records))
	}
	if result.Stats.FallbackChunks != 1 {
		t.Errorf("expected 1 fallback chunk, got %d", result.Stats.FallbackChunks)
	}
}

func TestRun_UpstreamErrorAborts(t *testing.T) {
	upstream := &llm.UpstreamError{Provider: "mock", StatusCode: 500, Body: "boom"}
	provider := &scriptedProvider{
		replies: []string{twoRecords, twoRecords, twoRecords},
		errs:    map[int]error{2: upstream},
	}
	p := NewPipeline(testConfig(20), provider)

	result, err := p.Run(context.Background(), lines(45))
	if result != nil {
		t.Error("expected no result on fatal error")
	}

	var chunkErr *ChunkError
	if !errors.As(err, &chunkErr) {
		t.Fatalf("expected *ChunkError, got %T: %v", err, err)
	}
	if chunkErr.Index != 2 {
		t.Errorf("expected failure at chunk 2, got %d", chunkErr.Index)
	}

	var upstreamErr *llm.UpstreamError
	if !errors.As(err, &upstreamErr) || upstreamErr.StatusCode != 500 {
		t.Errorf("expected wrapped *llm.UpstreamError, got %v", err)
	}

	if provider.calls() != 2 {
		t.Errorf("expected chunk 3 never requested, got %d calls", provider.calls())
	}
}

func TestRun_TransportAndMalformedAbort(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"transport", &llm.TransportError{Provider: "mock", Err: context.DeadlineExceeded}},
		{"malformed", &llm.MalformedResponseError{Provider: "mock", Reason: "no choices in response"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &scriptedProvider{errs: map[int]error{1: tt.err}}
			p := NewPipeline(testConfig(20), provider)

			_, err := p.Run(context.Background(), lines(30))
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if provider.calls() != 1 {
				t.Errorf("expected 1 call, got %d", provider.calls())
			}
		})
	}
}

func TestRun_ParseErrorAborts(t *testing.T) {
	reply := `Records: [{"Season": "FALL 2025",}]`
	provider := &scriptedProvider{replies: []string{twoRecords, reply}}
	p := NewPipeline(testConfig(1), provider)

	_, err := p.Run(context.Background(), lines(3))

	var chunkErr *ChunkError
	if !errors.As(err, &chunkErr) {
		t.Fatalf("expected *ChunkError, got %T: %v", err, err)
	}
	if chunkErr.Index != 2 || chunkErr.Reply != reply {
		t.Errorf("unexpected chunk error: index=%d reply=%q", chunkErr.Index, chunkErr.Reply)
	}

	var parseErr *extract.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected wrapped *extract.ParseError, got %v", err)
	}
	if provider.calls() != 2 {
		t.Errorf("expected 2 calls, got %d", provider.calls())
	}
}

func TestRun_EmptyDocument(t *testing.T) {
	provider := &scriptedProvider{}
	p := NewPipeline(testConfig(20), provider)

	result, err := p.Run(context.Background(), model.NewDocument("empty", ""))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if provider.calls() != 0 {
		t.Errorf("expected no model calls, got %d", provider.calls())
	}
	if result.Records == nil || len(result.Records) != 0 {
		t.Errorf("expected empty non-nil records, got %#v", result.Records)
	}
}

func TestRun_PromptOverride(t *testing.T) {
	provider := &scriptedProvider{}
	cfg := testConfig(20)
	cfg.LLM.Prompt = "custom prompt"

	if _, err := NewPipeline(cfg, provider).Run(context.Background(), lines(25)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i, prompt := range provider.prompts {
		if prompt != "custom prompt" {
			t.Errorf("call %d: expected override, got %q", i+1, prompt)
		}
	}
}

func TestRun_GeneratedPromptCarriesChunk(t *testing.T) {
	provider := &scriptedProvider{}
	doc := lines(3)

	if _, err := NewPipeline(testConfig(20), provider).Run(context.Background(), doc); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if provider.prompts[0] != llm.BuildPrompt(strings.Join(doc.Lines, "\n")) {
		t.Error("expected generated prompt built from the chunk text")
	}
}

func TestRun_DefaultChunkSize(t *testing.T) {
	provider := &scriptedProvider{}

	result, err := NewPipeline(testConfig(0), provider).Run(context.Background(), lines(41))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Stats.Chunks != 3 || provider.calls() != 3 {
		t.Errorf("expected 3 chunks of default size, got %d chunks and %d calls", result.Stats.Chunks, provider.calls())
	}
}

func TestRun_CancelledContext(t *testing.T) {
	provider := &scriptedProvider{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(testConfig(20), provider).Run(ctx, lines(5))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if provider.calls() != 0 {
		t.Errorf("expected no calls, got %d", provider.calls())
	}
}

func TestRun_ConfidenceFromNormalizer(t *testing.T) {
	provider := &scriptedProvider{replies: []string{twoRecords}}
	normalizer := extract.NewNormalizerWithRand(func() float64 { return 0 })

	result, err := NewPipelineWithNormalizer(testConfig(20), provider, normalizer).Run(context.Background(), lines(2))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, r := range result.Records {
		if r.Confidence != 0.9 {
			t.Errorf("expected confidence 0.9, got %v", r.Confidence)
		}
	}
}
