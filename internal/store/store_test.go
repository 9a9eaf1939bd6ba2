package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/llmmapper/internal/model"
)

// newTestStore creates a file-backed store in a temp dir
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleStats(id string, started time.Time) model.RunStats {
	return model.RunStats{
		RunID:          id,
		Source:         "buysheet.txt",
		Lines:          45,
		Chunks:         3,
		SkippedChunks:  1,
		FallbackChunks: 0,
		StartedAt:      started,
		FinishedAt:     started.Add(1500 * time.Millisecond),
		Duration:       1500 * time.Millisecond,
	}
}

func TestOpen_CreatesTables(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"runs", "records"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	if err := s.SaveRun(ctx, sampleStats("run-mem", time.Now()), model.ResultSet{{Confidence: 0.9}}); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	runs, err := s.ListRuns(ctx, 10)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d (%v)", len(runs), err)
	}
}

func TestSaveRun_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := model.ResultSet{
		{ReleaseDate: "2025-09-12", Season: "SPRING 2025", Confidence: 0.91},
		{ReleaseDate: nil, Season: json.Number("2025"), Confidence: 0.94},
		{ReleaseDate: "TBD", Season: []any{"FALL", "2025"}, Confidence: 0.9},
	}
	started := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

	if err := s.SaveRun(ctx, sampleStats("run-1", started), records); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := s.RunRecords(ctx, "run-1")
	if err != nil {
		t.Fatalf("RunRecords failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}

	want, _ := json.Marshal(records)
	have, _ := json.Marshal(got)
	if string(want) != string(have) {
		t.Errorf("records changed in storage:\nwant %s\ngot  %s", want, have)
	}

	runs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.RunID != "run-1" || run.Records != 3 || run.SkippedChunks != 1 || run.Lines != 45 {
		t.Errorf("unexpected run: %+v", run)
	}
	if !run.StartedAt.Equal(started) || run.Duration != 1500*time.Millisecond {
		t.Errorf("unexpected timing: %v %v", run.StartedAt, run.Duration)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		if err := s.SaveRun(ctx, sampleStats(id, base.Add(time.Duration(i)*time.Hour)), nil); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "new" || runs[1].RunID != "mid" {
		t.Errorf("unexpected order: %+v", runs)
	}
}

func TestSaveRun_DuplicateRunID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveRun(ctx, sampleStats("dup", time.Now()), nil); err != nil {
		t.Fatalf("first SaveRun failed: %v", err)
	}
	if err := s.SaveRun(ctx, sampleStats("dup", time.Now()), nil); err == nil {
		t.Error("expected error for duplicate run id")
	}
}

func TestRunRecords_UnknownRun(t *testing.T) {
	s := newTestStore(t)

	records, err := s.RunRecords(context.Background(), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if records != nil {
		t.Errorf("expected no records, got %v", records)
	}
}

func TestRunRecords_RunWithoutRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveRun(ctx, sampleStats("empty-run", time.Now()), model.ResultSet{}); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	records, err := s.RunRecords(ctx, "empty-run")
	if err != nil {
		t.Fatalf("RunRecords failed: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", records)
	}
}
