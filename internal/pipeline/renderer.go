package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/llmmapper/internal/model"
	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Records"

// Renderer writes run results to disk and summarizes them for the terminal
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes records as a pretty-printed JSON array
func (r *Renderer) RenderJSON(records model.ResultSet, path string) error {
	if records == nil {
		records = model.ResultSet{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	data = append(data, '\n')

	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderXLSX writes records to a single-sheet workbook
func (r *Renderer) RenderXLSX(records model.ResultSet, path string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	headers := []string{"Release Date", "Season", "confidence"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(xlsxSheet, cell, h)
	}

	for i, rec := range records {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(xlsxSheet, cell, v)
		}

		write(1, cellValue(rec.ReleaseDate))
		write(2, cellValue(rec.Season))
		write(3, rec.Confidence)
	}

	_ = f.SetColWidth(xlsxSheet, "A", "A", 16) // release date
	_ = f.SetColWidth(xlsxSheet, "B", "B", 18) // season
	_ = f.SetColWidth(xlsxSheet, "C", "C", 12) // confidence

	if err := ensureDir(path); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// RenderSummary prints a short run summary
func (r *Renderer) RenderSummary(w io.Writer, stats model.RunStats) {
	_, _ = fmt.Fprintf(w, "\n📄 %s\n", stats.Source)
	_, _ = fmt.Fprintf(w, "   Run:      %s\n", stats.RunID)
	_, _ = fmt.Fprintf(w, "   Lines:    %d in %d chunks\n", stats.Lines, stats.Chunks)
	_, _ = fmt.Fprintf(w, "   Records:  %d\n", stats.Records)
	if stats.SkippedChunks > 0 {
		_, _ = fmt.Fprintf(w, "   ⚠️  Empty replies:   %d chunks skipped\n", stats.SkippedChunks)
	}
	if stats.FallbackChunks > 0 {
		_, _ = fmt.Fprintf(w, "   ⚠️  No JSON array:   %d chunks treated as []\n", stats.FallbackChunks)
	}
	_, _ = fmt.Fprintf(w, "   Duration: %s\n", stats.Duration.Round(time.Millisecond))
}

// cellValue renders a record field for a spreadsheet cell. Scalars are written as-is,
// arrays and objects as JSON text.
func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case string, bool, float64:
		return val
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
