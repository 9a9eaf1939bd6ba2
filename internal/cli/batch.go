package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/llmmapper/internal/pipeline"
	"github.com/ppiankov/llmmapper/internal/store"
	"github.com/ppiankov/llmmapper/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	outputDir    string
	batchTimeout time.Duration
	batchXLSX    bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Extract records from several buysheets",
	Long: `Batch runs extraction over every input listed in a file:
- One input per line (file path or http(s) URL); blank lines and # comments are skipped
- Inputs run in parallel with a configurable worker count
- Chunks within one input are still processed strictly in order
- Each input gets its own JSON (and optionally XLSX) file in the output directory

A failed input does not stop the others.

Example:
  llmmapper batch sheets.txt
  llmmapper batch sheets.txt --concurrency 4 --output-dir ./records
  llmmapper batch sheets.txt --rps 2 --cache`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("concurrency", 1, "number of inputs processed at once")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./llmmapper-output", "output directory for record files")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchXLSX, "xlsx", false, "also write an XLSX workbook per input")

	_ = viper.BindPFlag("concurrency.workers", batchCmd.Flags().Lookup("concurrency"))
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  llmmapper Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Provider:     %s\n", cfg.LLM.Provider)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return fmt.Errorf("init provider: %w", err)
	}

	p := pipeline.NewPipeline(cfg, provider)
	reader := pipeline.NewSourceReader(pipeline.NewFetcher(cfg.HTTP))
	processor := worker.NewBatchProcessor(reader, p, cfg.Concurrency.Workers)

	fmt.Fprintf(os.Stderr, "⚙️  Processing inputs with %d workers...\n\n", cfg.Concurrency.Workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	var history *store.Store
	if cfg.Store.Path != "" {
		history, err = store.Open(cfg.Store.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: run history disabled: %v\n", err)
		} else {
			defer func() { _ = history.Close() }()
		}
	}

	renderer := pipeline.NewRenderer()
	successCount := 0
	failureCount := 0
	totalRecords := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Source, result.Error)
			continue
		}

		base := fmt.Sprintf("%03d-%s", result.Index+1, sanitizeFilename(result.Source))
		jsonPath := filepath.Join(outputDir, base+".json")

		if err := renderer.RenderJSON(result.Result.Records, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Source, err)
			continue
		}
		if batchXLSX {
			if err := renderer.RenderXLSX(result.Result.Records, filepath.Join(outputDir, base+".xlsx")); err != nil {
				failureCount++
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write XLSX: %v\n", result.Source, err)
				continue
			}
		}
		if history != nil {
			if err := history.SaveRun(ctx, result.Result.Stats, result.Result.Records); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %s: failed to record run: %v\n", result.Source, err)
			}
		}

		successCount++
		totalRecords += len(result.Result.Records)
		fmt.Fprintf(os.Stderr, "✓ %s (%d records) → %s\n", result.Source, len(result.Result.Records), jsonPath)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d inputs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Records:   %d\n", totalRecords)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d inputs failed", failureCount, len(results))
	}
	return nil
}

// sanitizeFilename turns an input path or URL into a file name stem
func sanitizeFilename(source string) string {
	s := source
	if pipeline.IsURL(s) {
		s = s[strings.Index(s, "://")+3:]
	} else {
		s = filepath.Base(s)
		s = strings.TrimSuffix(s, filepath.Ext(s))
	}

	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		"&", "_",
		"=", "_",
		" ", "-",
	)
	s = strings.Trim(replacer.Replace(s), "_-.")

	if s == "" {
		s = "input"
	}

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}
