package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/ppiankov/llmmapper/internal/model"
	"github.com/ppiankov/llmmapper/internal/pipeline"
	"github.com/ppiankov/llmmapper/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [input]",
	Short: "Extract records from one buysheet",
	Long: `Extract reads buysheet text, sends it to the model in chunks of lines and
writes the normalized records as a JSON array.

Input is a file path, "-" for stdin, or an http(s) URL. HTML pages are
flattened to one line per table row before chunking. When no argument is
given, input.path from the configuration is used.

A model or parse failure on any chunk stops the run; no output is written.

Example:
  llmmapper extract buysheet.txt
  llmmapper extract buysheet.txt -o records.json --xlsx records.xlsx
  cat buysheet.txt | llmmapper extract - --chunk-size 10
  llmmapper extract https://intranet.example.com/buysheet.html --provider ollama --model llama3.1:8b`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	// Output flags
	extractCmd.Flags().StringP("output", "o", "output.json", "output JSON path")
	extractCmd.Flags().String("xlsx", "", "also write records to this XLSX workbook")

	_ = viper.BindPFlag("output.path", extractCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("output.xlsx", extractCmd.Flags().Lookup("xlsx"))
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Input.Path = args[0]
	}
	if cfg.Input.Path == "" {
		return fmt.Errorf("no input: pass a file path, \"-\" for stdin, or a URL")
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Input:      %s\n", cfg.Input.Path)
		fmt.Fprintf(os.Stderr, "Provider:   %s\n", cfg.LLM.Provider)
		fmt.Fprintf(os.Stderr, "Chunk size: %d\n", cfg.Input.ChunkSize)
		fmt.Fprintf(os.Stderr, "Cache:      %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return fmt.Errorf("init provider: %w", err)
	}

	reader := pipeline.NewSourceReader(pipeline.NewFetcher(cfg.HTTP))
	doc, err := reader.Load(ctx, cfg.Input.Path)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Read %d lines from %s\n", len(doc.Lines), doc.Source)

	p := pipeline.NewPipeline(cfg, provider)
	result, err := p.Run(ctx, doc)
	if err != nil {
		reportRunError(err, cfg.Output.Verbose)
		return fmt.Errorf("extraction failed: %w", err)
	}

	return writeOutputs(ctx, cfg, result)
}

// writeOutputs renders a finished run and records it in the history store
func writeOutputs(ctx context.Context, cfg *model.Config, result *pipeline.RunResult) error {
	renderer := pipeline.NewRenderer()

	if err := renderer.RenderJSON(result.Records, cfg.Output.Path); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", cfg.Output.Path)

	if cfg.Output.XLSX != "" {
		if err := renderer.RenderXLSX(result.Records, cfg.Output.XLSX); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote XLSX: %s\n", cfg.Output.XLSX)
	}

	if cfg.Store.Path != "" {
		if err := saveRun(ctx, cfg.Store.Path, result); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to record run history: %v\n", err)
		} else if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Recorded run %s in %s\n", result.Stats.RunID, cfg.Store.Path)
		}
	}

	renderer.RenderSummary(os.Stderr, result.Stats)
	return nil
}

func saveRun(ctx context.Context, path string, result *pipeline.RunResult) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	return s.SaveRun(ctx, result.Stats, result.Records)
}

// reportRunError prints which chunk failed and, when verbose, the reply that broke it
func reportRunError(err error, verbose bool) {
	var chunkErr *pipeline.ChunkError
	if !errors.As(err, &chunkErr) {
		return
	}
	fmt.Fprintf(os.Stderr, "✗ Chunk %d failed: %v\n", chunkErr.Index, chunkErr.Err)
	if verbose && chunkErr.Reply != "" {
		fmt.Fprintf(os.Stderr, "\nModel reply:\n%s\n\n", chunkErr.Reply)
	}
}
