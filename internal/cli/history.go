package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/llmmapper/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded extraction runs",
	Long: `History lists runs recorded in the store (store.path or --store).
With a run id, it prints that run's records as a JSON array.

Example:
  llmmapper history --store ~/.llmmapper/runs.db
  llmmapper history 3f2a6c1e-... --store ~/.llmmapper/runs.db > records.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		if cfg.Store.Path == "" {
			return fmt.Errorf("no run store configured (config key store.path, flag --store)")
		}

		s, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		if len(args) == 1 {
			records, err := s.RunRecords(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal records: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		runs, err := s.ListRuns(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs recorded")
			return nil
		}

		fmt.Printf("%-36s  %-20s  %7s  %7s  %s\n", "RUN", "STARTED", "CHUNKS", "RECORDS", "SOURCE")
		for _, run := range runs {
			fmt.Printf("%-36s  %-20s  %7d  %7d  %s\n",
				run.RunID, run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Chunks, run.Records, run.Source)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to list")
}
