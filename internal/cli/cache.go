package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/llmmapper/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the model reply cache",
	Long: `Manage the on-disk cache of model replies (cache.dir).

Replies are cached only when cache.enabled is set or --cache is passed.`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached model replies",
	Long:  `Remove every cached reply under cache.dir so the next run calls the model again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		if err := newReplyCache(cfg).Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}

		fmt.Fprintf(os.Stderr, "✓ Cleared reply cache: %s\n", util.ExpandPath(cfg.Cache.Dir))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
