package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/llmmapper/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage llmmapper configuration",
	Long: `Manage llmmapper configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (LLMMAPPER_*, AZURE_OPENAI_*, OPENAI_API_KEY, OLLAMA_BASE_URL)
3. Config file (~/.llmmapper/config.yaml)
4. Defaults

A .env file in the working directory is loaded into the environment first.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, config file, environment and flags. The API key is redacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		configFile := viper.ConfigFileUsed()
		if configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("  Current Configuration")
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()

		yamlData, err := yaml.Marshal(redactConfig(cfg))
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		fmt.Println(string(yamlData))

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()
		fmt.Println("Configuration hierarchy (highest to lowest priority):")
		fmt.Println("  1. CLI flags")
		fmt.Println("  2. Environment variables (LLMMAPPER_*, AZURE_OPENAI_*, OPENAI_API_KEY, OLLAMA_BASE_URL)")
		fmt.Println("  3. Config file (~/.llmmapper/config.yaml)")
		fmt.Println("  4. Defaults")
		fmt.Println()

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.llmmapper/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configDir := home + "/.llmmapper"
		configPath := configDir + "/config.yaml"

		// Check if config already exists
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'llmmapper config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		f, err := os.Create(configPath)
		if err != nil {
			return fmt.Errorf("error creating config file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close config file: %w", closeErr)
			}
		}()

		if err := writeDefaultConfig(f); err != nil {
			return err
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  llmmapper config show\n")
		fmt.Printf("\nTo customize, edit the file with your preferred editor:\n")
		fmt.Printf("  $EDITOR %s\n", configPath)
		fmt.Printf("\n")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// writeDefaultConfig writes the default configuration as commented YAML
func writeDefaultConfig(f *os.File) (err error) {
	// Helper for writing with error checking
	printf := func(format string, a ...interface{}) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(f, format, a...)
	}

	printf("# llmmapper configuration file\n")
	printf("#\n")
	printf("# Configuration hierarchy (highest to lowest priority):\n")
	printf("#   1. CLI flags\n")
	printf("#   2. Environment variables (LLMMAPPER_*, e.g. LLMMAPPER_INPUT_CHUNK_SIZE)\n")
	printf("#   3. This config file\n")
	printf("#   4. Built-in defaults\n\n")

	yamlData, mErr := yaml.Marshal(model.DefaultConfig())
	if mErr != nil {
		return fmt.Errorf("error marshaling config: %w", mErr)
	}
	printf("%s", yamlData)

	printf("\n# Credentials (recommended to use environment variables or .env instead):\n")
	printf("#   export AZURE_OPENAI_ENDPOINT=https://my-resource.openai.azure.com\n")
	printf("#   export AZURE_OPENAI_DEPLOYMENT=gpt-4o-mini\n")
	printf("#   export AZURE_OPENAI_API_KEY=...\n")
	printf("#   export OPENAI_API_KEY=sk-...\n")
	printf("#   export OLLAMA_BASE_URL=http://localhost:11434\n")

	if err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	return nil
}

// redactConfig returns a copy of cfg that is safe to print
func redactConfig(cfg *model.Config) *model.Config {
	redacted := *cfg
	if key := redacted.LLM.APIKey; key != "" {
		if len(key) > 8 {
			redacted.LLM.APIKey = key[:4] + strings.Repeat("*", 8)
		} else {
			redacted.LLM.APIKey = strings.Repeat("*", 8)
		}
	}
	return &redacted
}

// validateConfig checks that the selected provider has what it needs before any input is read
func validateConfig(cfg *model.Config) error {
	missing := func(key, env string) error {
		return fmt.Errorf("%s is not set (config key %s, env %s)", key, key, env)
	}

	switch strings.ToLower(cfg.LLM.Provider) {
	case "azure":
		if cfg.LLM.Endpoint == "" {
			return missing("llm.endpoint", "AZURE_OPENAI_ENDPOINT")
		}
		if cfg.LLM.Deployment == "" {
			return missing("llm.deployment", "AZURE_OPENAI_DEPLOYMENT")
		}
		if cfg.LLM.APIKey == "" {
			return missing("llm.api_key", "AZURE_OPENAI_API_KEY")
		}
	case "openai":
		if cfg.LLM.APIKey == "" {
			return missing("llm.api_key", "OPENAI_API_KEY")
		}
	case "ollama":
		if cfg.LLM.Model == "" {
			return missing("llm.model", "LLMMAPPER_LLM_MODEL")
		}
	default:
		return fmt.Errorf("unknown LLM provider: %q (supported: azure, openai, ollama)", cfg.LLM.Provider)
	}

	return nil
}
