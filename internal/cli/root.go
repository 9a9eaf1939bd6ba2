package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ppiankov/llmmapper/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time with -ldflags "-X github.com/ppiankov/llmmapper/internal/cli.Version=..."
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "llmmapper",
	Short: "llmmapper - extract buysheet records with an LLM",
	Long: `llmmapper turns line-oriented buysheet text into structured JSON records.

Input lines are split into chunks, each chunk is sent to a chat-completion
model (Azure OpenAI, OpenAI or Ollama) with fixed extraction instructions,
and the JSON array in each reply is normalized into records carrying
"Release Date", "Season" and a confidence value.

The model's output is not checked for correctness.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger(verbose)
	},
}

// Execute runs the root command
func Execute() error {
	defer func() { _ = zap.L().Sync() }()
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of llmmapper.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("llmmapper %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.llmmapper/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Model and chunking flags, shared by extract and batch
	flags.String("provider", "", "LLM provider (azure, openai, ollama)")
	flags.String("endpoint", "", "Azure OpenAI resource endpoint")
	flags.String("deployment", "", "Azure OpenAI deployment name")
	flags.String("api-version", "", "Azure OpenAI API version")
	flags.String("model", "", "model name (openai, ollama)")
	flags.String("base-url", "", "base URL for OpenAI-compatible or Ollama endpoints")
	flags.String("prompt", "", "send this prompt verbatim for every chunk instead of the built-in one")
	flags.Duration("llm-timeout", 0, "timeout per model call (0 = no timeout)")
	flags.Int("chunk-size", model.DefaultChunkSize, "input lines per model request")
	flags.Bool("cache", false, "cache model replies on disk")
	flags.Float64("rps", 0, "max model requests per second (0 = unlimited)")
	flags.String("store", "", "SQLite file recording run history (empty = off)")

	// Bind flags to viper
	for key, flag := range map[string]string{
		"output.verbose":                    "verbose",
		"llm.provider":                      "provider",
		"llm.endpoint":                      "endpoint",
		"llm.deployment":                    "deployment",
		"llm.api_version":                   "api-version",
		"llm.model":                         "model",
		"llm.base_url":                      "base-url",
		"llm.prompt":                        "prompt",
		"llm.timeout":                       "llm-timeout",
		"input.chunk_size":                  "chunk-size",
		"cache.enabled":                     "cache",
		"rate_limiting.requests_per_second": "rps",
		"store.path":                        "store",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, config file and ENV variables
func initConfig() {
	// Credentials may live in a .env file next to the input
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to read .env: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.llmmapper")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	setDefaults(viper.GetViper(), model.DefaultConfig())
	bindEnv(viper.GetViper())

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so environment variables can reach it
func setDefaults(v *viper.Viper, cfg *model.Config) {
	v.SetDefault("input.path", cfg.Input.Path)
	v.SetDefault("input.chunk_size", cfg.Input.ChunkSize)

	v.SetDefault("llm.provider", cfg.LLM.Provider)
	v.SetDefault("llm.endpoint", cfg.LLM.Endpoint)
	v.SetDefault("llm.deployment", cfg.LLM.Deployment)
	v.SetDefault("llm.api_version", cfg.LLM.APIVersion)
	v.SetDefault("llm.api_key", cfg.LLM.APIKey)
	v.SetDefault("llm.model", cfg.LLM.Model)
	v.SetDefault("llm.base_url", cfg.LLM.BaseURL)
	v.SetDefault("llm.prompt", cfg.LLM.Prompt)
	v.SetDefault("llm.max_tokens", cfg.LLM.MaxTokens)
	v.SetDefault("llm.temperature", cfg.LLM.Temperature)
	v.SetDefault("llm.timeout", cfg.LLM.Timeout)

	v.SetDefault("http.timeout", cfg.HTTP.Timeout)
	v.SetDefault("http.user_agent", cfg.HTTP.UserAgent)
	v.SetDefault("http.max_body_bytes", cfg.HTTP.MaxBodyBytes)
	v.SetDefault("http.http_proxy", cfg.HTTP.HTTPProxy)
	v.SetDefault("http.https_proxy", cfg.HTTP.HTTPSProxy)
	v.SetDefault("http.no_proxy", cfg.HTTP.NoProxy)

	v.SetDefault("output.path", cfg.Output.Path)
	v.SetDefault("output.xlsx", cfg.Output.XLSX)
	v.SetDefault("output.verbose", cfg.Output.Verbose)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("cache.memory_ttl", cfg.Cache.MemoryTTL)
	v.SetDefault("cache.disk_ttl", cfg.Cache.DiskTTL)

	v.SetDefault("rate_limiting.requests_per_second", cfg.RateLimiting.RequestsPerSecond)
	v.SetDefault("rate_limiting.burst_size", cfg.RateLimiting.BurstSize)

	v.SetDefault("store.path", cfg.Store.Path)

	v.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
}

// bindEnv maps LLMMAPPER_* variables onto config keys, plus the Azure/OpenAI
// variable names used by existing deployments
func bindEnv(v *viper.Viper) {
	// Read in environment variables that match LLMMAPPER_*
	v.SetEnvPrefix("LLMMAPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("llm.endpoint", "LLMMAPPER_LLM_ENDPOINT", "AZURE_OPENAI_ENDPOINT")
	_ = v.BindEnv("llm.deployment", "LLMMAPPER_LLM_DEPLOYMENT", "AZURE_OPENAI_DEPLOYMENT")
	_ = v.BindEnv("llm.api_version", "LLMMAPPER_LLM_API_VERSION", "AZURE_OPENAI_API_VERSION")
	_ = v.BindEnv("llm.api_key", "LLMMAPPER_LLM_API_KEY", "AZURE_OPENAI_API_KEY", "OPENAI_API_KEY")
}

// loadConfig merges defaults, config file, environment and flags
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if strings.EqualFold(cfg.LLM.Provider, "ollama") && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	return cfg, nil
}

// initLogger installs the global zap logger. Verbose runs get a development logger
// at debug level; otherwise only warnings and errors are logged.
func initLogger(verbose bool) error {
	var zcfg zap.Config
	if verbose {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return nil
}
