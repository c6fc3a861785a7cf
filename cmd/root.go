package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"techread/internal/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	noColor bool
	appCfg  config.Config
)

// rootCmd is the base command called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "techread",
	Short: "Terminal feed reader that ranks posts and builds reading digests",
	Long: "techread pulls RSS/Atom feeds, extracts readable text, scores posts by\n" +
		"freshness, topic relevance and source quality, and builds short digests\n" +
		"with optional LLM summaries.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or "+config.ConfigDir()+"/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func initConfig() {
	v := viper.GetViper()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath(config.ConfigDir())
	}
	v.SetEnvPrefix("techread")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			fmt.Fprintf(os.Stderr, "error reading config: %v\n", err)
			os.Exit(1)
		}
	}

	if err := v.Unmarshal(&appCfg); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing config: %v\n", err)
		os.Exit(1)
	}

	appCfg.FillDefaults()
	setupLogging(appCfg.App.LogLevel)
	if used := v.ConfigFileUsed(); used != "" {
		slog.Debug("config: loaded", "file", used)
	}
}

// bindEnvKeys registers the keys that may come only from the environment;
// Unmarshal ignores AutomaticEnv for keys viper has never seen.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"app.log_level", "db_path", "cache_dir", "default_top_n", "min_word_count", "topics",
		"llm.base_url", "llm.api_key", "llm.model", "llm.temperature", "llm.timeout",
		"fetch.user_agent", "fetch.timeout", "fetch.host_interval", "fetch.respect_robots", "fetch.limit_per_source",
		"cache.backend", "cache.ttl",
		"redis.addr", "redis.username", "redis.password", "redis.db",
		"cloudflare.account_id", "cloudflare.api_token",
		"digest.strategy", "digest.window_hours", "digest.output_dir", "digest.title", "digest.minutes", "digest.min_items",
		"serve.interval", "serve.write_digest",
	} {
		_ = v.BindEnv(key)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// GetConfig exposes the loaded configuration to subcommands.
func GetConfig() config.Config {
	return appCfg
}
