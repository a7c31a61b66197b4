package main

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sgt-cod/youtube-automation-news/config"
	"github.com/Sgt-cod/youtube-automation-news/internal/clifmt"
	"github.com/Sgt-cod/youtube-automation-news/internal/pathutil"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "autonews",
	Short:         "Automated news video pipeline with Telegram curation",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mirrorRemoveCmd)
}

func initConfig() error {
	// .env holds the secrets that do not belong in the config file.
	_ = godotenv.Load()

	if strings.TrimSpace(flagConfig) != "" {
		viper.SetConfigFile(pathutil.ExpandHomePath(flagConfig))
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.autonews")
	}
	viper.SetEnvPrefix("AUTONEWS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if clifmt.Interactive() {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func loadConfig() (*config.Config, error) {
	cfg := config.FromViper()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
