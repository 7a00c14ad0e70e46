// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the study-engine CLI. It turns study
// material into quizzes, flashcard decks, or summaries and keeps the results
// in a local artifact store.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/study-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets secrets.Set

	// logger writes diagnostics to stderr. Progress lines bypass it.
	logger = zap.NewNop()
)

// rootCmd is the base command for the study-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "study-engine",
	Short: "Generate quizzes, flashcards, and summaries from study material",
	Long: `study-engine turns Navy training material into study content. Input text
is cleaned, split into chunks, sent chunk by chunk to a generation backend,
validated, deduplicated, and combined into one quiz, flashcard deck, or
summary.

Generated artifacts can be saved to a local store and exported later as
YAML, JSON, Markdown, or HTML.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := newLogger(verbose)
		if err != nil {
			return err
		}
		logger = l
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Info("using config file", zap.String("path", used))
		}

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug("loaded secrets", zap.Strings("keys", s.Names()))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./study-engine.yaml or ~/.config/study-engine/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug diagnostics to stderr")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("study-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "study-engine"))
		}
	}

	setDefaults(viper.GetViper())
	viper.SetEnvPrefix("STUDY_ENGINE")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
