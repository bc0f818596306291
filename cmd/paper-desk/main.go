// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-desk CLI: search arXiv,
// page through results, translate them, export selections and keep a
// local library of searches and papers.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-desk/internal/config"
	"github.com/pdiddy/paper-desk/internal/dialog"
	"github.com/pdiddy/paper-desk/internal/library"
	"github.com/pdiddy/paper-desk/internal/logging"
	"github.com/pdiddy/paper-desk/internal/secrets"
	"github.com/pdiddy/paper-desk/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Loaded in PersistentPreRunE.
var (
	appCfg types.AppConfig
	logger = zerolog.Nop()
	creds  *secrets.Store
)

var rootCmd = &cobra.Command{
	Use:   "paper-desk",
	Short: "Search, translate and export arXiv papers",
	Long: `paper-desk searches arXiv with boolean field queries, pages through the
results, translates titles and abstracts with an LLM, and exports selected
papers to JSON or CSL-YAML.

Searches are recorded in a local history; favorite searches and saved papers
live in a SQLite library under ~/.config/paper-desk.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		appCfg = cfg
		logger = logging.New(cfg.Logging, os.Stderr)

		secretsDir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(secretsDir, config.EnvPrefix, logger)
		if err != nil {
			return err
		}
		creds = s
		if names := s.Names(); len(names) > 0 {
			logger.Debug().Strs("secrets", names).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-desk.yaml or ~/.config/paper-desk/paper-desk.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of API key files")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "answer every prompt with its default")

	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(config.Name)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath(config.Dir())
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// prompter answers dialogs on the terminal.
func prompter(cmd *cobra.Command) *dialog.Prompter {
	yes, _ := cmd.Flags().GetBool("yes")
	return &dialog.Prompter{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr(), AssumeYes: yes}
}

// openLibrary opens the library database from the loaded configuration.
func openLibrary() (*library.Store, error) {
	return library.Open(appCfg.Library)
}

// exportDir is where exports are offered by default.
func exportDir() string {
	if appCfg.Export.Dir != "" {
		return appCfg.Export.Dir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, dialog.ErrCanceled) {
			fmt.Fprintln(os.Stderr, "Error:", types.UserMessage(err))
			logger.Debug().Err(err).Msg("command failed")
		}
		os.Exit(1)
	}
}
