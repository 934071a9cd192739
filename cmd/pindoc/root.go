package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/notepid/pindoc/internal/config"
	"github.com/notepid/pindoc/internal/logging"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pindoc",
	Short: "Digest pinned chat messages into a Markdown document",
	Long: `pindoc walks channel history backwards and collects the pinned messages
of a date range into a Markdown summary, grouped by channel and category.

Example usage:
  pindoc serve                                     # run the Discord bot
  pindoc render --start Jan/1/2021 C0123 C0456     # render from the archive
  pindoc import export.yaml                        # load an export into the archive`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd.Flags().Changed("config"))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

// initConfig loads the config file. A missing default file is not an
// error; defaults and environment secrets are used instead.
func initConfig(explicit bool) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		cfg = config.Default()
		if cfg.Secrets, err = config.LoadSecrets(".env"); err != nil {
			return err
		}
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err = logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	return nil
}

func outputFile(path string) (*os.File, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
