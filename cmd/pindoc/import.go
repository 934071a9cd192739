package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/notepid/pindoc/internal/db"
	"github.com/notepid/pindoc/internal/message"
)

var importCmd = &cobra.Command{
	Use:   "import <export.yaml>",
	Short: "Load a channel export into the archive",
	Long: `Load a YAML export (guild, channels, messages) into the SQLite archive
configured under archive.path. Rows that already exist are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	exp, err := message.DecodeExport(f)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Archive.Path), 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}
	database, err := db.Open(cfg.Archive.Path, logger.Named("db"))
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := message.NewRepo(database.DB, cfg.Archive.LinkBase).Import(cmd.Context(), exp)
	if err != nil {
		return err
	}
	logger.Info("imported export",
		zap.String("file", args[0]),
		zap.String("guild", exp.Guild.Name),
		zap.Int("channels", stats.Channels),
		zap.Int("messages", stats.Messages),
	)
	return nil
}
