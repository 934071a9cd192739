package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/notepid/pindoc/internal/dateparse"
	"github.com/notepid/pindoc/internal/db"
	"github.com/notepid/pindoc/internal/digest"
	"github.com/notepid/pindoc/internal/history"
	"github.com/notepid/pindoc/internal/message"
	"github.com/notepid/pindoc/internal/slackhist"
)

var renderCmd = &cobra.Command{
	Use:   "render [flags] <channel-id>...",
	Short: "Render a digest from the archive or Slack",
	Long: `Render the digest document for the given channels and categories.

Dates accept the same formats as the chat command (Jan/18/2021, 2021/Jan/18,
"Jan 18th", 1/18, ...). Without --start the digest covers all history; without
--end it runs up to today.

Examples:
  pindoc render --start Jan/1/2021 --end Jan/31/2021 100000000000000001
  pindoc render --source slack --start 6/1 C024BE91L --out june.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("start", "", "first day of the digest")
	renderCmd.Flags().String("end", "", "last day of the digest (default today)")
	renderCmd.Flags().String("source", "archive", "history source: archive or slack")
	renderCmd.Flags().StringP("out", "o", "", "output file (default stdout)")
}

func runRender(cmd *cobra.Command, args []string) error {
	startText, _ := cmd.Flags().GetString("start")
	endText, _ := cmd.Flags().GetString("end")
	source, _ := cmd.Flags().GetString("source")
	out, _ := cmd.Flags().GetString("out")

	r, err := digest.ParseRange(dateparse.New(cfg.Location()), startText, endText, time.Now())
	if err != nil {
		return err
	}

	src, closeSrc, err := openSource(source)
	if err != nil {
		return err
	}
	defer closeSrc()

	log := logger.With(zap.String("render_id", uuid.NewString()), zap.String("source", source))
	data, err := renderDigest(cmd.Context(), src, r, args, cfg.Render.PageSize, log)
	if err != nil {
		return err
	}

	f, closeOut, err := outputFile(out)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = closeOut()
		return fmt.Errorf("write digest: %w", err)
	}
	return closeOut()
}

func openSource(name string) (history.Source, func(), error) {
	switch name {
	case "archive":
		database, err := db.Open(cfg.Archive.Path, logger.Named("db"))
		if err != nil {
			return nil, nil, err
		}
		return message.NewRepo(database.DB, cfg.Archive.LinkBase), func() { _ = database.Close() }, nil
	case "slack":
		if cfg.Secrets.SlackToken == "" {
			return nil, nil, errors.New("SLACK_TOKEN is not set")
		}
		return slackhist.New(cfg.Secrets.SlackToken, cfg.Slack.Workspace, logger.Named("slack")), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q (want archive or slack)", name)
	}
}

func renderDigest(ctx context.Context, src history.Source, r digest.Range, ids []string, pageSize int, log *zap.Logger) ([]byte, error) {
	doc := digest.New(src, r)
	doc.PageSize = pageSize
	doc.Logger = log
	if err := doc.AddByID(ctx, src, ids...); err != nil {
		return nil, err
	}
	return doc.Render(ctx)
}
