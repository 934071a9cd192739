package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/notepid/pindoc/internal/config"
	"github.com/notepid/pindoc/internal/dateparse"
	"github.com/notepid/pindoc/internal/db"
	"github.com/notepid/pindoc/internal/digest"
	"github.com/notepid/pindoc/internal/message"
)

type App struct {
	ConfigPath string
	Config     *config.Config
	DB         *db.DB
	Messages   *message.Repo
	Dates      *dateparse.Parser
	Log        *zap.Logger

	RenderTimeout time.Duration
}

// New opens the archive named in the config at configPath. A missing
// config file falls back to defaults.
func New(configPath string) (*App, func(), error) {
	cfg, err := config.Load(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Archive.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create archive directory: %w", err)
	}

	// The TUI owns the terminal, so nothing is logged to it.
	log := zap.NewNop()

	database, err := db.Open(cfg.Archive.Path, log)
	if err != nil {
		return nil, nil, err
	}

	a := &App{
		ConfigPath:    configPath,
		Config:        cfg,
		DB:            database,
		Messages:      message.NewRepo(database.DB, cfg.Archive.LinkBase),
		Dates:         dateparse.New(cfg.Location()),
		Log:           log,
		RenderTimeout: 30 * time.Second,
	}

	cleanup := func() {
		_ = database.Close()
	}
	return a, cleanup, nil
}

// Range builds the digest range for the dates typed into the form.
func (a *App) Range(startText, endText string) (digest.Range, error) {
	return digest.ParseRange(a.Dates, startText, endText, time.Now())
}

// Render builds the digest for the selected channel IDs from the archive.
func (a *App) Render(r digest.Range, ids []string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.RenderTimeout)
	defer cancel()

	doc := digest.New(a.Messages, r)
	doc.PageSize = a.Config.Render.PageSize
	doc.Logger = a.Log
	if err := doc.AddByID(ctx, a.Messages, ids...); err != nil {
		return nil, err
	}
	return doc.Render(ctx)
}

// Save writes a rendered digest to path.
func (a *App) Save(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save digest: %w", err)
	}
	return nil
}
