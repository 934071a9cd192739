package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/notepid/pindoc/internal/command"
	"github.com/notepid/pindoc/internal/discord"
	"github.com/notepid/pindoc/internal/server"
	"github.com/notepid/pindoc/internal/slots"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Discord bot",
	Long: `Connect to Discord and answer digest commands:

  @pindoc doc [start] [end] [#channel|#category ...]

The bot token is read from DISCORD_TOKEN (or TOKEN), optionally from a .env file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if cfg.Secrets.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is not set")
	}

	loc := cfg.Location()
	bot, err := discord.NewBot(cfg.Secrets.DiscordToken, logger, func(p command.Platform) *command.Handler {
		return command.NewHandler(p, command.Options{
			Name:           cfg.Bot.Command,
			AttachmentName: cfg.Bot.AttachmentName,
			ReplyText:      cfg.Bot.ReplyText,
			PageSize:       cfg.Render.PageSize,
			Location:       loc,
			Logger:         logger.Named("command"),
			Slots:          slots.NewManager(cfg.Bot.MaxRenders),
		})
	})
	if err != nil {
		return err
	}

	health := server.NewHealth(cfg.Server.HealthPort, logger.Named("health"))
	bot.OnStatus = health.SetReady

	go func() {
		if err := health.ListenAndServe(); err != nil {
			logger.Error("health server stopped", zap.Error(err))
		}
	}()

	if err := bot.Open(); err != nil {
		return err
	}
	logger.Info("bot is running",
		zap.String("command", cfg.Bot.Command),
		zap.String("timezone", loc.String()),
		zap.Int("health_port", cfg.Server.HealthPort),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	health.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := health.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown", zap.Error(err))
	}
	if err := bot.Close(); err != nil {
		logger.Warn("close discord session", zap.Error(err))
	}
	logger.Info("shut down complete")
	return nil
}
