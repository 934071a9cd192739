package discord

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/notepid/pindoc/internal/command"
)

// Bot answers digest commands posted in Discord.
type Bot struct {
	session *discordgo.Session
	client  *Client
	handler *command.Handler
	log     *zap.Logger
	timeout time.Duration

	// OnStatus is told when the gateway connection comes up or drops.
	OnStatus func(connected bool)
}

// NewBot creates a bot session for token. The command handler is built by
// newHandler once the Platform exists.
func NewBot(token string, log *zap.Logger, newHandler func(command.Platform) *command.Handler) (*Bot, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = Intents

	client := NewClient(s, log)
	b := &Bot{
		session: s,
		client:  client,
		handler: newHandler(client),
		log:     log,
		timeout: 2 * time.Minute,
	}
	s.AddHandler(b.onReady)
	s.AddHandler(b.onDisconnect)
	s.AddHandler(b.onMessageCreate)
	return b, nil
}

// Open connects to the gateway.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("ready",
		zap.String("user", r.User.Username),
		zap.Int("guilds", len(r.Guilds)),
	)
	if b.OnStatus != nil {
		b.OnStatus(true)
	}
}

func (b *Bot) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	b.log.Warn("disconnected from gateway")
	if b.OnStatus != nil {
		b.OnStatus(false)
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || s.State == nil || s.State.User == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	reply, ok := b.handler.Handle(ctx, requestFrom(m.Message, s.State.User.ID))
	if !ok {
		return
	}

	if _, err := s.ChannelMessageSendComplex(m.ChannelID, messageSend(reply, m.Reference())); err != nil {
		b.log.Error("send reply", zap.String("channel", m.ChannelID), zap.Error(err))
	}
}

func requestFrom(m *discordgo.Message, botUserID string) command.Request {
	return command.Request{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		AuthorBot: m.Author.Bot,
		BotUserID: botUserID,
		Content:   m.Content,
	}
}

func messageSend(reply *command.Reply, ref *discordgo.MessageReference) *discordgo.MessageSend {
	send := &discordgo.MessageSend{
		Content:   reply.Text,
		Reference: ref,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			RepliedUser: true,
		},
	}
	if reply.Attachment != nil {
		send.Files = []*discordgo.File{{
			Name:        reply.Attachment.Name,
			ContentType: "text/markdown",
			Reader:      bytes.NewReader(reply.Attachment.Data),
		}}
	}
	return send
}
