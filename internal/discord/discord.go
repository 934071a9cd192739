// Package discord connects the digest command to a Discord bot session.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/notepid/pindoc/internal/history"
)

// LinkBase prefixes every channel and message link.
const LinkBase = "https://discord.com/channels"

// Intents the bot needs: guild structure for channel lookups and message
// content for reading commands.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentMessageContent

// Client reads history and permissions through a discordgo session. It
// implements command.Platform.
type Client struct {
	s   *discordgo.Session
	log *zap.Logger
}

// NewClient wraps an open or unopened session.
func NewClient(s *discordgo.Session, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{s: s, log: log}
}

// FetchMessages returns up to limit messages older than beforeID,
// newest-first.
func (c *Client) FetchMessages(ctx context.Context, channelID, beforeID string, limit int) ([]history.Message, error) {
	msgs, err := c.s.ChannelMessages(channelID, limit, beforeID, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("channel messages %s: %w", channelID, err)
	}

	guildID := ""
	if ch, err := c.lookup(ctx, channelID); err == nil {
		guildID = ch.GuildID
	}

	out := make([]history.Message, 0, len(msgs))
	for _, m := range msgs {
		content, err := m.ContentWithMoreMentionsReplaced(c.s)
		if err != nil {
			content = m.ContentWithMentionsReplaced()
		}
		out = append(out, convertMessage(m, guildID, content))
	}
	return out, nil
}

// Channel resolves a channel or category. Categories carry their readable
// children in sidebar order.
func (c *Client) Channel(ctx context.Context, id string) (*history.Channel, error) {
	dc, err := c.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	ch := c.convertChannel(ctx, dc)

	if ch.Kind == history.KindCategory {
		all, err := c.guildChannels(ctx, dc.GuildID)
		if err != nil {
			return nil, err
		}
		// Children the bot cannot read are left out rather than failing
		// the whole category.
		for _, child := range childrenOf(all, dc.ID) {
			if conv := c.convertChannel(ctx, child); conv.Viewable {
				ch.Children = append(ch.Children, conv)
			}
		}
	}
	return &ch, nil
}

// CanManageMessages reports whether userID holds Manage Messages in the
// channel the command was sent from.
func (c *Client) CanManageMessages(ctx context.Context, guildID, channelID, userID string) (bool, error) {
	perms, err := c.s.UserChannelPermissions(userID, channelID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("permissions of %s in %s: %w", userID, channelID, err)
	}
	return perms&discordgo.PermissionManageMessages != 0, nil
}

func (c *Client) lookup(ctx context.Context, id string) (*discordgo.Channel, error) {
	if c.s.State != nil {
		if ch, err := c.s.State.Channel(id); err == nil {
			return ch, nil
		}
	}
	ch, err := c.s.Channel(id, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("channel %s: %w", id, history.ErrNotFound)
		}
		return nil, fmt.Errorf("channel %s: %w", id, err)
	}
	return ch, nil
}

func (c *Client) guildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error) {
	if c.s.State != nil {
		if g, err := c.s.State.Guild(guildID); err == nil && len(g.Channels) > 0 {
			return g.Channels, nil
		}
	}
	chs, err := c.s.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("guild channels %s: %w", guildID, err)
	}
	return chs, nil
}

func (c *Client) convertChannel(ctx context.Context, dc *discordgo.Channel) history.Channel {
	return history.Channel{
		ID:       dc.ID,
		GuildID:  dc.GuildID,
		Name:     dc.Name,
		Kind:     kindOf(dc.Type),
		Viewable: c.viewable(ctx, dc.ID),
		URL:      channelURL(dc.GuildID, dc.ID),
	}
}

// viewable reports whether the bot itself can read the channel's history.
func (c *Client) viewable(ctx context.Context, channelID string) bool {
	if c.s.State == nil || c.s.State.User == nil {
		return false
	}
	perms, err := c.s.UserChannelPermissions(c.s.State.User.ID, channelID, discordgo.WithContext(ctx))
	if err != nil {
		c.log.Debug("bot permissions unavailable", zap.String("channel", channelID), zap.Error(err))
		return false
	}
	return hasAll(perms, discordgo.PermissionViewChannel|discordgo.PermissionReadMessageHistory)
}

func hasAll(perms, want int64) bool {
	return perms&want == want
}

func kindOf(t discordgo.ChannelType) history.Kind {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return history.KindText
	case discordgo.ChannelTypeGuildNews:
		return history.KindAnnouncement
	case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
		return history.KindVoice
	case discordgo.ChannelTypeGuildCategory:
		return history.KindCategory
	default:
		return history.KindOther
	}
}

// childrenOf returns the channels parented to categoryID ordered by their
// sidebar position.
func childrenOf(all []*discordgo.Channel, categoryID string) []*discordgo.Channel {
	var out []*discordgo.Channel
	for _, ch := range all {
		if ch.ParentID == categoryID {
			out = append(out, ch)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}

func convertMessage(m *discordgo.Message, guildID, content string) history.Message {
	if m.GuildID != "" {
		guildID = m.GuildID
	}
	return history.Message{
		ID:           m.ID,
		ChannelID:    m.ChannelID,
		CreatedAt:    m.Timestamp,
		Pinned:       m.Pinned,
		CleanContent: content,
		URL:          messageURL(guildID, m.ChannelID, m.ID),
	}
}

func channelURL(guildID, channelID string) string {
	return LinkBase + "/" + guildID + "/" + channelID
}

func messageURL(guildID, channelID, messageID string) string {
	return channelURL(guildID, channelID) + "/" + messageID
}

func isNotFound(err error) bool {
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Response != nil {
		return rerr.Response.StatusCode == http.StatusNotFound
	}
	return false
}
