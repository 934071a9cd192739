// Package message serves archived chat history from the SQLite archive.
package message

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/notepid/pindoc/internal/history"
)

// Repo reads channels and messages from the archive. It implements
// history.Source.
type Repo struct {
	db       *sql.DB
	linkBase string
}

// NewRepo creates a repository. linkBase is used to build links for rows
// that were archived without one, e.g. "https://discord.com/channels".
func NewRepo(db *sql.DB, linkBase string) *Repo {
	return &Repo{db: db, linkBase: strings.TrimRight(linkBase, "/")}
}

func (r *Repo) link(parts ...string) string {
	return r.linkBase + "/" + strings.Join(parts, "/")
}

// FetchMessages returns up to limit messages of a channel older than
// beforeID, newest first.
func (r *Repo) FetchMessages(ctx context.Context, channelID, beforeID string, limit int) ([]history.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.channel_id, c.guild_id, m.created_at, m.pinned, m.content, m.url
		FROM messages m
		JOIN channels c ON c.id = m.channel_id
		WHERE m.channel_id = ?
		  AND (? = '' OR (m.created_at, m.rowid) < (
		        SELECT created_at, rowid FROM messages WHERE id = ?))
		ORDER BY m.created_at DESC, m.rowid DESC
		LIMIT ?
	`, channelID, beforeID, beforeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []history.Message
	for rows.Next() {
		var (
			msg     history.Message
			guildID string
			created int64
		)
		if err := rows.Scan(&msg.ID, &msg.ChannelID, &guildID, &created, &msg.Pinned,
			&msg.CleanContent, &msg.URL); err != nil {
			return nil, err
		}
		msg.CreatedAt = time.UnixMilli(created).UTC()
		if msg.URL == "" {
			msg.URL = r.link(guildID, msg.ChannelID, msg.ID)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Channel returns a channel or category by ID. Categories come with their
// children in display order.
func (r *Repo) Channel(ctx context.Context, id string) (*history.Channel, error) {
	ch := &history.Channel{}
	var kind string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, guild_id, name, kind, viewable FROM channels WHERE id = ?
	`, id).Scan(&ch.ID, &ch.GuildID, &ch.Name, &kind, &ch.Viewable)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get channel %s: %w", id, history.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get channel %s: %w", id, err)
	}
	ch.Kind = history.ParseKind(kind)
	ch.URL = r.link(ch.GuildID, ch.ID)

	if ch.Kind == history.KindCategory {
		children, err := r.children(ctx, ch.ID)
		if err != nil {
			return nil, err
		}
		ch.Children = children
	}
	return ch, nil
}

func (r *Repo) children(ctx context.Context, parentID string) ([]history.Channel, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, guild_id, name, kind, viewable
		FROM channels
		WHERE parent_id = ?
		ORDER BY position, name
	`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children of %s: %w", parentID, err)
	}
	defer rows.Close()

	var children []history.Channel
	for rows.Next() {
		var (
			c    history.Channel
			kind string
		)
		if err := rows.Scan(&c.ID, &c.GuildID, &c.Name, &kind, &c.Viewable); err != nil {
			return nil, err
		}
		c.Kind = history.ParseKind(kind)
		c.URL = r.link(c.GuildID, c.ID)
		children = append(children, c)
	}
	return children, rows.Err()
}

// ListChannels returns all archived channels and categories with message
// counts, categories first within each guild.
func (r *Repo) ListChannels(ctx context.Context) ([]*ChannelInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.guild_id, c.name, c.kind, COALESCE(c.parent_id, ''), c.position,
		       COALESCE((SELECT COUNT(*) FROM messages WHERE channel_id = c.id), 0) AS total,
		       COALESCE((SELECT COUNT(*) FROM messages WHERE channel_id = c.id AND pinned = 1), 0) AS pinned
		FROM channels c
		ORDER BY c.guild_id, c.kind <> 'category', c.position, c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []*ChannelInfo
	for rows.Next() {
		c := &ChannelInfo{}
		if err := rows.Scan(&c.ID, &c.GuildID, &c.Name, &c.Kind, &c.ParentID, &c.Position,
			&c.TotalMsgs, &c.Pinned); err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}
