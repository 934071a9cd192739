package message

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/notepid/pindoc/internal/history"
)

// DecodeExport reads a YAML export.
func DecodeExport(rd io.Reader) (*Export, error) {
	var exp Export
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&exp); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	if exp.Guild.ID == "" {
		return nil, fmt.Errorf("decode export: guild id is required")
	}
	return &exp, nil
}

// Import writes an export into the archive in one transaction. Rows that
// already exist are replaced, so re-importing a newer export is safe.
func (r *Repo) Import(ctx context.Context, exp *Export) (ImportStats, error) {
	var stats ImportStats

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO guilds (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, imported_at = CURRENT_TIMESTAMP
	`, exp.Guild.ID, exp.Guild.Name); err != nil {
		return stats, fmt.Errorf("import guild %s: %w", exp.Guild.ID, err)
	}

	// Categories first so children can reference them.
	ordered := make([]ExportChannel, 0, len(exp.Channels))
	for _, c := range exp.Channels {
		if history.ParseKind(c.Kind) == history.KindCategory {
			ordered = append(ordered, c)
		}
	}
	for _, c := range exp.Channels {
		if history.ParseKind(c.Kind) != history.KindCategory {
			ordered = append(ordered, c)
		}
	}

	for _, c := range ordered {
		if err := importChannel(ctx, tx, exp.Guild.ID, c); err != nil {
			return stats, err
		}
		stats.Channels++
	}

	for _, m := range exp.Messages {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, channel_id, created_at, pinned, content, url)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				channel_id = excluded.channel_id,
				created_at = excluded.created_at,
				pinned = excluded.pinned,
				content = excluded.content,
				url = excluded.url
		`, m.ID, m.Channel, m.CreatedAt.UnixMilli(), m.Pinned, m.Content, m.URL); err != nil {
			return stats, fmt.Errorf("import message %s: %w", m.ID, err)
		}
		stats.Messages++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit import: %w", err)
	}
	return stats, nil
}

func importChannel(ctx context.Context, tx *sql.Tx, guildID string, c ExportChannel) error {
	kind := c.Kind
	if kind == "" {
		kind = history.KindText.String()
	}
	viewable := c.Viewable == nil || *c.Viewable

	var parent sql.NullString
	if c.Parent != "" {
		parent = sql.NullString{String: c.Parent, Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO channels (id, guild_id, name, kind, parent_id, position, viewable)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			guild_id = excluded.guild_id,
			name = excluded.name,
			kind = excluded.kind,
			parent_id = excluded.parent_id,
			position = excluded.position,
			viewable = excluded.viewable
	`, c.ID, guildID, c.Name, kind, parent, c.Position, viewable)
	if err != nil {
		return fmt.Errorf("import channel %s: %w", c.ID, err)
	}
	return nil
}
