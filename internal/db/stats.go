package db

import (
	"fmt"
)

// Stats summarizes what an archive holds.
type Stats struct {
	Guilds   int
	Channels int
	Messages int
	Pinned   int
}

// GetStats counts the archived guilds, channels and messages.
func (db *DB) GetStats() (*Stats, error) {
	var s Stats
	err := db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM guilds),
			(SELECT COUNT(*) FROM channels),
			(SELECT COUNT(*) FROM messages),
			(SELECT COUNT(*) FROM messages WHERE pinned = 1)
	`).Scan(&s.Guilds, &s.Channels, &s.Messages, &s.Pinned)
	if err != nil {
		return nil, fmt.Errorf("load archive stats: %w", err)
	}
	return &s, nil
}
