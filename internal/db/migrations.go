package db

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "create guilds table",
		sql: `
			CREATE TABLE IF NOT EXISTS guilds (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`,
	},
	{
		name: "create channels table",
		sql: `
			CREATE TABLE IF NOT EXISTS channels (
				id TEXT PRIMARY KEY,
				guild_id TEXT NOT NULL REFERENCES guilds(id) ON DELETE RESTRICT,
				name TEXT NOT NULL,
				kind TEXT NOT NULL DEFAULT 'text',
				parent_id TEXT REFERENCES channels(id) ON DELETE SET NULL,
				position INTEGER DEFAULT 0,
				viewable BOOLEAN DEFAULT 1
			);
			CREATE INDEX IF NOT EXISTS idx_channels_parent ON channels(parent_id, position);
		`,
	},
	{
		name: "create messages table",
		sql: `
			CREATE TABLE IF NOT EXISTS messages (
				id TEXT PRIMARY KEY,
				channel_id TEXT NOT NULL REFERENCES channels(id) ON DELETE RESTRICT,
				created_at INTEGER NOT NULL,
				pinned BOOLEAN DEFAULT 0,
				content TEXT NOT NULL DEFAULT '',
				url TEXT NOT NULL DEFAULT ''
			);
			CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel_id, created_at);
		`,
	},
}
