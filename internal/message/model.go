package message

import "time"

// Export is the YAML layout of an archived guild, as produced by chat
// history exporters.
type Export struct {
	Guild    ExportGuild     `yaml:"guild"`
	Channels []ExportChannel `yaml:"channels"`
	Messages []ExportMessage `yaml:"messages"`
}

// ExportGuild identifies the server the export came from.
type ExportGuild struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// ExportChannel is a channel or category. Parent names the category a
// channel belongs to.
type ExportChannel struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Parent   string `yaml:"parent"`
	Position int    `yaml:"position"`
	Viewable *bool  `yaml:"viewable"` // nil = viewable
}

// ExportMessage is one archived message.
type ExportMessage struct {
	ID        string    `yaml:"id"`
	Channel   string    `yaml:"channel"`
	CreatedAt time.Time `yaml:"created_at"`
	Pinned    bool      `yaml:"pinned"`
	Content   string    `yaml:"content"`
	URL       string    `yaml:"url"`
}

// ChannelInfo is a channel row with computed counts, used for browsing.
type ChannelInfo struct {
	ID        string
	GuildID   string
	Name      string
	Kind      string
	ParentID  string
	Position  int
	TotalMsgs int // computed field
	Pinned    int // computed field
}

// ImportStats reports what an import wrote.
type ImportStats struct {
	Channels int
	Messages int
}
