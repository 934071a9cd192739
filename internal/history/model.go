package history

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by sources when a channel or category does not exist.
var ErrNotFound = errors.New("not found")

// Kind classifies a channel.
type Kind int

const (
	KindText Kind = iota
	KindAnnouncement
	KindVoice
	KindCategory
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindAnnouncement:
		return "announcement"
	case KindVoice:
		return "voice"
	case KindCategory:
		return "category"
	default:
		return "other"
	}
}

// ParseKind is the inverse of Kind.String. Unknown names map to KindOther.
func ParseKind(s string) Kind {
	switch s {
	case "text":
		return KindText
	case "announcement":
		return KindAnnouncement
	case "voice":
		return KindVoice
	case "category":
		return KindCategory
	default:
		return KindOther
	}
}

// IsText reports whether the channel carries a readable message history.
func (k Kind) IsText() bool {
	return k == KindText || k == KindAnnouncement
}

// Channel is a text channel or a category of a chat server. Only categories
// have Children, in the server's display order.
type Channel struct {
	ID       string
	GuildID  string
	Name     string
	Kind     Kind
	Viewable bool
	URL      string // link for manual review
	Children []Channel
}

// Message is a single historical message, read-only.
type Message struct {
	ID           string
	ChannelID    string
	CreatedAt    time.Time
	Pinned       bool
	CleanContent string
	URL          string
}

// Fetcher reads one page of channel history. Pages are newest-first and hold
// at most limit messages strictly older than beforeID; an empty beforeID
// starts at the newest message.
type Fetcher interface {
	FetchMessages(ctx context.Context, channelID, beforeID string, limit int) ([]Message, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, channelID, beforeID string, limit int) ([]Message, error)

func (f FetcherFunc) FetchMessages(ctx context.Context, channelID, beforeID string, limit int) ([]Message, error) {
	return f(ctx, channelID, beforeID, limit)
}

// Resolver looks up channels and categories by ID.
type Resolver interface {
	Channel(ctx context.Context, id string) (*Channel, error)
}

// Source is a complete history backend.
type Source interface {
	Fetcher
	Resolver
}
