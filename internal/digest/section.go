package digest

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/notepid/pindoc/internal/history"
)

// Depth is the heading level a section renders at.
type Depth int

const (
	TopLevel Depth = iota
	Nested
)

func (d Depth) heading() string {
	if d == Nested {
		return "###"
	}
	return "##"
}

// Section renders one channel or category into a Markdown fragment.
type Section interface {
	Render(ctx context.Context) ([]byte, error)
}

func emptyNotice(url string) string {
	return fmt.Sprintf("Nothing interesting, but check the channel for [more discussions](%s)", url)
}

// ChannelSection lists the pinned messages of one channel within a range.
type ChannelSection struct {
	Fetcher  history.Fetcher
	Channel  history.Channel
	Range    Range
	Depth    Depth
	PageSize int
	Logger   *zap.Logger
}

// ImportantMessages returns the pinned messages posted within the range,
// newest first.
func (s *ChannelSection) ImportantMessages(ctx context.Context) ([]history.Message, error) {
	var (
		important []history.Message
		scanned   int
	)
	err := history.ForEachDescending(ctx, s.Fetcher, s.Channel.ID, func(msg history.Message) bool {
		scanned++
		if s.Range.Contains(msg.CreatedAt) && msg.Pinned {
			important = append(important, msg)
		}
		// History is newest-first, so nothing after this can be in range.
		return s.Range.BeforeStart(msg.CreatedAt)
	}, history.WithPageSize(s.PageSize))
	if err != nil {
		return nil, err
	}

	logger(s.Logger).Debug("scanned channel",
		zap.String("channel", s.Channel.Name),
		zap.Int("scanned", scanned),
		zap.Int("important", len(important)))
	return important, nil
}

// Render returns the channel fragment. A nested channel without important
// messages renders as nothing.
func (s *ChannelSection) Render(ctx context.Context) ([]byte, error) {
	msgs, err := s.ImportantMessages(ctx)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 && s.Depth == Nested {
		return nil, nil
	}

	var b bytes.Buffer
	b.WriteString(s.Depth.heading() + s.Channel.Name + "\n")
	if len(msgs) == 0 {
		b.WriteString(emptyNotice(s.Channel.URL))
	}
	for i, msg := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "* %s ([source](%s))", msg.CleanContent, msg.URL)
	}
	b.WriteString("\n\n")
	return b.Bytes(), nil
}

// CategorySection groups the text channels of a category under one heading.
type CategorySection struct {
	Fetcher  history.Fetcher
	Category history.Channel
	Range    Range
	PageSize int
	Logger   *zap.Logger
}

func (s *CategorySection) Render(ctx context.Context) ([]byte, error) {
	var body bytes.Buffer
	for _, ch := range s.Category.Children {
		if !ch.Kind.IsText() {
			continue
		}
		child := &ChannelSection{
			Fetcher:  s.Fetcher,
			Channel:  ch,
			Range:    s.Range,
			Depth:    Nested,
			PageSize: s.PageSize,
			Logger:   s.Logger,
		}
		frag, err := child.Render(ctx)
		if err != nil {
			return nil, fmt.Errorf("render %s in category %s: %w", ch.Name, s.Category.Name, err)
		}
		body.Write(frag)
	}

	var b bytes.Buffer
	b.WriteString(TopLevel.heading() + s.Category.Name + "\n")
	if body.Len() == 0 {
		b.WriteString(emptyNotice(s.Category.URL) + "\n\n")
	} else {
		b.Write(body.Bytes())
	}
	return b.Bytes(), nil
}

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
