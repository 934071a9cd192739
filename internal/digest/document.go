// Package digest builds the Markdown summary of important (pinned) messages
// for a set of channels and categories over a range of days.
package digest

import (
	"bytes"
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/notepid/pindoc/internal/history"
)

// Document is one summary: a header for the range followed by its sections
// in the order they were added.
type Document struct {
	Range    Range
	Sections []Section

	Fetcher  history.Fetcher
	PageSize int
	Logger   *zap.Logger
	Now      func() time.Time
}

// New creates an empty document over r reading history from f.
func New(f history.Fetcher, r Range) *Document {
	return &Document{Range: r, Fetcher: f}
}

// AddChannel appends a top-level section for a text channel.
func (d *Document) AddChannel(ch history.Channel) {
	d.Sections = append(d.Sections, &ChannelSection{
		Fetcher:  d.Fetcher,
		Channel:  ch,
		Range:    d.Range,
		Depth:    TopLevel,
		PageSize: d.PageSize,
		Logger:   d.Logger,
	})
}

// AddCategory appends a section grouping the text channels of a category.
func (d *Document) AddCategory(cat history.Channel) {
	d.Sections = append(d.Sections, &CategorySection{
		Fetcher:  d.Fetcher,
		Category: cat,
		Range:    d.Range,
		PageSize: d.PageSize,
		Logger:   d.Logger,
	})
}

// Add appends a section for ch, picking the category form for categories.
func (d *Document) Add(ch history.Channel) {
	if ch.Kind == history.KindCategory {
		d.AddCategory(ch)
		return
	}
	d.AddChannel(ch)
}

// Header returns the setext title block.
func (d *Document) Header() string {
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}
	title := "Important Messages : " + d.Range.Title(now)
	return title + "\n" + strings.Repeat("=", utf8.RuneCountInString(title)) + "\n\n"
}

// Render produces the whole document. Sections render one after another;
// if any fails no output is returned.
func (d *Document) Render(ctx context.Context) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(d.Header())
	for _, s := range d.Sections {
		frag, err := s.Render(ctx)
		if err != nil {
			return nil, err
		}
		b.Write(frag)
	}

	logger(d.Logger).Info("rendered document",
		zap.Int("sections", len(d.Sections)),
		zap.String("size", humanize.Bytes(uint64(b.Len()))))
	return b.Bytes(), nil
}
