// Package history walks chat channel history backwards in time.
package history

import (
	"context"
	"fmt"
)

// MaxPageSize is the largest page chat platforms hand out per request.
const MaxPageSize = 100

// Pager walks a channel's history from the newest message backwards, one
// page per call to Next. The cursor is the oldest message ID seen so far.
type Pager struct {
	fetcher   Fetcher
	channelID string
	pageSize  int
	cursor    string
	done      bool
	pages     int
}

// PagerOption configures a Pager.
type PagerOption func(*Pager)

// WithPageSize sets the page size, clamped to 1..MaxPageSize.
func WithPageSize(n int) PagerOption {
	return func(p *Pager) {
		if n < 1 || n > MaxPageSize {
			n = MaxPageSize
		}
		p.pageSize = n
	}
}

// WithCursor resumes the walk below the given message ID.
func WithCursor(beforeID string) PagerOption {
	return func(p *Pager) { p.cursor = beforeID }
}

// NewPager creates a pager over channelID.
func NewPager(f Fetcher, channelID string, opts ...PagerOption) *Pager {
	p := &Pager{fetcher: f, channelID: channelID, pageSize: MaxPageSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Next fetches the next page. It returns an empty page once history is
// exhausted; later calls return nil without fetching.
func (p *Pager) Next(ctx context.Context) ([]Message, error) {
	if p.done {
		return nil, nil
	}
	page, err := p.fetcher.FetchMessages(ctx, p.channelID, p.cursor, p.pageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch history of channel %s: %w", p.channelID, err)
	}
	p.pages++
	if len(page) == 0 {
		p.done = true
		return nil, nil
	}
	p.cursor = page[len(page)-1].ID
	return page, nil
}

// Cursor returns the ID the next fetch will start below.
func (p *Pager) Cursor() string { return p.cursor }

// Pages returns the number of fetches issued so far.
func (p *Pager) Pages() int { return p.pages }

// ForEachDescending calls fn for every message of the channel, newest first,
// until fn returns true or history runs out. Pages are fetched lazily, so
// stopping early saves the remaining round trips.
func ForEachDescending(ctx context.Context, f Fetcher, channelID string, fn func(Message) bool, opts ...PagerOption) error {
	p := NewPager(f, channelID, opts...)
	for {
		page, err := p.Next(ctx)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		for _, msg := range page {
			if fn(msg) {
				return nil
			}
		}
	}
}
