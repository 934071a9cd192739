// Package historytest provides an in-memory history source for tests.
package historytest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/notepid/pindoc/internal/history"
)

// Call records one FetchMessages invocation.
type Call struct {
	ChannelID string
	BeforeID  string
	Limit     int
}

// Memory is a history.Source backed by maps. Messages are kept per channel
// and served newest-first by CreatedAt.
type Memory struct {
	mu       sync.Mutex
	channels map[string]*history.Channel
	messages map[string][]history.Message
	calls    []Call

	// Err, when set, is returned by every FetchMessages call.
	Err error
}

// NewMemory returns an empty source.
func NewMemory() *Memory {
	return &Memory{
		channels: make(map[string]*history.Channel),
		messages: make(map[string][]history.Message),
	}
}

// AddChannel registers a channel or category.
func (m *Memory) AddChannel(ch history.Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[ch.ID] = &ch
}

// AddMessages appends messages to their channels.
func (m *Memory) AddMessages(msgs ...history.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		list := append(m.messages[msg.ChannelID], msg)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		})
		m.messages[msg.ChannelID] = list
	}
}

// Calls returns the fetches issued so far.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *Memory) FetchMessages(_ context.Context, channelID, beforeID string, limit int) ([]history.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{ChannelID: channelID, BeforeID: beforeID, Limit: limit})
	if m.Err != nil {
		return nil, m.Err
	}

	list := m.messages[channelID]
	start := 0
	if beforeID != "" {
		start = len(list)
		for i, msg := range list {
			if msg.ID == beforeID {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(list) {
		end = len(list)
	}
	return append([]history.Message(nil), list[start:end]...), nil
}

func (m *Memory) Channel(_ context.Context, id string) (*history.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[id]
	if !ok {
		return nil, fmt.Errorf("channel %s: %w", id, history.ErrNotFound)
	}
	c := *ch
	return &c, nil
}
