package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/notepid/pindoc/internal/admin/app"
	"github.com/notepid/pindoc/internal/message"
)

// channelsModel lists archived channels and lets the user pick the ones to
// put in a digest.
type channelsModel struct {
	app *app.App

	width  int
	height int

	Done    bool
	Proceed bool

	list list.Model
	err  error
}

type channelItem struct {
	info     *message.ChannelInfo
	selected bool
}

func (i channelItem) Title() string {
	mark := "[ ]"
	if i.selected {
		mark = "[x]"
	}
	prefix := "#"
	if i.info.Kind == "category" {
		prefix = ""
	}
	return fmt.Sprintf("%s %s%s", mark, prefix, i.info.Name)
}

func (i channelItem) Description() string {
	return fmt.Sprintf("%s • %d messages • %d pinned", i.info.Kind, i.info.TotalMsgs, i.info.Pinned)
}

func (i channelItem) FilterValue() string { return i.info.Name }

func newChannelsModel(a *app.App) *channelsModel {
	m := &channelsModel{app: a}
	m.reload()
	return m
}

func (m *channelsModel) SetSize(w, h int) {
	m.width, m.height = w, h
	m.list.SetSize(w, h-2)
}

// Selected returns the IDs of the ticked channels in list order.
func (m *channelsModel) Selected() []string {
	var ids []string
	for _, it := range m.list.Items() {
		if c, ok := it.(channelItem); ok && c.selected {
			ids = append(ids, c.info.ID)
		}
	}
	return ids
}

func (m *channelsModel) Update(msg tea.Msg) tea.Cmd {
	if m.err != nil {
		if k, ok := msg.(tea.KeyMsg); ok && (k.String() == "esc" || k.String() == "q" || k.String() == "enter") {
			m.Done = true
		}
		return nil
	}

	if k, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch k.String() {
		case "q", "esc":
			m.Done = true
			return nil
		case " ", "x":
			m.toggle()
			return nil
		case "enter":
			if len(m.Selected()) == 0 {
				return m.list.NewStatusMessage("Select at least one channel (space)")
			}
			m.Proceed = true
			m.Done = true
			return nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

func (m *channelsModel) toggle() {
	idx := m.list.Index()
	it, ok := m.list.SelectedItem().(channelItem)
	if !ok {
		return
	}
	it.selected = !it.selected
	m.list.SetItem(idx, it)
}

func (m *channelsModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Channels error: %v\n\nPress Enter/Esc to go back.", m.err)
	}
	return m.list.View() + "\n(space select, enter continue, esc back)"
}

func (m *channelsModel) reload() {
	channels, err := m.app.Messages.ListChannels(context.Background())
	if err != nil {
		m.err = err
		return
	}

	items := make([]list.Item, 0, len(channels))
	for _, c := range channels {
		items = append(items, channelItem{info: c})
	}

	m.list = list.New(items, list.NewDefaultDelegate(), m.width, m.height-2)
	m.list.Title = "Archived Channels"
	m.list.SetShowStatusBar(false)
	m.list.SetFilteringEnabled(true)
	m.list.SetShowHelp(true)
}
