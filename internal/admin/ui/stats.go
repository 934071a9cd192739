package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/notepid/pindoc/internal/admin/app"
)

type statsModel struct {
	Done bool

	body string
	err  error
}

func newStatsModel(a *app.App) *statsModel {
	m := &statsModel{}
	stats, err := a.DB.GetStats()
	if err != nil {
		m.err = err
		return m
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Archive:  %s\n", a.Config.Archive.Path)
	fmt.Fprintf(&b, "Guilds:   %s\n", humanize.Comma(int64(stats.Guilds)))
	fmt.Fprintf(&b, "Channels: %s\n", humanize.Comma(int64(stats.Channels)))
	fmt.Fprintf(&b, "Messages: %s\n", humanize.Comma(int64(stats.Messages)))
	fmt.Fprintf(&b, "Pinned:   %s\n", humanize.Comma(int64(stats.Pinned)))
	m.body = b.String()
	return m
}

func (m *statsModel) Update(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc", "q", "enter":
			m.Done = true
		}
	}
	return nil
}

func (m *statsModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Stats error: %v\n\nPress Enter/Esc to go back.", m.err)
	}
	return titleStyle.Render("Archive Stats") + "\n\n" + m.body + "\n(esc back)"
}
