package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/notepid/pindoc/internal/admin/app"
)

type screen int

const (
	screenHome screen = iota
	screenChannels
	screenDigest
	screenStats
)

type rootModel struct {
	app *app.App

	width  int
	height int

	active screen

	homeList list.Model
	err      error

	channels *channelsModel
	digest   *digestModel
	stats    *statsModel
}

type menuItem struct {
	title string
	desc  string
	to    screen
}

func (m menuItem) Title() string       { return m.title }
func (m menuItem) Description() string { return m.desc }
func (m menuItem) FilterValue() string { return m.title }

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func NewRootModel(a *app.App) tea.Model {
	items := []list.Item{
		menuItem{title: "Render Digest", desc: "Pick archived channels and preview their digest", to: screenChannels},
		menuItem{title: "Archive Stats", desc: "Count archived guilds, channels and pins", to: screenStats},
		menuItem{title: "Quit", desc: "Exit", to: -1},
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "pindoc"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)

	return &rootModel{
		app:      a,
		active:   screenHome,
		homeList: l,
	}
}

func (m *rootModel) Init() tea.Cmd {
	return nil
}

func (m *rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.homeList.SetSize(msg.Width, msg.Height-2)
		if m.channels != nil {
			m.channels.SetSize(msg.Width, msg.Height)
		}
		if m.digest != nil {
			m.digest.SetSize(msg.Width, msg.Height)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	}

	switch m.active {
	case screenHome:
		return m.updateHome(msg)
	case screenChannels:
		cmd := m.channels.Update(msg)
		if m.channels.Done {
			if m.channels.Proceed {
				ids := m.channels.Selected()
				m.channels = nil
				return m, m.openDigest(ids)
			}
			m.active = screenHome
			m.channels = nil
		}
		return m, cmd
	case screenDigest:
		cmd := m.digest.Update(msg)
		if m.digest.Done {
			m.active = screenHome
			m.digest = nil
		}
		return m, cmd
	case screenStats:
		cmd := m.stats.Update(msg)
		if m.stats.Done {
			m.active = screenHome
			m.stats = nil
		}
		return m, cmd
	default:
		return m, nil
	}
}

func (m *rootModel) updateHome(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.homeList, cmd = m.homeList.Update(msg)

	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "enter" {
		if it, ok := m.homeList.SelectedItem().(menuItem); ok {
			if it.to == -1 {
				return m, tea.Quit
			}
			m.activate(it.to)
			return m, nil
		}
	}
	return m, cmd
}

func (m *rootModel) activate(s screen) {
	m.active = s

	switch s {
	case screenChannels:
		m.channels = newChannelsModel(m.app)
		m.channels.SetSize(m.width, m.height)
	case screenStats:
		m.stats = newStatsModel(m.app)
	}
}

func (m *rootModel) openDigest(ids []string) tea.Cmd {
	m.active = screenDigest
	m.digest = newDigestModel(m.app, ids)
	m.digest.SetSize(m.width, m.height)
	return m.digest.Init()
}

func (m *rootModel) View() string {
	if m.err != nil {
		return errStyle.Render("Error: ") + m.err.Error()
	}

	switch m.active {
	case screenHome:
		return m.homeList.View()
	case screenChannels:
		return m.channels.View()
	case screenDigest:
		return m.digest.View()
	case screenStats:
		return m.stats.View()
	default:
		return titleStyle.Render("Unknown screen") + "\n" + fmt.Sprint(m.active)
	}
}
