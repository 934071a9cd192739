package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"

	"github.com/notepid/pindoc/internal/admin/app"
)

type digestState int

const (
	digestStateForm digestState = iota
	digestStatePreview
)

// digestModel asks for a date range, renders the digest for the selected
// channels and previews it.
type digestModel struct {
	app *app.App
	ids []string

	width  int
	height int

	Done bool

	state  digestState
	form   *huh.Form
	view   viewport.Model
	data   []byte
	status string
	err    error

	start  string
	end    string
	output string
	render bool
}

func newDigestModel(a *app.App, ids []string) *digestModel {
	m := &digestModel{app: a, ids: ids, output: a.Config.Bot.AttachmentName, render: true}
	m.form = m.buildForm()
	m.view = viewport.New(0, 0)
	return m
}

func (m *digestModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Start date").Description("empty for all history, e.g. Jan/18/2021").
				Value(&m.start).Validate(m.optionalDate),
			huh.NewInput().Title("End date").Description("empty for today").
				Value(&m.end).Validate(m.optionalDate),
			huh.NewInput().Title("Save as").Value(&m.output).Validate(nonEmpty("file name")),
		),
		huh.NewGroup(
			huh.NewConfirm().Title(fmt.Sprintf("Render %d channel(s)?", len(m.ids))).Value(&m.render),
		),
	)
}

func (m *digestModel) SetSize(w, h int) {
	m.width, m.height = w, h
	m.view.Width = w
	m.view.Height = h - 3
}

func (m *digestModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m *digestModel) Update(msg tea.Msg) tea.Cmd {
	if m.err != nil {
		if k, ok := msg.(tea.KeyMsg); ok && (k.String() == "esc" || k.String() == "q" || k.String() == "enter") {
			m.Done = true
		}
		return nil
	}

	switch m.state {
	case digestStateForm:
		return m.updateForm(msg)
	default:
		return m.updatePreview(msg)
	}
}

func (m *digestModel) updateForm(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.Done = true
		return nil
	}

	updated, cmd := m.form.Update(msg)
	f, ok := updated.(*huh.Form)
	if !ok {
		m.err = fmt.Errorf("internal error: unexpected form model type")
		return nil
	}
	m.form = f

	switch m.form.State {
	case huh.StateCompleted:
		if !m.render {
			m.Done = true
			return nil
		}
		m.renderDigest()
		return nil
	case huh.StateAborted:
		m.Done = true
		return nil
	}
	return cmd
}

func (m *digestModel) renderDigest() {
	r, err := m.app.Range(strings.TrimSpace(m.start), strings.TrimSpace(m.end))
	if err != nil {
		m.err = err
		return
	}
	data, err := m.app.Render(r, m.ids)
	if err != nil {
		m.err = err
		return
	}
	m.data = data
	m.view.SetContent(string(data))
	m.view.GotoTop()
	m.state = digestStatePreview
	m.status = humanize.Bytes(uint64(len(data)))
}

func (m *digestModel) updatePreview(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc", "q":
			m.Done = true
			return nil
		case "s":
			path := strings.TrimSpace(m.output)
			if err := m.app.Save(path, m.data); err != nil {
				m.status = err.Error()
				return nil
			}
			m.status = fmt.Sprintf("saved %s (%s)", path, humanize.Bytes(uint64(len(m.data))))
			return nil
		}
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return cmd
}

func (m *digestModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Digest error: %v\n\nPress Enter/Esc to go back.", m.err)
	}
	if m.state == digestStateForm {
		return m.form.View() + "\n\n(esc to go back)"
	}
	footer := fmt.Sprintf("%3.f%% • %s • (s save, esc back)", m.view.ScrollPercent()*100, m.status)
	return titleStyle.Render("Preview") + "\n" + m.view.View() + "\n" + footer
}

func (m *digestModel) optionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || m.app.Dates.Valid(s) {
		return nil
	}
	return fmt.Errorf("unrecognized date %q, try Jan/18/2021", s)
}

func nonEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}
