package display

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00D4AA"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00D4AA")).
			Padding(0, 1)
)

// ConnectionMsg reports the outcome of the client connection to the UI
type ConnectionMsg struct {
	Err error
}

// feedUpdatedMsg is sent when the feed has a new latest event
type feedUpdatedMsg struct{}

// Model is the bubbletea model for the feed
type Model struct {
	feed     *Feed
	title    string
	viewport viewport.Model
	spinner  spinner.Model

	// done stops the feed watcher; nil outside a program
	done <-chan struct{}

	ready    bool
	received bool
	status   string
	connErr  error
	width    int
	height   int
}

// NewModel creates a model rendering feed
func NewModel(feed *Feed, title string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	m := Model{
		feed:    feed,
		title:   title,
		spinner: sp,
		status:  "connecting",
	}
	if snap := feed.Snapshot(); snap.Count > 0 {
		m.received = true
	}
	return m
}

// Init starts the spinner and the feed watcher
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.feed, m.done))
}

// waitForUpdate blocks until the feed changes or done is closed
func waitForUpdate(feed *Feed, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-feed.Updates():
			return feedUpdatedMsg{}
		case <-done:
			return nil
		}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case feedUpdatedMsg:
		m.received = true
		if m.ready {
			m.viewport.SetContent(m.feed.Render())
			m.viewport.GotoTop()
		}
		return m, waitForUpdate(m.feed, m.done)

	case ConnectionMsg:
		// The feed keeps whatever it last showed
		if msg.Err != nil {
			m.status = "connection failed"
			m.connErr = msg.Err
		} else {
			m.status = "connected"
			m.connErr = nil
		}
		return m, nil

	case spinner.TickMsg:
		if m.received {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) resize() {
	frameW, frameH := boxStyle.GetFrameSize()
	w := m.width - frameW
	h := m.height - frameH - lipgloss.Height(m.header()) - lipgloss.Height(m.footer())
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	if !m.ready {
		m.viewport = viewport.New(w, h)
		m.ready = true
	} else {
		m.viewport.Width = w
		m.viewport.Height = h
	}
	m.viewport.SetContent(m.feed.Render())
}

func (m Model) header() string {
	status := statusStyle.Render(m.status)
	if m.connErr != nil {
		status = errorStyle.Render(fmt.Sprintf("%s: %v", m.status, m.connErr))
	}
	return titleStyle.Render(m.title) + "  " + status
}

func (m Model) footer() string {
	snap := m.feed.Snapshot()
	info := "no events yet"
	if snap.Count > 0 && snap.Event != nil {
		info = fmt.Sprintf("%d received, last at %s, posted %s", snap.Count,
			snap.Updated.Format("15:04:05"), snap.Event.CreatedAt.Time().Format(time.DateTime))
	}
	return helpStyle.Render(info + " • ↑/↓ scroll • q quit")
}

// View renders the UI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(m.header())
	s.WriteString("\n")

	switch {
	case !m.ready:
		s.WriteString(m.spinner.View() + " starting...")
	case !m.received:
		body := m.spinner.View() + " waiting for events\n\n" + m.feed.Render()
		s.WriteString(boxStyle.Width(m.viewport.Width).Render(body))
	default:
		s.WriteString(boxStyle.Render(m.viewport.View()))
	}

	s.WriteString("\n")
	s.WriteString(m.footer())
	return s.String()
}

// NewProgram creates the terminal program for m. It stops when ctx is done.
func NewProgram(ctx context.Context, m Model, opts ...tea.ProgramOption) *tea.Program {
	m.done = ctx.Done()
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	return tea.NewProgram(m, opts...)
}
