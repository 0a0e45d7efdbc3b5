// Package eventlog is the terminal viewer behind `dixel events --follow`. It
// shows persisted events and appends new ones as other processes commit them.
package eventlog

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/dixel/internal/engine"
	"github.com/zjrosen/dixel/internal/log"
	"github.com/zjrosen/dixel/internal/presentation"
)

const (
	chromeHeight      = 6 // title, two dividers, footer, two borders
	viewportMinHeight = 3
	boxMinWidth       = 40
)

var (
	titleColor   = lipgloss.AdaptiveColor{Light: "#5A4FCF", Dark: "#A29BFE"}
	borderColor  = lipgloss.AdaptiveColor{Light: "#C0C0C0", Dark: "#4A4A4A"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF6B6B"}
	mintColor    = lipgloss.AdaptiveColor{Light: "#2E8B57", Dark: "#7BE495"}
	burnColor    = lipgloss.AdaptiveColor{Light: "#C05621", Dark: "#F6AD55"}
	settingColor = lipgloss.AdaptiveColor{Light: "#2B6CB0", Dark: "#90CDF4"}
)

// Source supplies persisted events in sequence order.
type Source interface {
	Events(ctx context.Context, filter engine.EventFilter) ([]engine.StoredEvent, error)
}

type eventsMsg struct {
	events []engine.StoredEvent
	err    error
}

type changedMsg struct{}

// Model is the event viewer state.
type Model struct {
	ctx      context.Context
	source   Source
	filter   engine.EventFilter
	changes  <-chan struct{}
	events   []presentation.EventDTO
	lastSeq  int64
	follow   bool
	err      error
	width    int
	height   int
	viewport viewport.Model
}

// New creates a viewer over source. changes signals that new events may have
// been committed; nil disables live updates.
func New(ctx context.Context, source Source, filter engine.EventFilter, changes <-chan struct{}) Model {
	return Model{
		ctx:     ctx,
		source:  source,
		filter:  filter,
		changes: changes,
		lastSeq: filter.AfterSeq,
		follow:  true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.waitForChange())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventsMsg:
		if msg.err != nil {
			m.err = msg.err
			log.ErrorErr(log.CatCLI, "loading events", msg.err)
			return m, nil
		}
		m.err = nil
		m.appendEvents(msg.events)
		return m, nil

	case changedMsg:
		return m, tea.Batch(m.fetch(), m.waitForChange())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "j", "down":
			m.viewport.ScrollDown(1)
			m.follow = m.viewport.AtBottom()
		case "k", "up":
			m.viewport.ScrollUp(1)
			m.follow = false
		case "g":
			m.viewport.GotoTop()
			m.follow = false
		case "G":
			m.viewport.GotoBottom()
			m.follow = true
		case "f":
			m.follow = !m.follow
			if m.follow {
				m.viewport.GotoBottom()
			}
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	boxWidth := m.boxWidth()

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(titleColor).PaddingLeft(1)
	dividerStyle := lipgloss.NewStyle().Foreground(borderColor)
	divider := dividerStyle.Render(strings.Repeat("─", boxWidth))

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title()))
	b.WriteString("\n")
	b.WriteString(divider)
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(divider)
	b.WriteString("\n")
	b.WriteString(m.footer())

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(boxWidth).
		Render(b.String())
}

// Events returns the events received so far.
func (m Model) Events() []presentation.EventDTO {
	return m.events
}

// Following reports whether new events scroll the view to the bottom.
func (m Model) Following() bool {
	return m.follow
}

func (m Model) fetch() tea.Cmd {
	ctx, source, filter := m.ctx, m.source, m.filter
	filter.AfterSeq = m.lastSeq
	return func() tea.Msg {
		events, err := source.Events(ctx, filter)
		return eventsMsg{events: events, err: err}
	}
}

func (m Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ctx, changes := m.ctx, m.changes
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			return changedMsg{}
		}
	}
}

// appendEvents adds events past lastSeq. Overlapping fetches may return the
// same rows twice.
func (m *Model) appendEvents(events []engine.StoredEvent) {
	added := 0
	for _, ev := range events {
		if ev.Seq <= m.lastSeq {
			continue
		}
		m.events = append(m.events, presentation.FromStoredEvent(ev))
		m.lastSeq = ev.Seq
		added++
	}
	if added == 0 {
		return
	}
	m.viewport.SetContent(m.content(m.contentWidth()))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) refreshViewport() {
	if m.width == 0 || m.height == 0 {
		return
	}
	offset := m.viewport.YOffset
	m.viewport = viewport.New(m.contentWidth(), max(m.height-chromeHeight, viewportMinHeight))
	m.viewport.SetContent(m.content(m.contentWidth()))
	if m.follow {
		m.viewport.GotoBottom()
	} else {
		m.viewport.SetYOffset(offset)
	}
}

func (m Model) content(width int) string {
	if len(m.events) == 0 {
		return lipgloss.NewStyle().Foreground(mutedColor).Italic(true).Render("No events yet")
	}
	lines := make([]string, len(m.events))
	for i, ev := range m.events {
		line := presentation.EventLine(ev)
		if width > 3 && ansi.StringWidth(line) > width {
			line = ansi.Truncate(line, width-3, "...")
		}
		lines[i] = lipgloss.NewStyle().Foreground(colorFor(ev.Name)).Render(line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) title() string {
	title := "Events"
	if !m.filter.Emitter.IsZero() {
		title += " · " + m.filter.Emitter.Short()
	}
	if m.filter.Name != "" {
		title += " · " + m.filter.Name
	}
	return title
}

func (m Model) footer() string {
	hint := lipgloss.NewStyle().Foreground(mutedColor)
	if m.err != nil {
		return lipgloss.NewStyle().Foreground(errorColor).Render(ansi.Truncate("error: "+m.err.Error(), m.contentWidth(), "..."))
	}
	mode := "paused"
	if m.follow {
		mode = "following"
	}
	return hint.Render(fmt.Sprintf("%d events · %s   [f] follow  [g/G] top/bottom  [q] quit", len(m.events), mode))
}

func (m Model) boxWidth() int {
	return max(m.width-2, boxMinWidth)
}

func (m Model) contentWidth() int {
	return m.boxWidth() - 2
}

func colorFor(name string) lipgloss.TerminalColor {
	switch name {
	case "Transfer", "CollectionCreated", "Initialized":
		return mintColor
	case "Burned", "WhitelistRemoved":
		return burnColor
	case "MetadataUpdated", "DescriptionUpdated", "ImplementationUpdated", "OwnershipTransferred",
		"BeneficiaryUpdated", "CreationFeeUpdated", "MintingFeeUpdated":
		return settingColor
	default:
		return lipgloss.NoColor{}
	}
}
