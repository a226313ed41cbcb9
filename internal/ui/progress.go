// Package ui renders batch capture progress in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"argon/internal/capture"
)

// passWeight is the share of a file's work finished once a pass starts.
var passWeight = map[capture.Pass]float64{
	capture.PassLoad:     0.05,
	capture.PassRewrite:  0.2,
	capture.PassStage:    0.5,
	capture.PassValidate: 0.8,
	capture.PassExport:   0.9,
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

type fileItem struct {
	path    string
	status  capture.Status
	pass    capture.Pass
	elapsed time.Duration
}

func (it *fileItem) finished() bool {
	switch it.status {
	case capture.StatusDone, capture.StatusCached, capture.StatusError:
		return true
	}
	return false
}

// label is the status column: the running pass, or the final status.
func (it *fileItem) label() string {
	if it.status == capture.StatusWorking && it.pass != "" {
		return string(it.pass)
	}
	return string(it.status)
}

func (it *fileItem) fraction() float64 {
	if it.finished() {
		return 1
	}
	return passWeight[it.pass]
}

type progressModel struct {
	title   string
	events  <-chan capture.Event
	spinner spinner.Model
	bar     progress.Model
	items   []fileItem
	byPath  map[string]*fileItem
	width   int
	done    bool
}

type eventMsg capture.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model showing one line per file.
// The model quits when events is closed.
func NewProgressModel(title string, files []string, events <-chan capture.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = activeStyle

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(76)),
		items:   make([]fileItem, len(files)),
		byPath:  make(map[string]*fileItem, len(files)),
		width:   80,
	}
	for i, file := range files {
		m.items[i] = fileItem{path: file, status: capture.StatusQueued}
		m.byPath[file] = &m.items[i]
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(capture.Event(msg)), m.listen())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = max(10, msg.Width-4)
		}
		return m, nil
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

// apply folds ev into its file's line. Pass events carry the elapsed
// time of the pass that just ended; events for unknown files are ignored.
func (m *progressModel) apply(ev capture.Event) tea.Cmd {
	it, ok := m.byPath[ev.File]
	if !ok {
		return nil
	}
	it.elapsed += ev.Elapsed
	switch {
	case ev.Status == capture.StatusWorking && ev.Pass != "":
		it.status = capture.StatusWorking
		it.pass = ev.Pass
	case ev.Pass == "" || ev.Status == capture.StatusError:
		it.status = ev.Status
	}
	return m.bar.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 1
	}
	total := 0.0
	for i := range m.items {
		total += m.items[i].fraction()
	}
	return total / float64(len(m.items))
}

// counts returns the finished, failed and cached file counts.
func (m *progressModel) counts() (finished, failed, cached int) {
	for i := range m.items {
		it := &m.items[i]
		if it.finished() {
			finished++
		}
		switch it.status {
		case capture.StatusError:
			failed++
		case capture.StatusCached:
			cached++
		}
	}
	return finished, failed, cached
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	finished, failed, cached := m.counts()
	header := fmt.Sprintf("%s (%d/%d", m.title, finished, len(m.items))
	if failed > 0 {
		header += fmt.Sprintf(", %d failed", failed)
	}
	if cached > 0 {
		header += fmt.Sprintf(", %d cached", cached)
	}
	header += ")"
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")
	nameWidth := max(20, m.width-28)
	for i := range m.items {
		it := &m.items[i]
		status := statusStyle(it).Render(fmt.Sprintf("%10s", it.label()))
		line := fmt.Sprintf("  %s %s", status, truncate(it.path, nameWidth))
		if it.elapsed > 0 {
			line += " " + dimStyle.Render(it.elapsed.Round(time.Millisecond).String())
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

func statusStyle(it *fileItem) lipgloss.Style {
	switch it.status {
	case capture.StatusDone, capture.StatusCached:
		return okStyle
	case capture.StatusError:
		return failStyle
	case capture.StatusQueued:
		return dimStyle
	default:
		return activeStyle
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
