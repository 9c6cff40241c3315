// Package tui provides a Bubble Tea terminal user interface for trackflyer.
package tui

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/trackflyer/internal/config"
	"github.com/handiism/trackflyer/internal/download"
	"github.com/handiism/trackflyer/internal/logging"
	"github.com/handiism/trackflyer/internal/model"
	"github.com/phuslu/log"
)

const (
	tickInterval = 200 * time.Millisecond
	maxJobLines  = 8
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	albumStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateLoading
	StateDownloading
	StateCancelling
	StateComplete
	StateError
)

var errCancelled = errors.New("cancelled by user")

// Message types
type (
	// SummaryMsg carries a summary rendered by the orchestrator.
	SummaryMsg struct {
		Text string
	}

	// LoadedMsg is sent when the albums behind the input are known.
	LoadedMsg struct {
		Service *download.Service
		Albums  []*model.Album
		Err     error
	}

	// DoneMsg is sent once the session tore down.
	DoneMsg struct {
		Err error
	}

	// TickMsg polls job stages.
	TickMsg struct{}
)

// ServiceFactory builds a download session for the given settings and sink.
type ServiceFactory func(settings *config.Settings, sink download.Sink) (*download.Service, error)

// programSink forwards summaries into the running program.
type programSink struct {
	program *tea.Program
}

func (s *programSink) Render(summary string) {
	if s.program != nil {
		s.program.Send(SummaryMsg{Text: summary})
	}
}

// jobLine is one in-flight job as displayed.
type jobLine struct {
	Key   string
	Stage model.Stage
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	factory   ServiceFactory
	sink      download.Sink
	logger    *log.Logger

	svc     *download.Service
	albums  []*model.Album
	summary string
	counts  model.BatchCounts
	jobs    []jobLine
	single  bool
	err     error

	// Options
	discography bool
	playlist    bool

	width  int
	height int
}

// NewModel creates a TUI model. Summaries reach the model through sink.
func NewModel(settings *config.Settings, factory ServiceFactory, sink download.Sink, logger *log.Logger) Model {
	ti := textinput.New()
	ti.Placeholder = "https://artist.bandcamp.com/album/name"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	return Model{
		state:       StateInput,
		textInput:   ti,
		spinner:     sp,
		progress:    prog,
		settings:    settings,
		factory:     factory,
		sink:        sink,
		logger:      logging.OrDiscard(logger),
		discography: settings.DownloadArtistDiscography,
		playlist:    settings.CreatePlaylist,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.svc != nil && m.state != StateComplete && m.state != StateError {
				return m, tea.Sequence(m.kill(), tea.Quit)
			}
			return m, tea.Quit

		case "esc":
			switch m.state {
			case StateInput:
				return m, tea.Quit
			case StateLoading, StateDownloading:
				m.state = StateCancelling
				m.err = errCancelled
				if m.svc != nil {
					return m, m.kill()
				}
			}

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				m.state = StateLoading
				return m, tea.Batch(m.load(), m.spinner.Tick)
			}

		case "ctrl+d":
			if m.state == StateInput {
				m.discography = !m.discography
			}

		case "ctrl+p":
			if m.state == StateInput {
				m.playlist = !m.playlist
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m = m.reset()
				return m, textinput.Blink
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case SummaryMsg:
		m.summary = msg.Text

	case LoadedMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			break
		}
		m.svc = msg.Service
		m.albums = msg.Albums
		if m.state == StateCancelling {
			// esc arrived while loading
			cmds = append(cmds, m.kill())
			break
		}
		if _, err := m.svc.Submit(m.albums); err != nil {
			m.state = StateError
			m.err = err
			break
		}
		m.state = StateDownloading
		cmds = append(cmds, m.waitDone(), m.tick())

	case TickMsg:
		if m.svc != nil && (m.state == StateDownloading || m.state == StateCancelling) {
			m.counts = m.svc.Counts()
			m.jobs = activeJobs(m.svc.Status().Snapshot())
			cmds = append(cmds, m.tick())
		}

	case DoneMsg:
		if m.svc != nil {
			m.counts = m.svc.Counts()
			m.single = m.svc.IsSingleDownload()
			if err := m.svc.WritePlaylists(m.albums); err != nil {
				m.logger.Warn().Err(err).Msg("could not write playlists")
			}
		}
		m.jobs = nil
		switch {
		case m.state == StateCancelling:
			m.state = StateError
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) reset() Model {
	m.state = StateInput
	m.svc = nil
	m.albums = nil
	m.summary = ""
	m.counts = model.BatchCounts{}
	m.jobs = nil
	m.single = false
	m.err = nil
	m.textInput.SetValue("")
	m.textInput.Focus()
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// load builds a session for the current options and expands the input.
func (m Model) load() tea.Cmd {
	settings := *m.settings
	settings.DownloadArtistDiscography = m.discography
	settings.CreatePlaylist = m.playlist
	input := m.textInput.Value()
	factory, sink := m.factory, m.sink

	return func() tea.Msg {
		svc, err := factory(&settings, sink)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		albums, err := svc.Load(context.Background(), input)
		if err != nil {
			_ = svc.Kill()
			return LoadedMsg{Err: err}
		}
		return LoadedMsg{Service: svc, Albums: albums}
	}
}

func (m Model) waitDone() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		<-svc.Done()
		return DoneMsg{Err: svc.Err()}
	}
}

func (m Model) kill() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return DoneMsg{Err: svc.Kill()}
	}
}

// activeJobs lists jobs that are downloading or converting, furthest along
// first.
func activeJobs(snapshot map[string]model.Stage) []jobLine {
	var lines []jobLine
	for key, st := range snapshot {
		if st.Kind == model.StageDownloading || st.Kind == model.StageConverting {
			lines = append(lines, jobLine{Key: key, Stage: st})
		}
	}
	slices.SortFunc(lines, func(a, b jobLine) int {
		if c := cmp.Compare(b.Stage.Kind, a.Stage.Kind); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Stage.Progress, a.Stage.Progress); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return lines
}

// completion is the share of jobs that reached a terminal stage.
func completion(c model.BatchCounts) float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Converted+c.Failed) / float64(c.Total)
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("♪ trackflyer"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Parallel Bandcamp downloads"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateLoading:
		b.WriteString(m.viewLoading())
	case StateDownloading, StateCancelling:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter Bandcamp URL:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s Download discography (ctrl+d)\n", checkbox(m.discography))
	fmt.Fprintf(&b, "  %s Create playlist (ctrl+p)\n", checkbox(m.playlist))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Download path: %s", m.settings.DownloadsPath)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Parallel downloads: %d", m.settings.MaxConcurrentDownloads)))
	b.WriteString("\n")

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewLoading() string {
	return m.spinner.View() + " " + subtitleStyle.Render("Fetching album info...") + "\n"
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if len(m.albums) > 0 {
		b.WriteString(successStyle.Render(fmt.Sprintf("Found %d album(s):", len(m.albums))))
		b.WriteString("\n")
		for _, album := range m.albums {
			b.WriteString(albumStyle.Render(fmt.Sprintf("  ♪ %s - %s (%d tracks)", album.Artist, album.Title, len(album.Tracks))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(m.progress.ViewAs(completion(m.counts)))
	b.WriteString("\n\n")

	b.WriteString(renderSummary(m.summary))
	b.WriteString("\n")

	shown := m.jobs
	if len(shown) > maxJobLines {
		shown = shown[:maxJobLines]
	}
	for _, job := range shown {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %-40s %s", job.Key, job.Stage)))
		b.WriteString("\n")
	}
	if extra := len(m.jobs) - len(shown); extra > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ... and %d more", extra)))
		b.WriteString("\n")
	}

	if m.state == StateCancelling {
		b.WriteString("\n")
		b.WriteString(warningStyle.Render(m.spinner.View() + " Cancelling..."))
		b.WriteString("\n")
	}

	return b.String()
}

// renderSummary styles the orchestrator summary: header first, then the
// rolling lines.
func renderSummary(summary string) string {
	if summary == "" {
		return ""
	}
	header, rest, _ := strings.Cut(summary, "\n")

	var b strings.Builder
	b.WriteString(infoStyle.Render(header))
	b.WriteString("\n")
	for line := range strings.SplitSeq(rest, "\n") {
		if line == "" {
			continue
		}
		b.WriteString("› " + line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewComplete() string {
	title := fmt.Sprintf("Downloaded %d tracks", m.counts.Converted)
	if m.single {
		title = "Track downloaded"
		if m.counts.Failed > 0 {
			title = "Track failed"
		}
	}

	body := fmt.Sprintf("%s\n\n%s", title, m.counts.Header())
	if m.counts.Failed > 0 {
		return boxStyle.Render(warningStyle.Render(body))
	}
	return boxStyle.Render(successStyle.Render(body))
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("✗ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		fmt.Fprintf(&b, "  %s\n", m.err)
	}
	if m.counts.Total > 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(m.counts.Header()))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • ctrl+d: discography • ctrl+p: playlist • esc: quit"
	case StateLoading, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// Run starts the TUI application.
func Run(settings *config.Settings, logger *log.Logger) error {
	sink := &programSink{}
	factory := func(s *config.Settings, sink download.Sink) (*download.Service, error) {
		return download.NewService(context.Background(), download.Options{
			Settings: s,
			Sink:     sink,
			Logger:   logger,
		})
	}

	fanout := download.Sinks{sink, download.NewLogSink(logger)}
	p := tea.NewProgram(NewModel(settings, factory, fanout, logger), tea.WithAltScreen())
	sink.program = p
	_, err := p.Run()
	return err
}
