package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/caskdeck/caskdeck/internal/status"
	"github.com/caskdeck/caskdeck/internal/tui/styles"
)

const refreshInterval = 100 * time.Millisecond

// Model is the bubbletea model for the task board.
type Model struct {
	board        *status.Board
	snap         status.Snapshot
	spinner      spinner.Model
	bar          progress.Model
	width        int
	height       int
	exitWhenIdle bool
	quitting     bool
	now          func() time.Time
}

// Options configures a Model.
type Options struct {
	// ExitWhenIdle quits once every task on the board has finished.
	ExitWhenIdle bool
}

// NewModel creates a Model that renders board.
func NewModel(board *status.Board, opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Primary

	bar := progress.New(
		progress.WithGradient(string(styles.BlueColor), string(styles.SecondaryColor)),
		progress.WithWidth(30),
	)

	return Model{
		board:        board,
		snap:         board.Snapshot(),
		spinner:      sp,
		bar:          bar,
		exitWhenIdle: opts.ExitWhenIdle,
		now:          time.Now,
	}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the refresh tick and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.spinner.Tick)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = barWidth(msg.Width)
		return m, nil

	case tickMsg:
		m.snap = m.board.Snapshot()
		if m.Done() {
			m.quitting = true
			return m, tea.Quit
		}
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Done reports whether the model should exit because nothing is left to do.
func (m Model) Done() bool {
	return m.exitWhenIdle && m.snap.Counts.Total > 0 && m.snap.Counts.Active() == 0
}

// Snapshot returns the board state last rendered.
func (m Model) Snapshot() status.Snapshot {
	return m.snap
}

func barWidth(termWidth int) int {
	w := termWidth / 3
	switch {
	case w < 10:
		return 10
	case w > 50:
		return 50
	}
	return w
}
