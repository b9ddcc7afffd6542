// Package screen runs the experience inside a full-screen terminal program.
// Bubble Tea owns the frame cadence and window size; the experience is only
// ever touched from the program's update loop.
package screen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"facestage/internal/assets"
	"facestage/internal/fsm"
	"facestage/internal/logging"
	"facestage/internal/render"
)

// Driver is the part of the experience the screen loop drives.
type Driver interface {
	HandleLoad(ctx context.Context, res assets.Result) error
	Tick(now time.Time) int
	State() fsm.State
}

type tickMsg time.Time

type loadMsg assets.Result

// Model is the Bubble Tea model wrapping one experience.
type Model struct {
	ctx      context.Context
	driver   Driver
	term     *render.Terminal
	loads    <-chan assets.Result
	interval time.Duration
	logger   *slog.Logger

	ticks int
	err   error
}

// New returns a model that waits on loads, then ticks driver every interval
// and shows term's latest frame.
func New(ctx context.Context, driver Driver, term *render.Terminal, loads <-chan assets.Result, interval time.Duration, logger *slog.Logger) *Model {
	if interval <= 0 {
		interval = time.Second / 30
	}
	return &Model{
		ctx:      ctx,
		driver:   driver,
		term:     term,
		loads:    loads,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "screen"),
	}
}

func waitForLoad(ch <-chan assets.Result) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return nil
		}
		return loadMsg(res)
	}
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(waitForLoad(m.loads), tick(m.interval))
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.term.Resize(msg.Width, msg.Height)
		m.logger.Debug("window resized",
			logging.Int("cols", msg.Width),
			logging.Int("rows", msg.Height),
			logging.Float64("scale", m.term.Placement().Scale),
		)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	case loadMsg:
		if err := m.driver.HandleLoad(m.ctx, assets.Result(msg)); err != nil {
			m.err = err
			return m, tea.Quit
		}
		return m, nil
	case tickMsg:
		m.driver.Tick(time.Time(msg))
		m.ticks++
		return m, tick(m.interval)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("facestage stopped: %v\n", m.err)
	}
	if m.driver.State() == fsm.LoadAssets {
		return "loading assets…\n"
	}
	return m.term.Frame()
}

// Err returns the error that ended the program, if any.
func (m *Model) Err() error {
	return m.err
}

// Ticks counts processed frame ticks.
func (m *Model) Ticks() int {
	return m.ticks
}

// Run drives m full-screen until the user quits, ctx ends or loading fails.
func Run(ctx context.Context, m *Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("screen: %w", err)
	}
	return m.Err()
}
