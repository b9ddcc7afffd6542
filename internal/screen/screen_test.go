package screen_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"facestage/internal/assets"
	"facestage/internal/fsm"
	"facestage/internal/logging"
	"facestage/internal/render"
	"facestage/internal/screen"
)

type fakeDriver struct {
	state   fsm.State
	loadErr error
	loads   int
	ticks   []time.Time
}

func (f *fakeDriver) HandleLoad(_ context.Context, res assets.Result) error {
	f.loads++
	if res.Err != nil {
		return res.Err
	}
	if f.loadErr != nil {
		return f.loadErr
	}
	f.state = fsm.CaptureFace
	return nil
}

func (f *fakeDriver) Tick(now time.Time) int {
	f.ticks = append(f.ticks, now)
	return len(f.ticks)
}

func (f *fakeDriver) State() fsm.State { return f.state }

func newModel(driver *fakeDriver, loads chan assets.Result) (*screen.Model, *render.Terminal) {
	term := render.NewTerminal(10, 4)
	return screen.New(context.Background(), driver, term, loads, time.Millisecond, logging.NewNop()), term
}

func TestLoadThenTicks(t *testing.T) {
	driver := &fakeDriver{state: fsm.LoadAssets}
	loads := make(chan assets.Result, 1)
	m, _ := newModel(driver, loads)

	if !strings.Contains(m.View(), "loading") {
		t.Fatalf("expected loading view, got %q", m.View())
	}
	if m.Init() == nil {
		t.Fatal("Init should schedule load and tick commands")
	}

	if _, cmd := m.Update(screen.LoadMsg(assets.Result{Bundle: &assets.Bundle{}})); cmd != nil {
		t.Fatal("successful load should not quit")
	}
	if driver.state != fsm.CaptureFace || m.Err() != nil {
		t.Fatalf("load not applied: state=%s err=%v", driver.state, m.Err())
	}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, cmd := m.Update(screen.TickMsg(now.Add(time.Duration(i) * time.Millisecond)))
		if cmd == nil {
			t.Fatal("tick should schedule the next tick")
		}
	}
	if len(driver.ticks) != 3 || m.Ticks() != 3 {
		t.Fatalf("ticks = %d", len(driver.ticks))
	}
}

func TestLoadFailureQuits(t *testing.T) {
	driver := &fakeDriver{state: fsm.LoadAssets}
	m, _ := newModel(driver, nil)
	boom := errors.New("missing keyframes")

	_, cmd := m.Update(screen.LoadMsg(assets.Result{Err: boom}))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
	if !errors.Is(m.Err(), boom) || !strings.Contains(m.View(), "missing keyframes") {
		t.Fatalf("err=%v view=%q", m.Err(), m.View())
	}
}

func TestWindowSizeResizesTerminal(t *testing.T) {
	driver := &fakeDriver{state: fsm.Playing}
	m, term := newModel(driver, nil)
	term.SetTarget(160, 90)

	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	cols, rows := term.Size()
	if cols != 80 || rows != 20 {
		t.Fatalf("size = %dx%d", cols, rows)
	}
	if got := term.Placement().Scale; got != 0.5 {
		t.Fatalf("scale = %v, want 0.5", got)
	}
}

func TestQuitKeys(t *testing.T) {
	m, _ := newModel(&fakeDriver{}, nil)
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("%s should quit", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%s should quit", key)
		}
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}); cmd != nil {
		t.Fatal("other keys are ignored")
	}
}
