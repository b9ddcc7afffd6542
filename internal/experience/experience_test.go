package experience_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"facestage/internal/assets"
	"facestage/internal/audio"
	"facestage/internal/clock"
	"facestage/internal/config"
	"facestage/internal/experience"
	"facestage/internal/fsm"
	"facestage/internal/logging"
	"facestage/internal/scene"
	"facestage/internal/session"
	"facestage/internal/share"
	"facestage/internal/testsupport"
)

const fixtureVertices = 4

type harness struct {
	t        *testing.T
	cfg      *config.Config
	exp      *experience.Experience
	capture  *testsupport.FakeCapture
	renderer *testsupport.RecordingRenderer
	sessions *session.Store
	now      time.Time
	ticks    int
}

func newHarness(t *testing.T, capturePoints int, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	opts = append([]testsupport.ConfigOption{testsupport.WithFixtureAssets(10, fixtureVertices)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Share.DwellSeconds = 1

	h := &harness{
		t:        t,
		cfg:      cfg,
		capture:  testsupport.NewFakeCapture(3, make([]scene.Vec3, capturePoints)),
		renderer: &testsupport.RecordingRenderer{},
		sessions: testsupport.MustOpenSessionStore(t, cfg),
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	store, err := share.NewLocal(cfg.Share.Dir)
	if err != nil {
		t.Fatalf("share store: %v", err)
	}
	ids := []string{"s1", "s2", "s3"}
	exp, err := experience.New(experience.Options{
		Config:   cfg,
		Logger:   logging.NewNop(),
		Renderer: h.renderer,
		Source:   h.capture,
		Sessions: h.sessions,
		Share:    store,
		Audio:    []audio.Option{audio.WithNow(func() time.Time { return h.now })},
		Now:      func() time.Time { return h.now },
		NewID: func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		},
	})
	if err != nil {
		t.Fatalf("experience.New: %v", err)
	}
	h.exp = exp
	t.Cleanup(func() { _ = exp.Close() })
	return h
}

func (h *harness) load() {
	h.t.Helper()
	bundle, err := assets.NewLoader(h.cfg, logging.NewNop()).Load(context.Background())
	if err != nil {
		h.t.Fatalf("load assets: %v", err)
	}
	if err := h.exp.HandleLoad(context.Background(), assets.Result{Bundle: bundle}); err != nil {
		h.t.Fatalf("HandleLoad: %v", err)
	}
}

// tick advances wall time by one frame and checks the gating invariant.
func (h *harness) tick() {
	h.t.Helper()
	h.now = h.now.Add(time.Second / 30)
	h.exp.Tick(h.now)
	h.ticks++
	if !h.exp.GatingHolds() {
		h.t.Fatalf("gating invariant broken at tick %d in state %s", h.ticks, h.exp.State())
	}
}

func (h *harness) tickUntil(cond func() bool, limit int) {
	h.t.Helper()
	for i := 0; i < limit; i++ {
		if cond() {
			return
		}
		h.tick()
	}
	if !cond() {
		h.t.Fatalf("condition not reached after %d ticks; state=%s frame=%d", limit, h.exp.State(), h.exp.Frame())
	}
}

func TestFullSessionLifecycle(t *testing.T) {
	h := newHarness(t, fixtureVertices)
	if h.exp.State() != fsm.LoadAssets {
		t.Fatalf("initial state = %s", h.exp.State())
	}
	if got := h.exp.Tick(h.now); got != -1 {
		t.Fatalf("tick before load = %d, want -1", got)
	}

	h.load()
	if h.exp.State() != fsm.CaptureFace || h.exp.SessionID() != "s1" {
		t.Fatalf("after load: state=%s session=%s", h.exp.State(), h.exp.SessionID())
	}
	if h.capture.Starts != 1 {
		t.Fatalf("capture starts = %d", h.capture.Starts)
	}

	var visited []fsm.State
	observe := func() {
		if n := len(visited); n == 0 || visited[n-1] != h.exp.State() {
			visited = append(visited, h.exp.State())
		}
	}
	observe()

	h.tickUntil(func() bool { observe(); return h.exp.State() == fsm.Playing }, 10)
	if h.exp.ClockMode() != clock.ModeLocked {
		t.Fatalf("clock should lock to audio on capture")
	}
	if !h.exp.Face().Prepared() || h.exp.Face().Deforms() != 3 {
		t.Fatalf("face not prepared from capture: deforms=%d", h.exp.Face().Deforms())
	}
	if h.capture.Active() {
		t.Fatal("capture should stop once complete")
	}

	h.tick()
	for _, name := range h.renderer.Visible {
		if name == experience.NodeWebcam {
			t.Fatal("webcam plane should be hidden during playback")
		}
	}

	h.tickUntil(func() bool { observe(); return h.exp.State() == fsm.Share }, 100)
	h.tickUntil(func() bool { observe(); return h.exp.SessionID() == "s2" }, 60)
	observe()

	want := []fsm.State{fsm.CaptureFace, fsm.Playing, fsm.Share, fsm.CaptureFace}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visited %v, want %v", visited, want)
		}
	}
	if h.renderer.Calls != h.ticks {
		t.Fatalf("render calls = %d, ticks = %d", h.renderer.Calls, h.ticks)
	}
	if h.capture.Starts != 2 || h.exp.ClockMode() != clock.ModeFreeRunning {
		t.Fatalf("second session should restart capture on a fresh clock")
	}

	if err := h.exp.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	first, err := h.sessions.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get s1: %v", err)
	}
	if first.Outcome != session.OutcomeShared || first.ShareKey == "" {
		t.Fatalf("first session not shared: %#v", first)
	}
	if _, err := os.Stat(filepath.Join(h.cfg.Share.Dir, filepath.FromSlash(first.ShareKey))); err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}
	second, err := h.sessions.Get(context.Background(), "s2")
	if err != nil {
		t.Fatalf("Get s2: %v", err)
	}
	if second.Outcome != session.OutcomeInProgress {
		t.Fatalf("second session outcome = %s", second.Outcome)
	}
}

func TestCaptureLongerThanAnimationStillPlays(t *testing.T) {
	h := newHarness(t, fixtureVertices)
	// Twenty capture ticks against a ten-frame animation: the free-running
	// frame at capture completion is already past the last authored frame.
	h.capture.Samples = 20
	h.load()

	h.tickUntil(func() bool { return h.exp.State() != fsm.CaptureFace }, 60)
	if h.exp.State() != fsm.Playing {
		t.Fatalf("state after capture = %s, want %s", h.exp.State(), fsm.Playing)
	}
	if h.exp.ClockMode() != clock.ModeLocked {
		t.Fatal("clock should be locked once capture completes")
	}

	h.tickUntil(func() bool {
		if h.exp.State() != fsm.Playing {
			t.Fatalf("left playback before any morph frame: state=%s", h.exp.State())
		}
		return h.exp.Face().Transform().Position.X > 0
	}, 5)
	if frame := h.exp.Frame(); frame > 9 {
		t.Fatalf("locked frame = %d, want within the animation", frame)
	}

	h.tickUntil(func() bool { return h.exp.State() == fsm.Share }, 100)
}

func TestControllerFailureIsIsolated(t *testing.T) {
	// Five captured points cannot take four-vertex morph weights, so face
	// morph fails every tick while the camera keeps running.
	h := newHarness(t, fixtureVertices+1)
	h.load()

	h.tickUntil(func() bool { return h.exp.State() == fsm.Playing }, 10)
	startFOV := h.exp.Camera().FOV
	h.tickUntil(func() bool { return h.exp.State() == fsm.Share }, 100)
	if h.exp.Camera().FOV == startFOV {
		t.Fatal("camera controller should keep animating despite morph failures")
	}
}

func TestLoadFailureStaysInLoadAssets(t *testing.T) {
	h := newHarness(t, fixtureVertices)
	loadErr := errors.New("keyframes unreadable")

	if err := h.exp.HandleLoad(context.Background(), assets.Result{Err: loadErr}); !errors.Is(err, loadErr) {
		t.Fatalf("HandleLoad error = %v", err)
	}
	if h.exp.State() != fsm.LoadAssets {
		t.Fatalf("state = %s, want loadAssets", h.exp.State())
	}
	if h.exp.Tick(h.now) != -1 || h.renderer.Calls != 0 {
		t.Fatal("no frames should render before assets load")
	}
}

func TestSecondLoadIsRejected(t *testing.T) {
	h := newHarness(t, fixtureVertices)
	h.load()
	if err := h.exp.HandleLoad(context.Background(), assets.Result{}); !errors.Is(err, experience.ErrAlreadyLoaded) {
		t.Fatalf("expected ErrAlreadyLoaded, got %v", err)
	}
}

func TestReplayFallsBackToSynthetic(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFixtureAssets(10, fixtureVertices))
	cfg.Capture.SynthFrames = 2
	renderer := &testsupport.RecordingRenderer{}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	exp, err := experience.New(experience.Options{
		Config:   cfg,
		Logger:   logging.NewNop(),
		Renderer: renderer,
		Now:      func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer exp.Close()

	res := <-assets.NewLoader(cfg, logging.NewNop()).Start(context.Background())
	if err := exp.HandleLoad(context.Background(), res); err != nil {
		t.Fatalf("HandleLoad: %v", err)
	}
	for i := 0; i < 5 && exp.State() != fsm.Playing; i++ {
		now = now.Add(time.Second / 30)
		exp.Tick(now)
	}
	if exp.State() != fsm.Playing {
		t.Fatalf("synthetic capture did not complete; state=%s", exp.State())
	}
}

func TestNewRequiresRenderer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := experience.New(experience.Options{Config: cfg}); err == nil {
		t.Fatal("expected error without renderer")
	}
}
