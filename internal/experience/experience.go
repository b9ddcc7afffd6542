package experience

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"facestage/internal/assets"
	"facestage/internal/audio"
	"facestage/internal/capture"
	"facestage/internal/clock"
	"facestage/internal/config"
	"facestage/internal/controller"
	"facestage/internal/face"
	"facestage/internal/fsm"
	"facestage/internal/logging"
	"facestage/internal/metrics"
	"facestage/internal/render"
	"facestage/internal/scene"
	"facestage/internal/services"
	"facestage/internal/session"
	"facestage/internal/share"
)

// ErrAlreadyLoaded is returned when load completion is delivered twice.
var ErrAlreadyLoaded = errors.New("experience already loaded")

// SessionLog records visitor milestones. *session.Store implements it.
type SessionLog interface {
	Begin(ctx context.Context, id string, at time.Time) (*session.Session, error)
	MarkCaptured(ctx context.Context, id string, at time.Time) error
	MarkCompleted(ctx context.Context, id string, at time.Time) error
	MarkShared(ctx context.Context, id, key string, at time.Time) error
}

// Overlayer is implemented by renderers that can draw the DEV overlay.
type Overlayer interface {
	SetOverlay(lines []string)
}

// Options supplies collaborators. Config, Logger and Renderer are required;
// the rest are optional.
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	Renderer render.Renderer
	// Source overrides the capture source chosen from config.
	Source   capture.Source
	Sessions SessionLog
	Share    share.Store
	Metrics  *metrics.Metrics
	// Audio options are applied to every playback, after the configured player.
	Audio []audio.Option
	Now   func() time.Time
	NewID func() string
}

// Experience is the running kiosk.
type Experience struct {
	cfg      *config.Config
	logger   *slog.Logger
	machine  *fsm.Machine
	renderer render.Renderer
	source   capture.Source
	sessions SessionLog
	share    share.Store
	metrics  *metrics.Metrics
	recorder *Recorder
	audio    []audio.Option
	clockNow func() time.Time
	newID    func() string

	ctx      context.Context
	bundle   *assets.Bundle
	scene    *scene.Scene
	camera   *scene.PerspectiveCamera
	initial  cameraPose
	webcam   *scene.Node
	face     *face.Mesh
	set      *controller.Set
	capture  *controller.Capture
	morph    *controller.FaceMorph
	cam      *controller.Camera
	clock    *clock.Clock
	playback *audio.Playback
	snapshot *render.Snapshot
	stats    *render.Stats

	sessionID  string
	now        time.Time
	shareSince time.Time
	frame      int
	closed     bool
}

// New wires the state machine and its hooks. The experience stays in
// LoadAssets until HandleLoad succeeds.
func New(opts Options) (*Experience, error) {
	if opts.Config == nil {
		return nil, services.Wrap(services.ErrConfiguration, "experience", "new", "config is required", nil)
	}
	if opts.Renderer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "experience", "new", "renderer is required", nil)
	}
	machine, err := fsm.NewExperience()
	if err != nil {
		return nil, err
	}
	logger := logging.NewComponentLogger(opts.Logger, "experience")
	e := &Experience{
		cfg:      opts.Config,
		logger:   logger,
		machine:  machine,
		renderer: opts.Renderer,
		source:   opts.Source,
		sessions: opts.Sessions,
		share:    opts.Share,
		metrics:  opts.Metrics,
		recorder: NewRecorder(opts.Logger, defaultRecorderBuffer),
		clockNow: opts.Now,
		newID:    opts.NewID,
		stats:    render.NewStats(),
		ctx:      context.Background(),
	}
	if e.clockNow == nil {
		e.clockNow = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if player := opts.Config.Audio.Player; player != "" {
		e.audio = append(e.audio, audio.WithPlayer(player, opts.Config.Audio.PlayerArgs))
	}
	e.audio = append(e.audio, audio.WithLogger(opts.Logger))
	e.audio = append(e.audio, opts.Audio...)

	machine.OnTransition(e.onTransition)
	machine.OnReject(e.onReject)
	machine.OnEnter(fsm.Entrance, func(fsm.Transition) { e.fire(fsm.EventStart) })
	machine.OnEnter(fsm.CaptureFace, func(fsm.Transition) { e.beginSession() })
	machine.OnEnter(fsm.Playing, func(fsm.Transition) { e.recordCaptured() })
	machine.OnEnter(fsm.Share, func(fsm.Transition) { e.enterShare() })
	e.metrics.SetState(machine.Current())
	return e, nil
}

// HandleLoad consumes the asset loader's result on the loop. On failure the
// experience stays in LoadAssets and the error is returned for the caller to
// act on. On success it builds the scene, registers controllers and fires
// loadComplete, which runs straight through Entrance into the first session.
func (e *Experience) HandleLoad(ctx context.Context, res assets.Result) error {
	if !e.machine.Is(fsm.LoadAssets) || e.bundle != nil {
		return ErrAlreadyLoaded
	}
	if res.Err != nil {
		logging.ErrorWithContext(e.logger, "asset loading failed", "assets_failed",
			logging.Error(res.Err),
			logging.String(logging.FieldErrorHint, "check paths.asset_dir and the [assets] manifest"),
		)
		return res.Err
	}
	if ctx != nil {
		e.ctx = ctx
	}
	if err := e.build(res.Bundle); err != nil {
		logging.ErrorWithContext(e.logger, "scene build failed", "scene_build_failed", logging.Error(err))
		return err
	}
	e.recorder.Start(e.ctx)
	e.now = e.clockNow()
	return e.machine.Fire(fsm.EventLoadComplete)
}

// Tick advances the experience by one clock tick at now and renders once.
// Before loading completes it is a no-op returning -1.
func (e *Experience) Tick(now time.Time) int {
	if e.closed || e.clock == nil || e.machine.Is(fsm.LoadAssets) {
		return -1
	}
	started := time.Now()
	e.now = now
	frame := e.clock.Tick(now)

	if o, ok := e.renderer.(Overlayer); ok && e.cfg.Debug.DevMode {
		o.SetOverlay(render.OverlayLines(e.frame, e.machine.Current(), e.clock.Mode().String(), e.stats))
	}
	if err := e.renderer.Render(e.scene, e.camera); err != nil {
		e.metrics.RenderFailure()
		logging.WarnWithContext(e.logger, "render failed", "render_failed",
			logging.Frame(frame),
			logging.Error(err),
			logging.String(logging.FieldImpact, "frame skipped"),
		)
	}

	elapsed := time.Since(started)
	e.stats.Record(elapsed)
	e.metrics.ObserveTick(elapsed)
	return frame
}

// onFrame is the clock subscriber: controllers first, then the
// frame-driven transitions. Those only run when the state did not change
// during the update, since a capture completing mid-update locks the clock
// and leaves frame on the free-running timeline.
func (e *Experience) onFrame(frame int) {
	e.frame = frame
	state := e.machine.Current()
	e.set.Update(frame)
	if e.machine.Current() != state {
		return
	}

	switch state {
	case fsm.Playing:
		if frame > e.bundle.Keyframes.LastFrame() || (e.playback != nil && e.playback.Ended()) {
			e.fire(fsm.EventPlayCompleted)
		}
	case fsm.Share:
		dwell := time.Duration(e.cfg.Share.DwellSeconds) * time.Second
		if e.now.Sub(e.shareSince) >= dwell {
			e.fire(fsm.EventGoEntrance)
		}
	}
}

// beginSession runs on entering CaptureFace: a fresh clock, a reset face and
// webcam, capture restarted and the capture controller alone enabled.
func (e *Experience) beginSession() {
	e.stopPlayback()
	e.sessionID = e.newID()
	logger := e.sessionLogger()

	c, err := clock.New(float64(e.cfg.Clock.FPS), e.now)
	if err != nil {
		logging.ErrorWithContext(logger, "clock init failed", "clock_failed", logging.Error(err))
		return
	}
	c.Subscribe(e.onFrame)
	e.clock = c
	e.frame = 0

	e.resetCamera()
	e.face.Reset()
	e.webcam.Visible = true
	e.capture.SetEnabled(true)
	e.morph.SetEnabled(false)
	e.cam.SetEnabled(false)

	if err := e.source.Start(); err != nil {
		logging.ErrorWithContext(logger, "capture start failed", "capture_failed",
			logging.Error(services.Wrap(services.ErrCapture, "capture", "start", "", err)),
			logging.String(logging.FieldErrorHint, "check capture.source and the webcam"),
		)
	}
	logger.Info("session started", logging.String(logging.FieldEventType, "session_started"))
	e.metrics.SessionMilestone("started")

	if e.sessions != nil {
		id, at := e.sessionID, e.now
		e.recorder.Submit(Job{Name: "session begin", Run: func(ctx context.Context) error {
			_, err := e.sessions.Begin(ctx, id, at)
			return err
		}})
	}
}

// onCaptureComplete is raised from inside the capture source's Poll. It
// hands the face from live capture to the authored performance.
func (e *Experience) onCaptureComplete() {
	if !e.machine.Is(fsm.CaptureFace) {
		return
	}
	logger := e.sessionLogger()

	e.source.Stop()
	e.webcam.Visible = false
	e.face.PrepareForMorph()
	e.face.Node().MatrixAutoUpdate = true
	e.capture.SetEnabled(false)
	e.morph.SetEnabled(true)
	e.cam.SetEnabled(true)

	e.playback = audio.NewPlayback(e.bundle.Audio, e.audio...)
	if err := e.playback.Play(e.ctx); err != nil {
		logging.WarnWithContext(logger, "soundtrack playback failed", "audio_failed", logging.Error(err))
	}
	if err := e.clock.Lock(e.playback); err != nil {
		logging.WarnWithContext(logger, "clock lock failed", "clock_lock_failed", logging.Error(err))
	}
	logger.Info("capture complete",
		logging.String(logging.FieldEventType, "capture_complete"),
		logging.Int("vertices", len(e.face.Vertices())),
		logging.Int("samples", e.face.Deforms()),
	)
	e.fire(fsm.EventCaptured)
}

func (e *Experience) recordCaptured() {
	e.metrics.SessionMilestone("captured")
	if e.sessions == nil {
		return
	}
	id, at := e.sessionID, e.now
	e.recorder.Submit(Job{Name: "session captured", Run: func(ctx context.Context) error {
		return e.sessions.MarkCaptured(ctx, id, at)
	}})
}

// enterShare stops the soundtrack, starts the dwell timer and hands the
// final frame to the share store.
func (e *Experience) enterShare() {
	e.shareSince = e.now
	e.stopPlayback()
	e.metrics.SessionMilestone("completed")
	e.sessionLogger().Info("playback complete",
		logging.String(logging.FieldEventType, "playback_complete"),
		logging.Frame(e.frame),
	)

	id, at := e.sessionID, e.now
	if e.sessions != nil {
		e.recorder.Submit(Job{Name: "session completed", Run: func(ctx context.Context) error {
			return e.sessions.MarkCompleted(ctx, id, at)
		}})
	}
	if e.share == nil || e.snapshot == nil {
		return
	}
	png, err := e.captureSnapshot()
	if err != nil {
		logging.WarnWithContext(e.sessionLogger(), "snapshot render failed", "snapshot_failed", logging.Error(err))
		return
	}
	key := share.SnapshotKey(e.cfg.Share.S3Prefix, id, at)
	e.recorder.Submit(Job{Name: "share snapshot", Run: func(ctx context.Context) error {
		ctx = services.WithSessionID(ctx, id)
		info, err := e.share.Put(ctx, key, bytes.NewReader(png), "image/png")
		if err != nil {
			return fmt.Errorf("store snapshot: %w", err)
		}
		logging.WithContext(ctx, e.logger).Info("snapshot shared",
			logging.String(logging.FieldEventType, "snapshot_shared"),
			logging.String("key", info.Key),
			logging.String("url", info.URL),
		)
		e.metrics.SessionMilestone("shared")
		if e.sessions == nil {
			return nil
		}
		return e.sessions.MarkShared(ctx, id, info.Key, at)
	}})
}

func (e *Experience) stopPlayback() {
	if e.playback != nil {
		e.playback.Stop()
	}
}

func (e *Experience) fire(ev fsm.Event) {
	// Rejections are reported through onReject.
	_ = e.machine.Fire(ev)
}

func (e *Experience) onTransition(tr fsm.Transition) {
	e.metrics.Transition(tr)
	e.logger.Info("state transition",
		logging.String(logging.FieldEventType, "state_transition"),
		logging.Event(string(tr.Event)),
		logging.String("from", string(tr.From)),
		logging.State(string(tr.To)),
		logging.SessionID(e.sessionID),
	)
}

func (e *Experience) onReject(err error) {
	var te *fsm.TransitionError
	if errors.As(err, &te) {
		e.metrics.Rejected(te.Event)
	}
	logging.WarnWithContext(e.logger, "state transition rejected", "transition_rejected",
		logging.Error(err),
		logging.State(string(e.machine.Current())),
		logging.String(logging.FieldImpact, "event ignored"),
	)
}

func (e *Experience) sessionLogger() *slog.Logger {
	ctx := services.WithSessionID(e.ctx, e.sessionID)
	ctx = services.WithState(ctx, string(e.machine.Current()))
	return logging.WithContext(ctx, e.logger)
}

// Close stops playback and capture and drains the recorder. It is safe to
// call more than once.
func (e *Experience) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.stopPlayback()
	if e.source != nil && e.source.Active() {
		e.source.Stop()
	}
	e.recorder.Stop()
	return nil
}
