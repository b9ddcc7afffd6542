package kiosk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"

	"facestage/internal/assets"
	"facestage/internal/capture"
	"facestage/internal/config"
	"facestage/internal/experience"
	"facestage/internal/logging"
	"facestage/internal/metrics"
	"facestage/internal/preflight"
	"facestage/internal/render"
	"facestage/internal/screen"
	"facestage/internal/services"
	"facestage/internal/session"
	"facestage/internal/share"
)

// ErrAlreadyRunning is returned when another kiosk holds the instance lock.
var ErrAlreadyRunning = errors.New("another facestage instance is already running")

const (
	defaultCols = 160
	defaultRows = 45
)

// Options configures process runtime behavior.
type Options struct {
	// Headless forces the ticker loop even when stdout is a terminal.
	Headless bool
	// FramesDir overrides render.frames_dir.
	FramesDir string
	// MaxTicks stops a headless run after that many ticks. Zero runs until
	// the context ends.
	MaxTicks int
	// Logger replaces the config-derived logger.
	Logger *slog.Logger
	// Stdout is consulted for terminal detection; defaults to os.Stdout.
	Stdout *os.File
}

// Kiosk holds the long-lived collaborators of one run.
type Kiosk struct {
	cfg      *config.Config
	logger   *slog.Logger
	lock     *flock.Flock
	sessions *session.Store
	metrics  *metrics.Metrics
	server   *metrics.Server
	monitor  *capture.DeviceMonitor
	term     *render.Terminal
	exp      *experience.Experience
	loader   *assets.Loader
}

// Run executes a kiosk until ctx ends, the user quits or loading fails.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return services.Wrap(services.ErrConfiguration, "kiosk", "run", "config is required", nil)
	}
	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.FramesDir != "" {
		cfg.Render.FramesDir = opts.FramesDir
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	interactive := !opts.Headless && isatty.IsTerminal(stdout.Fd())

	if err := cfg.EnsureDirectories(); err != nil {
		return services.Wrap(services.ErrConfiguration, "kiosk", "run", "create directories", err)
	}
	logger := opts.Logger
	if logger == nil {
		var err error
		if logger, err = logging.NewFromConfig(cfg, interactive); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	k, err := Open(signalCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer k.Close()

	loads := k.loader.Start(signalCtx)
	if interactive {
		return k.runScreen(signalCtx, loads)
	}
	return k.runHeadless(signalCtx, loads, opts.MaxTicks)
}

// Open acquires the instance lock, runs preflight and wires every
// collaborator. The experience is created but not yet loaded.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Kiosk, error) {
	k := &Kiosk{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "kiosk"),
		lock:   flock.New(cfg.LockPath()),
	}
	ok, err := k.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}

	if err := k.open(ctx, logger); err != nil {
		k.Close()
		return nil, err
	}
	return k, nil
}

func (k *Kiosk) open(ctx context.Context, logger *slog.Logger) error {
	cfg := k.cfg
	if err := k.preflight(ctx); err != nil {
		return err
	}

	k.metrics = metrics.New()
	k.server = metrics.NewServer(cfg.Metrics.Bind, k.metrics, logger)
	if err := k.server.Start(ctx); err != nil {
		return services.Wrap(services.ErrConfiguration, "kiosk", "metrics", "start listener", err)
	}

	store, err := session.Open(cfg)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	k.sessions = store
	if n, err := store.AbandonOpen(ctx); err != nil {
		logging.WarnWithContext(k.logger, "failed to close stale sessions", "sessions_abandon_failed", logging.Error(err))
	} else if n > 0 {
		k.logger.Info("closed sessions left open by a previous run",
			logging.String(logging.FieldEventType, "sessions_abandoned"),
			logging.Int64("count", n),
		)
	}

	shareStore, err := share.Open(ctx, cfg)
	if err != nil {
		return err
	}

	k.term = render.NewTerminal(defaultCols, defaultRows)
	k.term.SetTarget(cfg.Render.Width, cfg.Render.Height)
	var renderer render.Renderer = k.term
	if cfg.Render.FramesDir != "" {
		snap, err := render.NewSnapshot(render.SnapshotConfig{
			Width:     cfg.Render.Width,
			Height:    cfg.Render.Height,
			FramesDir: cfg.Render.FramesDir,
		})
		if err != nil {
			return err
		}
		renderer = render.Tee{k.term, snap}
	}

	opts := experience.Options{
		Config:   cfg,
		Logger:   logger,
		Renderer: renderer,
		Sessions: store,
		Metrics:  k.metrics,
	}
	if shareStore != nil {
		opts.Share = shareStore
	}
	exp, err := experience.New(opts)
	if err != nil {
		return err
	}
	k.exp = exp
	k.loader = assets.NewLoader(cfg, logger, assets.WithAttemptObserver(k.metrics.AssetAttemptFailed))

	if cfg.Capture.MonitorHotplug {
		k.monitor = capture.NewDeviceMonitor(cfg.Capture.Device, logger, k.onDeviceEvent)
		if err := k.monitor.Start(ctx); err != nil {
			logging.WarnWithContext(k.logger, "webcam hotplug monitor unavailable", "device_monitor_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "webcam removal will not be reported"),
			)
		}
	}

	k.logger.Info("kiosk ready",
		logging.String(logging.FieldEventType, "kiosk_ready"),
		logging.String("asset_dir", cfg.Paths.AssetDir),
		logging.String("session_db", store.Path()),
		logging.String("capture_source", cfg.Capture.Source),
		logging.Bool("share_enabled", shareStore != nil),
		logging.String("metrics_addr", k.server.Addr()),
		logging.String("frames_dir", cfg.Render.FramesDir),
	)
	return nil
}

// preflight logs every failed check. Missing assets only warn; the loader
// owns that failure and its retry policy.
func (k *Kiosk) preflight(ctx context.Context) error {
	var blocking []string
	for _, r := range preflight.Failed(preflight.RunAll(ctx, k.cfg)) {
		logging.WarnWithContext(k.logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
		)
		if strings.HasPrefix(r.Name, "Asset ") {
			continue
		}
		blocking = append(blocking, r.Name)
	}
	if len(blocking) > 0 {
		return services.Wrap(services.ErrConfiguration, "kiosk", "preflight",
			"failed: "+strings.Join(blocking, ", "), nil)
	}
	return nil
}

func (k *Kiosk) onDeviceEvent(ev capture.DeviceEvent) {
	if ev.Present {
		k.logger.Info("webcam connected",
			logging.String(logging.FieldEventType, "webcam_connected"),
			logging.String("device", ev.Device),
		)
		return
	}
	logging.WarnWithContext(k.logger, "webcam disconnected", "webcam_disconnected",
		logging.String("device", ev.Device),
		logging.String(logging.FieldErrorHint, "reconnect the webcam"),
		logging.String(logging.FieldImpact, "live capture unavailable until reconnected"),
	)
}

// Experience returns the driven experience.
func (k *Kiosk) Experience() *experience.Experience {
	return k.exp
}

// Metrics returns the process metrics.
func (k *Kiosk) Metrics() *metrics.Metrics {
	return k.metrics
}

func (k *Kiosk) interval() time.Duration {
	return time.Second / time.Duration(max(k.cfg.Clock.FPS, 1))
}

func (k *Kiosk) runScreen(ctx context.Context, loads <-chan assets.Result) error {
	m := screen.New(ctx, k.exp, k.term, loads, k.interval(), k.logger)
	return screen.Run(ctx, m)
}

// runHeadless drives the experience from a ticker. Load results and ticks
// arrive on one goroutine.
func (k *Kiosk) runHeadless(ctx context.Context, loads <-chan assets.Result, maxTicks int) error {
	ticker := time.NewTicker(k.interval())
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case res, ok := <-loads:
			loads = nil
			if !ok {
				continue
			}
			if err := k.exp.HandleLoad(ctx, res); err != nil {
				return err
			}
		case now := <-ticker.C:
			if k.exp.Tick(now) < 0 {
				continue
			}
			ticks++
			if maxTicks > 0 && ticks >= maxTicks {
				k.logger.Info("tick limit reached",
					logging.String(logging.FieldEventType, "tick_limit"),
					logging.Int("ticks", ticks),
				)
				return nil
			}
		}
	}
}

// Close tears down in reverse order of Open and releases the lock.
func (k *Kiosk) Close() {
	if k.monitor != nil {
		k.monitor.Stop()
	}
	if k.exp != nil {
		_ = k.exp.Close()
	}
	if k.sessions != nil {
		if err := k.sessions.Close(); err != nil {
			k.logger.Warn("close session store", logging.Error(err))
		}
	}
	if k.server != nil {
		k.server.Stop()
	}
	if k.lock != nil {
		if err := k.lock.Unlock(); err != nil {
			k.logger.Warn("failed to release instance lock", logging.Error(err))
		}
	}
	k.logger.Info("kiosk stopped", logging.String(logging.FieldEventType, "kiosk_stopped"))
}
