package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"facestage/internal/audio"
	"facestage/internal/capture"
	"facestage/internal/config"
	"facestage/internal/keyframe"
	"facestage/internal/logging"
	"facestage/internal/services"
)

// ErrAlreadyStarted marks a second Start on the same loader.
var ErrAlreadyStarted = errors.New("asset load already started")

// Entry is one manifest row.
type Entry struct {
	ID       string
	Src      string
	Optional bool
}

// Policy bounds retries per entry.
type Policy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// Bundle is everything the experience needs once loading succeeds.
type Bundle struct {
	Keyframes *keyframe.Document
	Audio     *audio.Asset
	Recording *capture.Recording
	// Extra holds raw bytes for manifest ids the kiosk has no decoder for.
	Extra  map[string][]byte
	Loaded []string
}

// Result is delivered once on the channel returned by Start.
type Result struct {
	Bundle *Bundle
	Err    error
}

// Decoder loads one entry into the bundle.
type Decoder func(ctx context.Context, path string, b *Bundle) error

// Loader resolves manifest entries against a base directory.
type Loader struct {
	baseDir       string
	manifest      []Entry
	policy        Policy
	fps           int
	audioDuration time.Duration
	decoders      map[string]Decoder
	logger        *slog.Logger
	onAttempt     func(id string, attempt int, err error)
	started       atomic.Bool
}

// Option customizes a Loader.
type Option func(*Loader)

// WithDecoder replaces or adds the decoder for a manifest id.
func WithDecoder(id string, fn Decoder) Option {
	return func(l *Loader) {
		l.decoders[id] = fn
	}
}

// WithAttemptObserver is called after every failed attempt.
func WithAttemptObserver(fn func(id string, attempt int, err error)) Option {
	return func(l *Loader) {
		l.onAttempt = fn
	}
}

// NewLoader builds a loader from config.
func NewLoader(cfg *config.Config, logger *slog.Logger, opts ...Option) *Loader {
	manifest := make([]Entry, 0, len(cfg.Assets.Manifest))
	for _, e := range cfg.Assets.Manifest {
		manifest = append(manifest, Entry{ID: e.ID, Src: e.Src, Optional: e.Optional})
	}
	l := &Loader{
		baseDir:  cfg.Paths.AssetDir,
		manifest: manifest,
		policy: Policy{
			Attempts:   cfg.Assets.RetryAttempts,
			Backoff:    time.Duration(cfg.Assets.RetryBackoffMS) * time.Millisecond,
			MaxBackoff: time.Duration(cfg.Assets.RetryMaxBackoffMS) * time.Millisecond,
		},
		fps:           cfg.Clock.FPS,
		audioDuration: time.Duration(cfg.Audio.DurationSeconds * float64(time.Second)),
		logger:        logging.NewComponentLogger(logger, "assets"),
	}
	l.decoders = map[string]Decoder{
		config.AssetKeyframes: decodeKeyframes,
		config.AssetMusic:     l.decodeAudio,
		config.AssetCapture:   decodeRecording,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start loads the manifest in the background. The returned channel yields
// exactly one Result. A loader can be started once.
func (l *Loader) Start(ctx context.Context) <-chan Result {
	out := make(chan Result, 1)
	if !l.started.CompareAndSwap(false, true) {
		out <- Result{Err: ErrAlreadyStarted}
		close(out)
		return out
	}
	go func() {
		defer close(out)
		bundle, err := l.Load(ctx)
		out <- Result{Bundle: bundle, Err: err}
	}()
	return out
}

// Load runs the manifest synchronously in order.
func (l *Loader) Load(ctx context.Context) (*Bundle, error) {
	bundle := &Bundle{Extra: make(map[string][]byte)}
	for _, entry := range l.manifest {
		path := l.resolve(entry.Src)
		if entry.Optional {
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				l.logger.Debug("optional asset absent", logging.String("asset", entry.ID), logging.String("path", path))
				continue
			}
		}
		if err := l.loadEntry(ctx, entry, path, bundle); err != nil {
			return nil, err
		}
		bundle.Loaded = append(bundle.Loaded, entry.ID)
		l.logger.Debug("asset loaded", logging.String("asset", entry.ID), logging.String("path", path))
	}
	if bundle.Keyframes == nil {
		return nil, services.Wrap(services.ErrAssetLoad, "assets", "load", "manifest produced no keyframe document", nil)
	}
	if bundle.Audio == nil {
		return nil, services.Wrap(services.ErrAssetLoad, "assets", "load", "manifest produced no soundtrack", nil)
	}
	if bundle.Audio.Duration == 0 && l.fps > 0 {
		frames := bundle.Keyframes.LastFrame() + 1
		bundle.Audio.Duration = time.Duration(frames) * time.Second / time.Duration(l.fps)
	}
	l.logger.Info("assets loaded",
		logging.String(logging.FieldEventType, "assets_loaded"),
		logging.Int("count", len(bundle.Loaded)),
		logging.Duration("soundtrack", bundle.Audio.Duration),
	)
	return bundle, nil
}

func (l *Loader) resolve(src string) string {
	if filepath.IsAbs(src) {
		return src
	}
	return filepath.Join(l.baseDir, src)
}

// loadEntry retries transient failures with exponential backoff.
func (l *Loader) loadEntry(ctx context.Context, entry Entry, path string, b *Bundle) error {
	decode, ok := l.decoders[entry.ID]
	if !ok {
		decode = decodeRaw(entry.ID)
	}
	attempts := l.policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := l.policy.Backoff
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = decode(ctx, path, b)
		if lastErr == nil {
			return nil
		}
		if l.onAttempt != nil {
			l.onAttempt(entry.ID, attempt, lastErr)
		}
		if !services.Retryable(lastErr) || attempt == attempts {
			break
		}
		logging.WarnWithContext(l.logger, "asset load failed; retrying", "asset_retry",
			logging.String("asset", entry.ID),
			logging.Int("attempt", attempt),
			logging.Duration("backoff", delay),
			logging.Error(lastErr),
			logging.String(logging.FieldErrorHint, "check that the asset exists and is readable"),
			logging.String(logging.FieldImpact, "kiosk start is delayed"),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return services.Wrap(services.ErrAssetLoad, "assets", "load", entry.ID, ctx.Err())
		}
		if next := delay * 2; next <= l.policy.MaxBackoff {
			delay = next
		} else {
			delay = l.policy.MaxBackoff
		}
	}
	return services.Wrap(services.ErrAssetLoad, "assets", "load", entry.ID, lastErr)
}

func decodeKeyframes(_ context.Context, path string, b *Bundle) error {
	doc, err := keyframe.Load(path)
	if err != nil {
		if isDecodeError(err) {
			return services.Wrap(services.ErrValidation, "keyframes", "decode", path, err)
		}
		return err
	}
	b.Keyframes = doc
	return nil
}

func (l *Loader) decodeAudio(_ context.Context, path string, b *Bundle) error {
	asset, err := audio.Open(path, l.audioDuration)
	if err != nil {
		if errors.Is(err, audio.ErrEmptyAsset) {
			return services.Wrap(services.ErrValidation, "audio", "open", path, err)
		}
		return err
	}
	b.Audio = asset
	return nil
}

func decodeRecording(_ context.Context, path string, b *Bundle) error {
	rec, err := capture.LoadRecording(path)
	if err != nil {
		if isDecodeError(err) || errors.Is(err, capture.ErrNoRecording) {
			return services.Wrap(services.ErrValidation, "capture", "decode", path, err)
		}
		return err
	}
	b.Recording = rec
	return nil
}

func decodeRaw(id string) Decoder {
	return func(_ context.Context, path string, b *Bundle) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", id, err)
		}
		b.Extra[id] = data
		return nil
	}
}

// isDecodeError reports malformed content, which retrying cannot fix.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.Is(err, keyframe.ErrInvalidTrack) ||
		errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr)
}
