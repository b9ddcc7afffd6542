package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"facestage/internal/logging"
)

var commandContext = exec.CommandContext

// ErrEmptyAsset marks a soundtrack file with no content.
var ErrEmptyAsset = errors.New("audio asset is empty")

// Asset is a loaded soundtrack.
type Asset struct {
	Path     string
	Size     int64
	Duration time.Duration
}

// Open checks the soundtrack at path. duration is the authoritative length;
// the kiosk derives it from config or the keyframe document.
func Open(path string, duration time.Duration) (*Asset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat audio asset: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("audio asset %s is a directory", path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyAsset, path)
	}
	return &Asset{Path: path, Size: info.Size(), Duration: duration}, nil
}

// Option configures a Playback.
type Option func(*Playback)

// WithNow overrides the time source.
func WithNow(now func() time.Time) Option {
	return func(p *Playback) {
		if now != nil {
			p.now = now
		}
	}
}

// WithPlayer runs binary with args followed by the asset path while playing.
func WithPlayer(binary string, args []string) Option {
	return func(p *Playback) {
		p.binary = binary
		p.args = append([]string(nil), args...)
	}
}

// WithLogger sets the logger used for player diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Playback) {
		p.logger = logging.NewComponentLogger(logger, "audio")
	}
}

// Playback is one play-through of an asset. Its Position is the media clock.
type Playback struct {
	asset  *Asset
	now    func() time.Time
	binary string
	args   []string
	logger *slog.Logger

	started time.Time
	playing bool
	frozen  time.Duration
	cancel  context.CancelFunc
}

// NewPlayback returns a stopped playback at position zero.
func NewPlayback(asset *Asset, opts ...Option) *Playback {
	p := &Playback{asset: asset, now: time.Now, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play starts the position advancing and launches the external player if
// one is configured. A player that fails to start is logged; the media clock
// keeps running so the experience stays in sync with itself.
func (p *Playback) Play(ctx context.Context) error {
	if p.playing {
		return nil
	}
	p.started = p.now()
	p.frozen = 0
	p.playing = true

	if p.binary == "" || p.asset == nil {
		return nil
	}
	playerCtx, cancel := context.WithCancel(ctx)
	args := append(append([]string(nil), p.args...), p.asset.Path)
	cmd := commandContext(playerCtx, p.binary, args...) //nolint:gosec
	if err := cmd.Start(); err != nil {
		cancel()
		logging.WarnWithContext(p.logger, "audio player failed to start", "audio_player_failed",
			logging.Error(err),
			logging.String("player", p.binary),
			logging.String(logging.FieldErrorHint, "check audio.player and that the binary is on PATH"),
			logging.String(logging.FieldImpact, "experience plays silently"),
		)
		return nil
	}
	p.cancel = cancel
	logger := p.logger
	go func() {
		if err := cmd.Wait(); err != nil && playerCtx.Err() == nil {
			logger.Warn("audio player exited", logging.Error(err))
		}
	}()
	return nil
}

// Stop halts playback and freezes the position.
func (p *Playback) Stop() {
	if !p.playing {
		return
	}
	p.frozen = p.Position()
	p.playing = false
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Playing reports whether Play was called without a later Stop.
func (p *Playback) Playing() bool {
	return p.playing
}

// Position returns the elapsed play time, capped at the asset duration.
func (p *Playback) Position() time.Duration {
	if !p.playing {
		return p.frozen
	}
	pos := p.now().Sub(p.started)
	if pos < 0 {
		pos = 0
	}
	if d := p.duration(); d > 0 && pos > d {
		pos = d
	}
	return pos
}

// Ended reports whether a bounded soundtrack has played to its end.
func (p *Playback) Ended() bool {
	d := p.duration()
	return d > 0 && p.Position() >= d
}

func (p *Playback) duration() time.Duration {
	if p.asset == nil {
		return 0
	}
	return p.asset.Duration
}
