package clock

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrAlreadyLocked is returned when Lock is called on a clock that already
// follows a media clock.
var ErrAlreadyLocked = errors.New("clock already locked to media")

// MediaClock is an externally owned playback position, typically audio.
type MediaClock interface {
	Position() time.Duration
}

// Mode identifies which source a clock reads.
type Mode int

const (
	ModeFreeRunning Mode = iota
	ModeLocked
)

func (m Mode) String() string {
	switch m {
	case ModeFreeRunning:
		return "free-running"
	case ModeLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// Source yields the elapsed playback time a frame is derived from.
type Source interface {
	Elapsed(now time.Time) time.Duration
	Mode() Mode
}

// FreeRunning measures wall time since Start.
type FreeRunning struct {
	Start time.Time
}

// Elapsed implements Source.
func (f FreeRunning) Elapsed(now time.Time) time.Duration { return now.Sub(f.Start) }

// Mode implements Source.
func (FreeRunning) Mode() Mode { return ModeFreeRunning }

// Locked follows an external media position.
type Locked struct {
	Media MediaClock
}

// Elapsed implements Source.
func (l Locked) Elapsed(time.Time) time.Duration { return l.Media.Position() }

// Mode implements Source.
func (Locked) Mode() Mode { return ModeLocked }

// Clock computes one frame per tick and hands it to a single subscriber.
type Clock struct {
	fps        float64
	source     Source
	subscriber func(frame int)
	last       int
	ticks      uint64
}

// New returns a free-running clock anchored at start.
func New(fps float64, start time.Time) (*Clock, error) {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return nil, fmt.Errorf("clock: invalid frame rate %v", fps)
	}
	return &Clock{fps: fps, source: FreeRunning{Start: start}}, nil
}

// Subscribe installs the callback invoked on every tick, replacing any
// previous subscriber.
func (c *Clock) Subscribe(fn func(frame int)) {
	c.subscriber = fn
}

// Lock switches the clock to follow media. It succeeds once; later calls
// return ErrAlreadyLocked and leave the clock untouched.
func (c *Clock) Lock(media MediaClock) error {
	if media == nil {
		return errors.New("clock: nil media clock")
	}
	if c.source.Mode() == ModeLocked {
		return ErrAlreadyLocked
	}
	c.source = Locked{Media: media}
	return nil
}

// Mode reports the active source mode.
func (c *Clock) Mode() Mode {
	return c.source.Mode()
}

// FPS returns the target frame rate.
func (c *Clock) FPS() float64 {
	return c.fps
}

// FrameAt computes the frame for now without notifying the subscriber.
func (c *Clock) FrameAt(now time.Time) int {
	seconds := c.source.Elapsed(now).Seconds()
	frame := int(math.Floor(seconds * c.fps))
	if frame < 0 {
		return 0
	}
	return frame
}

// Tick computes the current frame, records it, and invokes the subscriber
// exactly once.
func (c *Clock) Tick(now time.Time) int {
	frame := c.FrameAt(now)
	c.last = frame
	c.ticks++
	if c.subscriber != nil {
		c.subscriber(frame)
	}
	return frame
}

// Last returns the frame produced by the most recent Tick.
func (c *Clock) Last() int {
	return c.last
}

// Ticks counts how many times Tick has run.
func (c *Clock) Ticks() uint64 {
	return c.ticks
}

// Interval is the wall-time spacing of one frame at the clock's rate.
func (c *Clock) Interval() time.Duration {
	return time.Duration(float64(time.Second) / c.fps)
}
