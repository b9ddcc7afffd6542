package controller

import "errors"

// ErrPanic marks a controller update that panicked.
var ErrPanic = errors.New("controller panicked")

// Controller is one per-tick writer into the scene.
type Controller interface {
	Name() string
	Enabled() bool
	SetEnabled(bool)
	Update(frame int) error
}

// Toggle carries the enabled flag for embedding in controllers.
type Toggle struct {
	enabled bool
}

// Enabled reports whether the controller runs on the next tick.
func (t *Toggle) Enabled() bool { return t.enabled }

// SetEnabled flips the flag.
func (t *Toggle) SetEnabled(v bool) { t.enabled = v }

// Func adapts a closure into a Controller. Tests and small hooks use it.
type Func struct {
	Toggle
	name string
	fn   func(frame int) error
}

// NewFunc wraps fn under name.
func NewFunc(name string, enabled bool, fn func(frame int) error) *Func {
	f := &Func{name: name, fn: fn}
	f.SetEnabled(enabled)
	return f
}

func (f *Func) Name() string { return f.name }

func (f *Func) Update(frame int) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(frame)
}
