package controller

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"facestage/internal/logging"
)

// FailureFunc observes isolated controller failures.
type FailureFunc func(name string, err error)

// Set is the ordered, registration-fixed collection of controllers.
type Set struct {
	controllers []Controller
	byName      map[string]Controller
	logger      *slog.Logger
	onFailure   []FailureFunc
	active      []Controller
}

// NewSet returns an empty set.
func NewSet(logger *slog.Logger) *Set {
	return &Set{
		byName: make(map[string]Controller),
		logger: logging.NewComponentLogger(logger, "controllers"),
	}
}

// Register appends c. Names must be unique.
func (s *Set) Register(c Controller) error {
	if c == nil {
		return fmt.Errorf("register controller: nil controller")
	}
	name := c.Name()
	if _, dup := s.byName[name]; dup {
		return fmt.Errorf("register controller: duplicate name %q", name)
	}
	s.controllers = append(s.controllers, c)
	s.byName[name] = c
	return nil
}

// OnFailure registers an observer for isolated failures.
func (s *Set) OnFailure(fn FailureFunc) {
	if fn != nil {
		s.onFailure = append(s.onFailure, fn)
	}
}

// Get returns the controller registered under name.
func (s *Set) Get(name string) (Controller, bool) {
	c, ok := s.byName[name]
	return c, ok
}

// Controllers returns the controllers in registration order.
func (s *Set) Controllers() []Controller {
	return append([]Controller(nil), s.controllers...)
}

// Update runs every controller that is enabled at the start of the call, in
// registration order. A failing controller is logged and skipped; the rest
// still run. It returns the number of failures.
func (s *Set) Update(frame int) int {
	s.active = s.active[:0]
	for _, c := range s.controllers {
		if c.Enabled() {
			s.active = append(s.active, c)
		}
	}

	failures := 0
	for _, c := range s.active {
		if err := s.run(c, frame); err != nil {
			failures++
			s.logger.Error("controller update failed",
				logging.Controller(c.Name()),
				logging.Frame(frame),
				logging.Error(err),
				logging.String(logging.FieldEventType, "controller_failed"),
			)
			for _, fn := range s.onFailure {
				fn(c.Name(), err)
			}
		}
	}
	return failures
}

func (s *Set) run(c Controller, frame int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("controller panic stack", logging.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %s: %v", ErrPanic, c.Name(), r)
		}
	}()
	return c.Update(frame)
}
