package experience

import (
	"facestage/internal/clock"
	"facestage/internal/controller"
	"facestage/internal/face"
	"facestage/internal/fsm"
	"facestage/internal/render"
	"facestage/internal/scene"
)

// State is the current experience phase.
func (e *Experience) State() fsm.State { return e.machine.Current() }

// Frame is the frame produced by the last tick.
func (e *Experience) Frame() int { return e.frame }

// SessionID identifies the current visitor, empty before the first session.
func (e *Experience) SessionID() string { return e.sessionID }

// ClockMode reports whether the current clock is free-running or locked.
func (e *Experience) ClockMode() clock.Mode {
	if e.clock == nil {
		return clock.ModeFreeRunning
	}
	return e.clock.Mode()
}

// Scene, Camera and Face expose the render inputs.
func (e *Experience) Scene() *scene.Scene { return e.scene }

func (e *Experience) Camera() *scene.PerspectiveCamera { return e.camera }

func (e *Experience) Face() *face.Mesh { return e.face }

// Controllers returns the registered controllers in update order.
func (e *Experience) Controllers() []controller.Controller {
	if e.set == nil {
		return nil
	}
	return e.set.Controllers()
}

// Stats returns tick timing statistics.
func (e *Experience) Stats() *render.Stats { return e.stats }

// GatingHolds reports whether exactly one of capture and face morph is
// enabled and the camera follows face morph. It is trivially true before
// loading.
func (e *Experience) GatingHolds() bool {
	if e.set == nil {
		return true
	}
	return e.capture.Enabled() != e.morph.Enabled() && e.cam.Enabled() == e.morph.Enabled()
}
