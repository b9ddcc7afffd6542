package testsupport

import (
	"facestage/internal/capture"
	"facestage/internal/scene"
)

// FakeCapture delivers a fixed number of identical samples and then completes.
type FakeCapture struct {
	Samples  int
	Points   []scene.Vec3
	Matrix   scene.Mat4
	Polls    int
	Starts   int
	Stops    int
	active   bool
	served   int
	complete []func()
	done     bool
}

var _ capture.Source = (*FakeCapture)(nil)

// NewFakeCapture returns a source serving samples ticks of points.
func NewFakeCapture(samples int, points []scene.Vec3) *FakeCapture {
	return &FakeCapture{Samples: samples, Points: points, Matrix: scene.Identity()}
}

func (f *FakeCapture) Start() error {
	f.Starts++
	f.active = true
	f.served = 0
	f.done = false
	return nil
}

func (f *FakeCapture) Stop() {
	f.Stops++
	f.active = false
}

func (f *FakeCapture) Active() bool { return f.active }

func (f *FakeCapture) OnComplete(fn func()) { f.complete = append(f.complete, fn) }

func (f *FakeCapture) Poll(int) (capture.Sample, bool) {
	f.Polls++
	if !f.active || f.done {
		return capture.Sample{}, false
	}
	if f.served >= f.Samples {
		f.done = true
		for _, fn := range f.complete {
			fn()
		}
		return capture.Sample{}, false
	}
	f.served++
	return capture.Sample{Points: f.Points, Matrix: f.Matrix}, true
}
