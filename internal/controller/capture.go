package controller

import (
	"fmt"

	"facestage/internal/capture"
	"facestage/internal/scene"
)

// NameCapture is the registered name of the capture controller.
const NameCapture = "capture"

// Poller yields live capture samples.
type Poller interface {
	Poll(tick int) (capture.Sample, bool)
}

// DeformTarget is the mesh the capture and morph controllers write into.
type DeformTarget interface {
	Deform(points []scene.Vec3) error
	ApplyMorph(weights []float64) error
	Transform() *scene.Transform
}

// Capture forwards live landmarks and head pose onto the face.
type Capture struct {
	Toggle
	source Poller
	target DeformTarget
}

// NewCapture builds a capture controller. It starts enabled.
func NewCapture(source Poller, target DeformTarget) (*Capture, error) {
	if source == nil || target == nil {
		return nil, fmt.Errorf("capture controller: source and target are required")
	}
	c := &Capture{source: source, target: target}
	c.SetEnabled(true)
	return c, nil
}

func (c *Capture) Name() string { return NameCapture }

// Update applies the current sample, if any.
func (c *Capture) Update(frame int) error {
	sample, ok := c.source.Poll(frame)
	if !ok {
		return nil
	}
	if err := c.target.Deform(sample.Points); err != nil {
		return fmt.Errorf("deform: %w", err)
	}
	c.target.Transform().SetMatrix(sample.Matrix)
	return nil
}
