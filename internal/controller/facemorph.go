package controller

import (
	"fmt"

	"facestage/internal/keyframe"
	"facestage/internal/scene"
)

// NameFaceMorph is the registered name of the face morph controller.
const NameFaceMorph = "faceMorph"

// FaceMorph replays the authored face performance onto the captured mesh.
type FaceMorph struct {
	Toggle
	user       *keyframe.Track
	extra      *keyframe.Track
	target     DeformTarget
	multiplier float64
}

// NewFaceMorph builds a disabled morph controller. multiplier converts the
// authored scale into scene units.
func NewFaceMorph(user, extra *keyframe.Track, target DeformTarget, multiplier float64) (*FaceMorph, error) {
	if user == nil || extra == nil || target == nil {
		return nil, fmt.Errorf("face morph controller: user track, extra track and target are required")
	}
	if err := user.Require(keyframe.PropFaceVertices, keyframe.PropPosition, keyframe.PropScale, keyframe.PropQuaternion); err != nil {
		return nil, fmt.Errorf("face morph controller: %w", err)
	}
	if err := extra.Require(keyframe.PropScaleZ); err != nil {
		return nil, fmt.Errorf("face morph controller: %w", err)
	}
	if multiplier <= 0 {
		multiplier = 1
	}
	return &FaceMorph{user: user, extra: extra, target: target, multiplier: multiplier}, nil
}

func (f *FaceMorph) Name() string { return NameFaceMorph }

// Update applies morph weights and the sampled transform for frame. The two
// tracks clamp independently.
func (f *FaceMorph) Update(frame int) error {
	scaleZ, err := f.extra.Scalar(frame, keyframe.PropScaleZ)
	if err != nil {
		return err
	}
	weights, err := f.user.Sample(frame, keyframe.PropFaceVertices)
	if err != nil {
		return err
	}
	pos, err := f.user.Sample(frame, keyframe.PropPosition)
	if err != nil {
		return err
	}
	scale, err := f.user.Sample(frame, keyframe.PropScale)
	if err != nil {
		return err
	}
	quat, err := f.user.Sample(frame, keyframe.PropQuaternion)
	if err != nil {
		return err
	}

	if err := f.target.ApplyMorph(weights); err != nil {
		return fmt.Errorf("apply morph: %w", err)
	}
	t := f.target.Transform()
	t.Position = scene.V3(pos)
	s := scene.V3(scale).Scale(f.multiplier)
	s.Z *= scaleZ
	t.Scale = s
	t.Orientation = scene.Q4(quat)
	t.UpdateMatrix()
	return nil
}
