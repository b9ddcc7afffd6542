package controller

import (
	"fmt"

	"facestage/internal/keyframe"
	"facestage/internal/scene"
)

// NameCamera is the registered name of the camera controller.
const NameCamera = "camera"

// Camera drives the perspective camera from the camera track.
type Camera struct {
	Toggle
	track  *keyframe.Track
	camera *scene.PerspectiveCamera
}

// NewCamera builds a disabled camera controller.
func NewCamera(track *keyframe.Track, camera *scene.PerspectiveCamera) (*Camera, error) {
	if track == nil || camera == nil {
		return nil, fmt.Errorf("camera controller: track and camera are required")
	}
	if err := track.Require(keyframe.PropFOV, keyframe.PropPosition, keyframe.PropQuaternion); err != nil {
		return nil, fmt.Errorf("camera controller: %w", err)
	}
	return &Camera{track: track, camera: camera}, nil
}

func (c *Camera) Name() string { return NameCamera }

// Update writes fov, position and orientation for frame and recomputes the
// projection.
func (c *Camera) Update(frame int) error {
	fov, err := c.track.Scalar(frame, keyframe.PropFOV)
	if err != nil {
		return err
	}
	pos, err := c.track.Sample(frame, keyframe.PropPosition)
	if err != nil {
		return err
	}
	quat, err := c.track.Sample(frame, keyframe.PropQuaternion)
	if err != nil {
		return err
	}

	c.camera.FOV = fov
	c.camera.UpdateProjection()
	c.camera.Position = scene.V3(pos)
	c.camera.Orientation = scene.Q4(quat)
	c.camera.UpdateMatrix()
	return nil
}
