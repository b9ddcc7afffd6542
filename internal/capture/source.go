package capture

import (
	"errors"

	"facestage/internal/scene"
)

// ErrNoRecording marks a replay source built without frames.
var ErrNoRecording = errors.New("capture recording has no frames")

// Sample is one tick of live tracking data: normalized landmark coordinates
// and the rigid head pose.
type Sample struct {
	Points []scene.Vec3
	Matrix scene.Mat4
}

// Source is the capture collaborator. Poll is called at most once per tick
// while capture is active. The completion callback is raised from inside Poll
// on the first poll after the final sample was delivered, exactly once per
// Start.
type Source interface {
	Start() error
	Stop()
	Active() bool
	Poll(tick int) (Sample, bool)
	OnComplete(fn func())
}
