package capture

import (
	"math"

	"facestage/internal/scene"
)

// Synthetic produces an oval of landmarks that sways gently, standing in for
// a visitor in front of the camera.
type Synthetic struct {
	frames    int
	landmarks int
	served    int
	active    bool
	done      bool
	complete  []func()
	points    []scene.Vec3
}

// NewSynthetic returns a stopped source that completes after frames samples.
func NewSynthetic(frames, landmarks int) *Synthetic {
	if frames < 1 {
		frames = 1
	}
	if landmarks < 3 {
		landmarks = 3
	}
	return &Synthetic{frames: frames, landmarks: landmarks, points: make([]scene.Vec3, landmarks)}
}

func (s *Synthetic) Start() error {
	s.served = 0
	s.done = false
	s.active = true
	return nil
}

func (s *Synthetic) Stop() { s.active = false }

func (s *Synthetic) Active() bool { return s.active }

func (s *Synthetic) OnComplete(fn func()) {
	if fn != nil {
		s.complete = append(s.complete, fn)
	}
}

// Poll returns a sample derived from tick.
func (s *Synthetic) Poll(tick int) (Sample, bool) {
	if !s.active || s.done {
		return Sample{}, false
	}
	if s.served >= s.frames {
		s.done = true
		for _, fn := range s.complete {
			fn()
		}
		return Sample{}, false
	}
	s.served++

	phase := float64(tick) / 15
	for i := range s.points {
		a := 2 * math.Pi * float64(i) / float64(s.landmarks)
		s.points[i] = scene.Vec3{
			X: 0.35 * math.Cos(a),
			Y: 0.5 * math.Sin(a),
			Z: 0.05 * math.Sin(a*2+phase),
		}
	}
	sway := math.Sin(phase) * 0.1
	pose := scene.Compose(
		scene.Vec3{X: sway * 50, Z: -200},
		scene.Quat{Y: math.Sin(sway / 2), W: math.Cos(sway / 2)},
		scene.Vec3{X: 100, Y: 100, Z: 100},
	)
	out := make([]scene.Vec3, len(s.points))
	copy(out, s.points)
	return Sample{Points: out, Matrix: pose}, true
}
