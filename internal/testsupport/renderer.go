package testsupport

import (
	"errors"

	"facestage/internal/render"
	"facestage/internal/scene"
)

// RecordingRenderer counts Render calls and remembers the visible node names
// of the last frame.
type RecordingRenderer struct {
	Calls   int
	Visible []string
	Points  int
	Fail    bool
}

var _ render.Renderer = (*RecordingRenderer)(nil)

func (r *RecordingRenderer) Render(s *scene.Scene, cam *scene.PerspectiveCamera) error {
	r.Calls++
	r.Visible = r.Visible[:0]
	for _, n := range s.Nodes() {
		if n.Visible {
			r.Visible = append(r.Visible, n.Name)
		}
	}
	r.Points = len(render.Project(s, cam, 160, 90))
	if r.Fail {
		return errors.New("recording renderer failure")
	}
	return nil
}
