package render

import (
	"errors"

	"facestage/internal/scene"
	"facestage/internal/services"
)

// Renderer draws the scene as seen by cam.
type Renderer interface {
	Render(s *scene.Scene, cam *scene.PerspectiveCamera) error
}

// Point is a projected vertex in target pixel space.
type Point struct {
	X, Y  float64
	Depth float64
	Node  string
}

// Project maps every visible vertex in s onto a width×height target. Points
// behind the camera or outside the clip volume are dropped. Order follows
// scene draw order.
func Project(s *scene.Scene, cam *scene.PerspectiveCamera, width, height int) []Point {
	if s == nil || cam == nil || width <= 0 || height <= 0 {
		return nil
	}
	var out []Point
	for _, node := range s.Nodes() {
		if !node.Visible {
			continue
		}
		for _, world := range scene.WorldVertices(node) {
			ndc, ok := cam.Project(world)
			if !ok || ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
				continue
			}
			out = append(out, Point{
				X:     (ndc.X + 1) / 2 * float64(width),
				Y:     (1 - ndc.Y) / 2 * float64(height),
				Depth: ndc.Z,
				Node:  node.Name,
			})
		}
	}
	return out
}

// Tee renders to every renderer in order. All renderers run; their errors
// are joined and tagged as render failures.
type Tee []Renderer

func (t Tee) Render(s *scene.Scene, cam *scene.PerspectiveCamera) error {
	var errs []error
	for _, r := range t {
		if r == nil {
			continue
		}
		if err := r.Render(s, cam); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return services.Wrap(services.ErrRender, "render", "tee", "", errors.Join(errs...))
}

// SetOverlay forwards overlay lines to members that draw one.
func (t Tee) SetOverlay(lines []string) {
	for _, r := range t {
		if o, ok := r.(interface{ SetOverlay([]string) }); ok {
			o.SetOverlay(lines)
		}
	}
}
