// Package viewport scales a fixed-size render target to cover the current
// window while keeping its aspect ratio.
package viewport

// Placement positions the target inside the view. Offsets may be negative
// when the scaled target overflows one axis.
type Placement struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// Fit covers a viewW×viewH view with a targetW×targetH target, centering the
// overflow. Degenerate sizes yield a unit placement.
func Fit(viewW, viewH, targetW, targetH float64) Placement {
	if viewW <= 0 || viewH <= 0 || targetW <= 0 || targetH <= 0 {
		return Placement{Scale: 1}
	}
	scale := max(viewW/targetW, viewH/targetH)
	return Placement{
		Scale:   scale,
		OffsetX: (viewW - targetW*scale) / 2,
		OffsetY: (viewH - targetH*scale) / 2,
	}
}

// Apply maps a target-space coordinate into view space.
func (p Placement) Apply(x, y float64) (float64, float64) {
	return x*p.Scale + p.OffsetX, y*p.Scale + p.OffsetY
}
