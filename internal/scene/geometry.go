package scene

// Plane is a flat grid in the XY plane centered on the origin. It stands in
// for the webcam feed and the DEV reference grid.
type Plane struct {
	Width    float64
	Height   float64
	Segments int
}

// Vertices returns the grid points of the plane.
func (p Plane) Vertices() []Vec3 {
	n := p.Segments
	if n < 1 {
		n = 1
	}
	out := make([]Vec3, 0, (n+1)*(n+1))
	for iy := 0; iy <= n; iy++ {
		y := p.Height * (float64(iy)/float64(n) - 0.5)
		for ix := 0; ix <= n; ix++ {
			x := p.Width * (float64(ix)/float64(n) - 0.5)
			out = append(out, Vec3{X: x, Y: y})
		}
	}
	return out
}

// WorldVertices transforms a node's geometry into world space using its
// current matrix. Nodes without geometry yield nil.
func WorldVertices(n *Node) []Vec3 {
	if n == nil || n.Geometry == nil {
		return nil
	}
	local := n.Geometry.Vertices()
	out := make([]Vec3, len(local))
	for i, v := range local {
		out[i], _ = n.Matrix.MulPoint(v)
	}
	return out
}
