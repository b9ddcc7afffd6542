package scene

import "math"

// Transform is the placement of a node. When MatrixAutoUpdate is set the
// world matrix is recomposed from Position, Orientation and Scale; otherwise
// Matrix is written directly (the live capture path).
type Transform struct {
	Position         Vec3
	Scale            Vec3
	Orientation      Quat
	Matrix           Mat4
	MatrixAutoUpdate bool
}

// NewTransform returns an identity transform with automatic matrix updates.
func NewTransform() Transform {
	return Transform{
		Scale:            Vec3{1, 1, 1},
		Orientation:      IdentityQuat,
		Matrix:           Identity(),
		MatrixAutoUpdate: true,
	}
}

// UpdateMatrix recomposes Matrix when automatic updates are enabled.
func (t *Transform) UpdateMatrix() {
	if t.MatrixAutoUpdate {
		t.Matrix = Compose(t.Position, t.Orientation, t.Scale)
	}
}

// SetMatrix copies a world matrix verbatim.
func (t *Transform) SetMatrix(m Mat4) {
	t.Matrix = m
}

// Geometry supplies local-space vertices for rendering.
type Geometry interface {
	Vertices() []Vec3
}

// Node is a named scene object.
type Node struct {
	Name string
	Transform
	Visible  bool
	Geometry Geometry
}

// NewNode returns a visible node with an identity transform.
func NewNode(name string, geometry Geometry) *Node {
	return &Node{Name: name, Transform: NewTransform(), Visible: true, Geometry: geometry}
}

// Scene is the ordered set of nodes drawn each tick.
type Scene struct {
	nodes []*Node
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{}
}

// Add appends nodes in draw order.
func (s *Scene) Add(nodes ...*Node) {
	s.nodes = append(s.nodes, nodes...)
}

// Nodes returns the scene's nodes in draw order.
func (s *Scene) Nodes() []*Node {
	return s.nodes
}

// Find returns the first node called name.
func (s *Scene) Find(name string) (*Node, bool) {
	for _, n := range s.nodes {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// PerspectiveCamera is a camera looking down its local -Z axis.
type PerspectiveCamera struct {
	Transform
	FOV    float64
	Aspect float64
	Near   float64
	Far    float64

	projection Mat4
}

// NewPerspectiveCamera builds a camera and computes its projection.
func NewPerspectiveCamera(fov, aspect, near, far float64) *PerspectiveCamera {
	c := &PerspectiveCamera{
		Transform: NewTransform(),
		FOV:       fov,
		Aspect:    aspect,
		Near:      near,
		Far:       far,
	}
	c.UpdateProjection()
	return c
}

// UpdateProjection recomputes the projection matrix after FOV, Aspect, Near
// or Far change.
func (c *PerspectiveCamera) UpdateProjection() {
	c.projection = Perspective(c.FOV, c.Aspect, c.Near, c.Far)
}

// Projection returns the cached projection matrix.
func (c *PerspectiveCamera) Projection() Mat4 {
	return c.projection
}

// ToView moves a world-space point into camera space.
func (c *PerspectiveCamera) ToView(world Vec3) Vec3 {
	return c.Orientation.Conjugate().Rotate(world.Sub(c.Position))
}

// Project maps a world-space point to normalized device coordinates. ok is
// false for points behind the camera.
func (c *PerspectiveCamera) Project(world Vec3) (Vec3, bool) {
	view := c.ToView(world)
	ndc, w := c.projection.MulPoint(view)
	if w <= 0 {
		return Vec3{}, false
	}
	return ndc, true
}

// FrustumHeightAt returns the visible height at distance from the camera,
// used to size the webcam plane so it fills the view.
func (c *PerspectiveCamera) FrustumHeightAt(distance float64) float64 {
	return math.Tan(DegToRad(c.FOV/2)) * distance * 2
}
