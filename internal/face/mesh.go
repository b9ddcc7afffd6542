package face

import (
	"errors"
	"fmt"

	"facestage/internal/scene"
)

var (
	// ErrNoPoints marks a deform call with an empty landmark set.
	ErrNoPoints = errors.New("no feature points")
	// ErrNotPrepared marks a morph applied before PrepareForMorph.
	ErrNotPrepared = errors.New("face not prepared for morph")
	// ErrMorphSize marks a weight vector that does not cover the mesh.
	ErrMorphSize = errors.New("morph weights do not match mesh")
)

// NodeName is the scene node name of the face.
const NodeName = "face"

// Mesh is the deformation target. It implements scene.Geometry.
type Mesh struct {
	node     *scene.Node
	vertices []scene.Vec3
	base     []scene.Vec3
	deforms  int
}

// New returns an empty mesh attached to a new scene node. The node starts
// with a manual matrix because capture writes it directly.
func New() *Mesh {
	m := &Mesh{}
	m.node = scene.NewNode(NodeName, m)
	m.node.MatrixAutoUpdate = false
	return m
}

// Node returns the scene node carrying the mesh.
func (m *Mesh) Node() *scene.Node {
	return m.node
}

// Transform exposes the settable position, scale and orientation.
func (m *Mesh) Transform() *scene.Transform {
	return &m.node.Transform
}

// Vertices returns the current local-space vertices.
func (m *Mesh) Vertices() []scene.Vec3 {
	return m.vertices
}

// Deform snaps the mesh onto live landmark coordinates.
func (m *Mesh) Deform(points []scene.Vec3) error {
	if len(points) == 0 {
		return ErrNoPoints
	}
	if cap(m.vertices) < len(points) {
		m.vertices = make([]scene.Vec3, len(points))
	}
	m.vertices = m.vertices[:len(points)]
	copy(m.vertices, points)
	m.deforms++
	return nil
}

// Deforms reports how many live samples the mesh has absorbed.
func (m *Mesh) Deforms() int {
	return m.deforms
}

// PrepareForMorph freezes the current shape as the morph base.
func (m *Mesh) PrepareForMorph() {
	m.base = append(m.base[:0], m.vertices...)
}

// Prepared reports whether a morph base exists.
func (m *Mesh) Prepared() bool {
	return len(m.base) > 0
}

// ApplyMorph offsets every base vertex by the matching triple in weights.
func (m *Mesh) ApplyMorph(weights []float64) error {
	if !m.Prepared() {
		return ErrNotPrepared
	}
	if len(weights) != len(m.base)*3 {
		return fmt.Errorf("%w: %d weights for %d vertices", ErrMorphSize, len(weights), len(m.base))
	}
	if len(m.vertices) != len(m.base) {
		m.vertices = make([]scene.Vec3, len(m.base))
	}
	for i, b := range m.base {
		m.vertices[i] = b.Add(scene.V3(weights[i*3 : i*3+3]))
	}
	return nil
}

// Reset clears the captured shape for the next visitor.
func (m *Mesh) Reset() {
	m.vertices = m.vertices[:0]
	m.base = m.base[:0]
	m.deforms = 0
	m.node.Transform = scene.NewTransform()
	m.node.MatrixAutoUpdate = false
	m.node.Visible = true
}
