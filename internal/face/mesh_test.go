package face_test

import (
	"errors"
	"testing"

	"facestage/internal/face"
	"facestage/internal/scene"
)

func TestDeformReplacesVertices(t *testing.T) {
	m := face.New()
	if err := m.Deform(nil); !errors.Is(err, face.ErrNoPoints) {
		t.Fatalf("expected ErrNoPoints, got %v", err)
	}
	pts := []scene.Vec3{{X: 1}, {Y: 2}}
	if err := m.Deform(pts); err != nil {
		t.Fatalf("Deform: %v", err)
	}
	pts[0].X = 99
	if got := m.Vertices(); len(got) != 2 || got[0].X != 1 {
		t.Fatalf("Deform did not copy points: %+v", got)
	}
	if m.Deforms() != 1 {
		t.Fatalf("Deforms = %d, want 1", m.Deforms())
	}
}

func TestApplyMorphOffsetsBase(t *testing.T) {
	m := face.New()
	if err := m.ApplyMorph([]float64{0, 0, 0}); !errors.Is(err, face.ErrNotPrepared) {
		t.Fatalf("expected ErrNotPrepared, got %v", err)
	}
	if err := m.Deform([]scene.Vec3{{X: 1, Y: 1, Z: 1}}); err != nil {
		t.Fatalf("Deform: %v", err)
	}
	m.PrepareForMorph()

	if err := m.ApplyMorph([]float64{1, 2}); !errors.Is(err, face.ErrMorphSize) {
		t.Fatalf("expected ErrMorphSize, got %v", err)
	}
	if err := m.ApplyMorph([]float64{0.5, 0, -1}); err != nil {
		t.Fatalf("ApplyMorph: %v", err)
	}
	got := m.Vertices()[0]
	if got.X != 1.5 || got.Y != 1 || got.Z != 0 {
		t.Fatalf("morphed vertex = %+v", got)
	}
	// Morphs are absolute against the base, not cumulative.
	if err := m.ApplyMorph([]float64{0.5, 0, -1}); err != nil {
		t.Fatalf("ApplyMorph: %v", err)
	}
	if m.Vertices()[0].X != 1.5 {
		t.Fatalf("morph accumulated: %+v", m.Vertices()[0])
	}
}

func TestNodeStartsManualAndResetRestores(t *testing.T) {
	m := face.New()
	if m.Node().MatrixAutoUpdate {
		t.Fatal("face node should start with a manual matrix")
	}
	m.Transform().MatrixAutoUpdate = true
	m.Node().Visible = false
	_ = m.Deform([]scene.Vec3{{X: 1}})
	m.PrepareForMorph()

	m.Reset()
	if m.Prepared() || len(m.Vertices()) != 0 {
		t.Fatal("Reset kept captured shape")
	}
	if m.Node().MatrixAutoUpdate || !m.Node().Visible {
		t.Fatal("Reset did not restore node defaults")
	}
}
