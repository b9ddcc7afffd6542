package testsupport

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"facestage/internal/keyframe"
)

type trackFixture struct {
	InFrame  int            `json:"in_frame"`
	OutFrame int            `json:"out_frame"`
	Property map[string]any `json:"property"`
}

// KeyframeJSON renders a small but complete keyframe document. The camera fov
// is 30+f, the user position x is f, and every morph offset of frame f is
// f/100.
func KeyframeJSON(frames, vertices int) []byte {
	fov := make([]float64, 0, frames)
	camPos := make([]float64, 0, frames*3)
	quat := make([]float64, 0, frames*4)
	userPos := make([]float64, 0, frames*3)
	scale := make([]float64, 0, frames*3)
	scaleZ := make([]float64, 0, frames)
	morph := make([][]float64, 0, frames)
	for f := 0; f < frames; f++ {
		fov = append(fov, 30+float64(f))
		camPos = append(camPos, 0, 0, 500-float64(f))
		quat = append(quat, 0, 0, 0, 1)
		userPos = append(userPos, float64(f), 0, 0)
		scale = append(scale, 1, 1, 1)
		scaleZ = append(scaleZ, 1+float64(f)/10)
		offsets := make([]float64, vertices*3)
		for i := range offsets {
			offsets[i] = float64(f) / 100
		}
		morph = append(morph, offsets)
	}

	doc := map[string]trackFixture{
		"camera": {OutFrame: frames - 1, Property: map[string]any{
			keyframe.PropFOV: fov, keyframe.PropPosition: camPos, keyframe.PropQuaternion: quat,
		}},
		"user": {OutFrame: frames - 1, Property: map[string]any{
			keyframe.PropFaceVertices: morph, keyframe.PropPosition: userPos,
			keyframe.PropScale: scale, keyframe.PropQuaternion: quat,
		}},
		"i_extra": {OutFrame: frames - 1, Property: map[string]any{
			keyframe.PropScaleZ: scaleZ,
		}},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}

// KeyframeDocument decodes KeyframeJSON for tests that need tracks directly.
func KeyframeDocument(t testing.TB, frames, vertices int) *keyframe.Document {
	t.Helper()
	doc, err := keyframe.Decode(bytes.NewReader(KeyframeJSON(frames, vertices)))
	if err != nil {
		t.Fatalf("decode keyframe fixture: %v", err)
	}
	return doc
}

// WriteFixtureAssets writes keyframes.json and main.mp3 into dir.
func WriteFixtureAssets(t testing.TB, dir string, frames, vertices int) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "keyframes.json"), KeyframeJSON(frames, vertices), 0o644); err != nil {
		t.Fatalf("write keyframes: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.mp3"), []byte("ID3\x03\x00"), 0o644); err != nil {
		t.Fatalf("write soundtrack: %v", err)
	}
}
