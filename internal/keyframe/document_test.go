package keyframe_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"facestage/internal/keyframe"
)

const sampleDocument = `{
  "camera": {"in_frame": 0, "out_frame": 2, "property": {
    "fov": [10, 20, 30],
    "position": [0, 0, 500, 0, 0, 510, 0, 0, 520],
    "quaternion": [0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1]
  }},
  "user": {"in_frame": 0, "out_frame": 1, "property": {
    "face_vertices": [[0, 1], [1, 0]],
    "position": [0, 0, 0, 1, 2, 3],
    "scale": [1, 1, 1, 2, 2, 2],
    "quaternion": [0, 0, 0, 1, 0, 0, 0, 1]
  }},
  "i_extra": {"in_frame": 0, "out_frame": 3, "property": {
    "scale_z": [1, 1, 0.5, 0.25]
  }}
}`

func TestDecodeDocument(t *testing.T) {
	doc, err := keyframe.Decode(strings.NewReader(sampleDocument))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got := doc.LastFrame(); got != 3 {
		t.Fatalf("LastFrame = %d, want 3", got)
	}
	fov, err := doc.Camera.Scalar(1, keyframe.PropFOV)
	if err != nil || fov != 20 {
		t.Fatalf("camera fov at 1 = %v (err %v), want 20", fov, err)
	}
	names := make([]string, 0, 3)
	for _, nt := range doc.Tracks() {
		names = append(names, nt.Name)
	}
	if strings.Join(names, ",") != "camera,user,i_extra" {
		t.Fatalf("unexpected track order: %v", names)
	}
}

func TestDecodeRejectsMissingProperty(t *testing.T) {
	broken := strings.Replace(sampleDocument, `"scale_z"`, `"scale_y"`, 1)
	_, err := keyframe.Decode(strings.NewReader(broken))
	if !errors.Is(err, keyframe.ErrInvalidTrack) {
		t.Fatalf("expected ErrInvalidTrack, got %v", err)
	}
	if !strings.Contains(err.Error(), "i_extra") {
		t.Fatalf("expected track name in error, got %v", err)
	}
}

func TestDecodeRejectsMissingTrack(t *testing.T) {
	_, err := keyframe.Decode(strings.NewReader(`{"camera": null}`))
	if !errors.Is(err, keyframe.ErrInvalidTrack) {
		t.Fatalf("expected ErrInvalidTrack, got %v", err)
	}
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyframes.json")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	doc, err := keyframe.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if doc.User.FrameCount() != 2 {
		t.Fatalf("user frame count = %d, want 2", doc.User.FrameCount())
	}
}
