package keyframe

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Document is the decoded keyframe asset.
type Document struct {
	Camera *Track `json:"camera"`
	User   *Track `json:"user"`
	Extra  *Track `json:"i_extra"`
}

// Decode reads a keyframe document and validates the properties each
// controller depends on.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode keyframes: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load decodes the keyframe document at path.
func Load(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyframes: %w", err)
	}
	defer file.Close()
	return Decode(file)
}

// Validate ensures all three tracks are present and carry the properties the
// camera and face controllers sample.
func (d *Document) Validate() error {
	if d.Camera == nil {
		return fmt.Errorf("%w: camera track missing", ErrInvalidTrack)
	}
	if d.User == nil {
		return fmt.Errorf("%w: user track missing", ErrInvalidTrack)
	}
	if d.Extra == nil {
		return fmt.Errorf("%w: i_extra track missing", ErrInvalidTrack)
	}
	if err := d.Camera.Require(PropFOV, PropPosition, PropQuaternion); err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	if err := d.User.Require(PropFaceVertices, PropPosition, PropScale, PropQuaternion); err != nil {
		return fmt.Errorf("user: %w", err)
	}
	if err := d.Extra.Require(PropScaleZ); err != nil {
		return fmt.Errorf("i_extra: %w", err)
	}
	return nil
}

// Tracks returns the named tracks in export order.
func (d *Document) Tracks() []NamedTrack {
	return []NamedTrack{
		{Name: "camera", Track: d.Camera},
		{Name: "user", Track: d.User},
		{Name: "i_extra", Track: d.Extra},
	}
}

// NamedTrack pairs a track with its document key.
type NamedTrack struct {
	Name  string
	Track *Track
}

// LastFrame is the latest out_frame across all tracks; playback is complete
// once the clock passes it.
func (d *Document) LastFrame() int {
	last := 0
	for _, nt := range d.Tracks() {
		if nt.Track != nil && nt.Track.OutFrame > last {
			last = nt.Track.OutFrame
		}
	}
	return last
}
