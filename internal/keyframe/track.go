package keyframe

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidTrack marks a track whose bounds or property lengths break the
	// stride invariant.
	ErrInvalidTrack = errors.New("invalid keyframe track")
	// ErrUnknownProperty is returned when sampling a property the track does not carry.
	ErrUnknownProperty = errors.New("unknown keyframe property")
)

// Well-known property names exported by the authoring tool.
const (
	PropFOV          = "fov"
	PropPosition     = "position"
	PropScale        = "scale"
	PropQuaternion   = "quaternion"
	PropScaleZ       = "scale_z"
	PropFaceVertices = "face_vertices"
)

var knownStrides = map[string]int{
	PropFOV:        1,
	PropScaleZ:     1,
	PropPosition:   3,
	PropScale:      3,
	PropQuaternion: 4,
}

// Stride returns the fixed stride for a well-known flat property, or 1 for
// any other flat property.
func Stride(name string) int {
	if s, ok := knownStrides[name]; ok {
		return s
	}
	return 1
}

// Track is a bounded, frame-indexed property table.
type Track struct {
	InFrame  int
	OutFrame int

	frames     int
	properties map[string][]float64
	strides    map[string]int
}

// NewTrack validates the supplied properties and returns a sealed Track.
// strides overrides the stride for individual properties; properties not
// listed use Stride(name).
func NewTrack(inFrame, outFrame int, properties map[string][]float64, strides map[string]int) (*Track, error) {
	if len(properties) == 0 {
		return nil, fmt.Errorf("%w: no properties", ErrInvalidTrack)
	}

	t := &Track{
		InFrame:    inFrame,
		OutFrame:   outFrame,
		frames:     -1,
		properties: make(map[string][]float64, len(properties)),
		strides:    make(map[string]int, len(properties)),
	}

	for _, name := range sortedKeys(properties) {
		values := properties[name]
		stride := Stride(name)
		if override, ok := strides[name]; ok {
			stride = override
		}
		if stride <= 0 {
			return nil, fmt.Errorf("%w: property %q has stride %d", ErrInvalidTrack, name, stride)
		}
		if len(values) == 0 || len(values)%stride != 0 {
			return nil, fmt.Errorf("%w: property %q has %d values, not a multiple of stride %d",
				ErrInvalidTrack, name, len(values), stride)
		}
		frames := len(values) / stride
		if t.frames == -1 {
			t.frames = frames
		} else if frames != t.frames {
			return nil, fmt.Errorf("%w: property %q spans %d frames, expected %d",
				ErrInvalidTrack, name, frames, t.frames)
		}
		copied := make([]float64, len(values))
		copy(copied, values)
		t.properties[name] = copied
		t.strides[name] = stride
	}

	if inFrame < 0 || inFrame > outFrame || outFrame > t.frames-1 {
		return nil, fmt.Errorf("%w: window [%d, %d] outside %d frames",
			ErrInvalidTrack, inFrame, outFrame, t.frames)
	}
	return t, nil
}

// FrameCount reports how many frames each property carries.
func (t *Track) FrameCount() int {
	if t == nil {
		return 0
	}
	return t.frames
}

// Clamp limits frame to the track's [InFrame, OutFrame] window.
func (t *Track) Clamp(frame int) int {
	if frame < t.InFrame {
		return t.InFrame
	}
	if frame > t.OutFrame {
		return t.OutFrame
	}
	return frame
}

// Sample returns the stride-sized values of name at frame. Frames outside the
// window are clamped, never rejected. The returned slice aliases the track
// and must not be modified.
func (t *Track) Sample(frame int, name string) ([]float64, error) {
	values, ok := t.properties[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	stride := t.strides[name]
	offset := t.Clamp(frame) * stride
	return values[offset : offset+stride : offset+stride], nil
}

// Scalar samples a stride-1 property.
func (t *Track) Scalar(frame int, name string) (float64, error) {
	values, err := t.Sample(frame, name)
	if err != nil {
		return 0, err
	}
	return values[0], nil
}

// Has reports whether the track carries name.
func (t *Track) Has(name string) bool {
	_, ok := t.properties[name]
	return ok
}

// PropertyStride returns the stride of a property carried by the track.
func (t *Track) PropertyStride(name string) (int, bool) {
	s, ok := t.strides[name]
	return s, ok
}

// Properties lists the property names in lexical order.
func (t *Track) Properties() []string {
	return sortedKeys(t.properties)
}

// Require verifies that every name is present on the track.
func (t *Track) Require(names ...string) error {
	for _, name := range names {
		if !t.Has(name) {
			return fmt.Errorf("%w: missing property %q", ErrInvalidTrack, name)
		}
	}
	return nil
}

type trackJSON struct {
	InFrame  int                        `json:"in_frame"`
	OutFrame int                        `json:"out_frame"`
	Property map[string]json.RawMessage `json:"property"`
}

// UnmarshalJSON decodes the exporter layout. Flat arrays keep their
// well-known stride; nested arrays (one vector per frame) are flattened and
// their inner length becomes the stride.
func (t *Track) UnmarshalJSON(data []byte) error {
	var raw trackJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	properties := make(map[string][]float64, len(raw.Property))
	strides := make(map[string]int)
	for name, msg := range raw.Property {
		var flat []float64
		if err := json.Unmarshal(msg, &flat); err == nil {
			properties[name] = flat
			continue
		}
		var nested [][]float64
		if err := json.Unmarshal(msg, &nested); err != nil {
			return fmt.Errorf("%w: property %q is neither a flat nor a nested number array", ErrInvalidTrack, name)
		}
		if len(nested) == 0 {
			return fmt.Errorf("%w: property %q is empty", ErrInvalidTrack, name)
		}
		width := len(nested[0])
		flat = make([]float64, 0, width*len(nested))
		for i, row := range nested {
			if len(row) != width {
				return fmt.Errorf("%w: property %q frame %d has %d values, expected %d",
					ErrInvalidTrack, name, i, len(row), width)
			}
			flat = append(flat, row...)
		}
		properties[name] = flat
		strides[name] = width
	}

	built, err := NewTrack(raw.InFrame, raw.OutFrame, properties, strides)
	if err != nil {
		return err
	}
	*t = *built
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
