package capture

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"facestage/internal/scene"
)

type recordingJSON struct {
	Frames []struct {
		Points [][]float64 `json:"points"`
		Matrix []float64   `json:"matrix"`
	} `json:"frames"`
}

// Recording is a decoded capture session.
type Recording struct {
	Samples []Sample
}

// DecodeRecording reads the {"frames":[{"points":[[x,y,z]...],"matrix":[16]}]}
// layout written by the capture tool.
func DecodeRecording(r io.Reader) (*Recording, error) {
	var raw recordingJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode capture recording: %w", err)
	}
	if len(raw.Frames) == 0 {
		return nil, ErrNoRecording
	}
	rec := &Recording{Samples: make([]Sample, 0, len(raw.Frames))}
	for i, f := range raw.Frames {
		if len(f.Points) == 0 {
			return nil, fmt.Errorf("capture recording frame %d: no points", i)
		}
		if len(f.Matrix) != 0 && len(f.Matrix) != 16 {
			return nil, fmt.Errorf("capture recording frame %d: matrix has %d values, want 16", i, len(f.Matrix))
		}
		pts := make([]scene.Vec3, len(f.Points))
		for j, p := range f.Points {
			pts[j] = scene.V3(p)
		}
		rec.Samples = append(rec.Samples, Sample{Points: pts, Matrix: scene.M4(f.Matrix)})
	}
	return rec, nil
}

// LoadRecording decodes the recording at path.
func LoadRecording(path string) (*Recording, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture recording: %w", err)
	}
	defer file.Close()
	return DecodeRecording(file)
}

// Replay plays a recording back one sample per poll.
type Replay struct {
	rec      *Recording
	cursor   int
	active   bool
	done     bool
	complete []func()
}

// NewReplay returns a stopped replay source.
func NewReplay(rec *Recording) (*Replay, error) {
	if rec == nil || len(rec.Samples) == 0 {
		return nil, ErrNoRecording
	}
	return &Replay{rec: rec}, nil
}

// Start rewinds the recording.
func (r *Replay) Start() error {
	r.cursor = 0
	r.done = false
	r.active = true
	return nil
}

func (r *Replay) Stop() { r.active = false }

func (r *Replay) Active() bool { return r.active }

func (r *Replay) OnComplete(fn func()) {
	if fn != nil {
		r.complete = append(r.complete, fn)
	}
}

// Poll returns the next recorded sample.
func (r *Replay) Poll(int) (Sample, bool) {
	if !r.active || r.done {
		return Sample{}, false
	}
	if r.cursor >= len(r.rec.Samples) {
		r.done = true
		for _, fn := range r.complete {
			fn()
		}
		return Sample{}, false
	}
	s := r.rec.Samples[r.cursor]
	r.cursor++
	return s, true
}
