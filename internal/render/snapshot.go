package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"facestage/internal/scene"
	"facestage/internal/services"
)

// SnapshotConfig defines the pixel target.
type SnapshotConfig struct {
	Width      int
	Height     int
	Background color.RGBA
	Foreground color.RGBA
	// FramesDir, when set, receives every rendered frame as frame_NNNNN.png.
	FramesDir string
}

// NodeColors tints plotted vertices by node name.
var NodeColors = map[string]color.RGBA{
	"grid":   {R: 0x30, G: 0x36, B: 0x3d, A: 0xff},
	"webcam": {R: 0x58, G: 0xa6, B: 0xff, A: 0xff},
	"face":   {R: 0xf0, G: 0xf6, B: 0xfc, A: 0xff},
}

// Snapshot renders into an RGBA image and can encode it as PNG.
type Snapshot struct {
	mu      sync.Mutex
	config  SnapshotConfig
	face    font.Face
	img     *image.RGBA
	overlay []string
	frames  int
}

// NewSnapshot builds a snapshot renderer, creating FramesDir when set.
func NewSnapshot(cfg SnapshotConfig) (*Snapshot, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, services.Wrap(services.ErrValidation, "render", "snapshot", fmt.Sprintf("invalid size %dx%d", cfg.Width, cfg.Height), nil)
	}
	if cfg.Background.A == 0 {
		cfg.Background = color.RGBA{R: 0x0d, G: 0x11, B: 0x17, A: 0xff}
	}
	if cfg.Foreground.A == 0 {
		cfg.Foreground = color.RGBA{R: 0xe6, G: 0xed, B: 0xf3, A: 0xff}
	}
	if cfg.FramesDir != "" {
		if err := os.MkdirAll(cfg.FramesDir, 0o755); err != nil {
			return nil, fmt.Errorf("create frames dir: %w", err)
		}
	}
	return &Snapshot{
		config: cfg,
		face:   basicfont.Face7x13,
		img:    image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
	}, nil
}

// SetOverlay replaces the text drawn in the top-left corner.
func (s *Snapshot) SetOverlay(lines []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay = append(s.overlay[:0], lines...)
}

func (s *Snapshot) Render(sc *scene.Scene, cam *scene.PerspectiveCamera) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(s.config.Background), image.Point{}, draw.Src)
	for _, p := range Project(sc, cam, s.config.Width, s.config.Height) {
		c, ok := NodeColors[p.Node]
		if !ok {
			c = s.config.Foreground
		}
		s.img.SetRGBA(int(p.X), int(p.Y), c)
	}
	s.drawOverlay()

	if s.config.FramesDir == "" {
		return nil
	}
	path := filepath.Join(s.config.FramesDir, fmt.Sprintf("frame_%05d.png", s.frames))
	s.frames++
	if err := s.writeFile(path); err != nil {
		return services.Wrap(services.ErrRender, "render", "write frame", path, err)
	}
	return nil
}

func (s *Snapshot) drawOverlay() {
	if len(s.overlay) == 0 {
		return
	}
	drawer := &font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(s.config.Foreground),
		Face: s.face,
	}
	lineHeight := s.face.Metrics().Height.Ceil()
	for i, line := range s.overlay {
		drawer.Dot = fixed.P(4, (i+1)*lineHeight)
		drawer.DrawString(line)
	}
}

// Image returns a copy of the last rendered frame.
func (s *Snapshot) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// Encode writes the last rendered frame as PNG.
func (s *Snapshot) Encode(w io.Writer) error {
	return png.Encode(w, s.Image())
}

func (s *Snapshot) writeFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, s.img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
