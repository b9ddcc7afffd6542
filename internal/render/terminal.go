package render

import (
	"math"
	"strings"
	"sync"

	"facestage/internal/scene"
	"facestage/internal/viewport"
)

// Glyphs maps node names to the rune plotted for their vertices.
var Glyphs = map[string]rune{
	"grid":   '+',
	"webcam": '.',
	"face":   '@',
}

const defaultGlyph = '*'

// Terminal rasterizes projected points into a character grid. Terminal cells
// are roughly twice as tall as wide, so Y is sampled at half resolution.
type Terminal struct {
	mu        sync.Mutex
	cols      int
	rows      int
	targetW   int
	targetH   int
	placement viewport.Placement
	frame     string
	overlay   []string
}

// NewTerminal returns a rasterizer for a cols×rows grid.
func NewTerminal(cols, rows int) *Terminal {
	t := &Terminal{}
	t.Resize(cols, rows)
	return t
}

// Resize changes the grid dimensions for the next Render.
func (t *Terminal) Resize(cols, rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cols = max(cols, 1)
	t.rows = max(rows, 1)
	t.fit()
}

// SetTarget makes Render project into a fixed width×height target that is
// scaled to cover the grid. A zero size projects straight onto the grid.
func (t *Terminal) SetTarget(width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.targetW = max(width, 0)
	t.targetH = max(height, 0)
	t.fit()
}

// Placement returns the current target placement in half-row units.
func (t *Terminal) Placement() viewport.Placement {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.placement
}

func (t *Terminal) fit() {
	t.placement = viewport.Fit(float64(t.cols), float64(t.rows*2), float64(t.targetW), float64(t.targetH))
}

// cell maps a projected point onto the grid.
func (t *Terminal) cell(p Point) (int, int) {
	if t.targetW == 0 || t.targetH == 0 {
		return int(p.X), int(p.Y)
	}
	x, y := t.placement.Apply(p.X, p.Y)
	return int(math.Floor(x)), int(math.Floor(y / 2))
}

// Size returns the current grid dimensions.
func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols, t.rows
}

// SetOverlay replaces the lines drawn over the top-left corner.
func (t *Terminal) SetOverlay(lines []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.overlay = append(t.overlay[:0], lines...)
}

func (t *Terminal) Render(s *scene.Scene, cam *scene.PerspectiveCamera) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	grid := make([][]rune, t.rows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", t.cols))
	}
	w, h := t.cols, t.rows
	if t.targetW > 0 && t.targetH > 0 {
		w, h = t.targetW, t.targetH
	}
	for _, p := range Project(s, cam, w, h) {
		col, row := t.cell(p)
		if col < 0 || col >= t.cols || row < 0 || row >= t.rows {
			continue
		}
		glyph, ok := Glyphs[p.Node]
		if !ok {
			glyph = defaultGlyph
		}
		grid[row][col] = glyph
	}
	for i, line := range t.overlay {
		if i >= t.rows {
			break
		}
		for j, r := range []rune(line) {
			if j >= t.cols {
				break
			}
			grid[i][j] = r
		}
	}

	var b strings.Builder
	for i, row := range grid {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	t.frame = b.String()
	return nil
}

// Frame returns the most recently rendered grid.
func (t *Terminal) Frame() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frame
}
