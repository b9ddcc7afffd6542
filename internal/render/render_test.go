package render_test

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facestage/internal/fsm"
	"facestage/internal/render"
	"facestage/internal/scene"
	"facestage/internal/services"
)

type points []scene.Vec3

func (p points) Vertices() []scene.Vec3 { return p }

func testScene(pts ...scene.Vec3) (*scene.Scene, *scene.PerspectiveCamera) {
	cam := scene.NewPerspectiveCamera(30, 16.0/9.0, 1, 5000)
	cam.Position = scene.Vec3{Z: 500}
	s := scene.New()
	s.Add(scene.NewNode("face", points(pts)))
	return s, cam
}

func TestProjectCentersOriginAndDropsHiddenPoints(t *testing.T) {
	s, cam := testScene(scene.Vec3{}, scene.Vec3{Z: 1000}, scene.Vec3{X: 10000})

	got := render.Project(s, cam, 160, 90)
	require.Len(t, got, 1)
	assert.InDelta(t, 80, got[0].X, 1e-6)
	assert.InDelta(t, 45, got[0].Y, 1e-6)
	assert.Equal(t, "face", got[0].Node)
}

func TestProjectSkipsInvisibleNodes(t *testing.T) {
	s, cam := testScene(scene.Vec3{})
	s.Nodes()[0].Visible = false

	assert.Empty(t, render.Project(s, cam, 10, 10))
}

func TestProjectFollowsNodeMatrix(t *testing.T) {
	s, cam := testScene(scene.Vec3{})
	node := s.Nodes()[0]
	node.Position = scene.Vec3{Y: 10}
	node.UpdateMatrix()

	got := render.Project(s, cam, 100, 100)
	require.Len(t, got, 1)
	assert.Less(t, got[0].Y, 50.0, "positive world Y should land above center")
}

func TestTerminalDrawsProjectedPoints(t *testing.T) {
	s, cam := testScene(scene.Vec3{})
	term := render.NewTerminal(40, 20)

	require.NoError(t, term.Render(s, cam))
	lines := strings.Split(term.Frame(), "\n")
	require.Len(t, lines, 20)
	assert.Equal(t, '@', []rune(lines[10])[20])
	assert.Equal(t, 1, strings.Count(term.Frame(), "@"))
}

func TestTerminalOverlayAndResize(t *testing.T) {
	s, cam := testScene()
	term := render.NewTerminal(10, 4)
	term.SetOverlay([]string{"frame 12345678"})

	require.NoError(t, term.Render(s, cam))
	lines := strings.Split(term.Frame(), "\n")
	assert.Equal(t, "frame 1234", lines[0])

	term.Resize(0, 0)
	cols, rows := term.Size()
	assert.Equal(t, 1, cols)
	assert.Equal(t, 1, rows)
}

func TestTerminalCoversGridWithTarget(t *testing.T) {
	s, cam := testScene(scene.Vec3{})
	term := render.NewTerminal(40, 10)
	term.SetTarget(160, 90)

	assert.InDelta(t, 0.25, term.Placement().Scale, 1e-9)
	require.NoError(t, term.Render(s, cam))
	lines := strings.Split(term.Frame(), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, '@', []rune(lines[5])[20])
}

func TestSnapshotWritesFrames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	snap, err := render.NewSnapshot(render.SnapshotConfig{Width: 64, Height: 36, FramesDir: dir})
	require.NoError(t, err)
	snap.SetOverlay([]string{"0"})

	s, cam := testScene(scene.Vec3{})
	require.NoError(t, snap.Render(s, cam))
	require.NoError(t, snap.Render(s, cam))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "frame_00000.png", entries[0].Name())

	img := snap.Image()
	assert.Equal(t, render.NodeColors["face"], img.RGBAAt(32, 18))

	var buf bytes.Buffer
	require.NoError(t, snap.Encode(&buf))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 64, decoded.Bounds().Dx())
}

func TestSnapshotRejectsEmptySize(t *testing.T) {
	_, err := render.NewSnapshot(render.SnapshotConfig{})
	assert.True(t, errors.Is(err, services.ErrValidation))
}

type failing struct{}

func (failing) Render(*scene.Scene, *scene.PerspectiveCamera) error { return errors.New("boom") }

func TestTeeRunsAllAndJoinsErrors(t *testing.T) {
	s, cam := testScene(scene.Vec3{})
	term := render.NewTerminal(8, 4)

	err := render.Tee{failing{}, term}.Render(s, cam)
	assert.ErrorIs(t, err, services.ErrRender)
	assert.Contains(t, term.Frame(), "@")
}

func TestOverlayLines(t *testing.T) {
	stats := render.NewStats()
	for i := 1; i <= 3; i++ {
		stats.Record(time.Duration(i) * time.Millisecond)
	}
	assert.Equal(t, 2*time.Millisecond, stats.Mean())
	assert.Equal(t, 3*time.Millisecond, stats.Max())

	out := strings.Join(render.OverlayLines(42, fsm.CaptureFace, "free-running", stats), "\n")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "Capture Face")
	assert.Contains(t, out, "free-running")
	assert.Contains(t, out, "3ms")
}

func TestStatsWindowRollsOver(t *testing.T) {
	stats := render.NewStats()
	for i := 0; i < 100; i++ {
		stats.Record(time.Millisecond)
	}
	stats.Record(time.Second)
	assert.Equal(t, uint64(101), stats.Ticks())
	assert.Equal(t, time.Second, stats.Max())
}
