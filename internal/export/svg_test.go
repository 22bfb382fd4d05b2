package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/snapshot"
	"github.com/san-kum/nbodysim/internal/viz"
)

func orbitFrames() []snapshot.Frame {
	frames := make([]snapshot.Frame, 4)
	for i := range frames {
		s := physics.NewSystem(
			physics.Particle{Mass: 2e30},
			physics.Particle{Mass: 6e24, Pos: physics.V(1.5e11-float64(i)*1e10, float64(i)*3e10, 0)},
			physics.Particle{Mass: 7e22, Pos: physics.V(1.5e11, float64(i)*3e10+4e8, 0)},
		)
		frames[i] = snapshot.Frame{Index: i, System: s}
	}
	return frames
}

func TestTrajectoriesToSVG(t *testing.T) {
	svg := TrajectoriesToSVG(orbitFrames(), 400, 300)

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not an svg document:\n%s", svg)
	}
	if got := strings.Count(svg, "<path"); got != 3 {
		t.Errorf("expected 3 paths, got %d", got)
	}
	if got := strings.Count(svg, "<circle"); got != 3 {
		t.Errorf("expected 3 markers, got %d", got)
	}
	for _, c := range Palette[:3] {
		if !strings.Contains(svg, c) {
			t.Errorf("missing colour %s", c)
		}
	}
	if strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
		t.Errorf("non-finite coordinates in output")
	}
}

func TestTrajectoriesToSVG_SingleFrame(t *testing.T) {
	svg := TrajectoriesToSVG(orbitFrames()[:1], 100, 100)
	if strings.Contains(svg, "<path") {
		t.Error("a single frame should not draw paths")
	}
	if got := strings.Count(svg, "<circle"); got != 3 {
		t.Errorf("expected 3 markers, got %d", got)
	}
}

func TestTrajectoriesToSVG_Empty(t *testing.T) {
	if svg := TrajectoriesToSVG(nil, 100, 100); svg != "" {
		t.Errorf("expected empty output, got %q", svg)
	}
}

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(4, 2)
	c.Set(0, 0)
	c.Set(7, 7)

	svg := CanvasToSVG(c, 2)
	if got := strings.Count(svg, "<circle"); got != 2 {
		t.Errorf("expected 2 dots, got %d", got)
	}
	if CanvasToSVG(nil, 1) != "" {
		t.Error("nil canvas should give empty output")
	}
}

func TestWriteSVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orbit.svg")
	if err := WriteSVG(path, TrajectoriesToSVG(orbitFrames(), 200, 200)); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		t.Fatalf("expected file contents, got %v", err)
	}
}
