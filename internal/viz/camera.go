package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/nbodysim/internal/physics"
)

// Camera is an orthographic view of the store. It looks down the z axis
// until rotated; Span is the world distance that fits the shorter canvas side
// at zoom 1.
type Camera struct {
	Center     physics.Vec3
	Span       float64
	RotX, RotY float64
	Zoom       float64
}

// FitCamera centres a camera on the store and sizes it to the largest
// distance from that centre, with some margin.
func FitCamera(s *physics.System) *Camera {
	center := physics.CenterOfMass(s)
	span := 0.0
	for _, p := range s.Particles {
		span = math.Max(span, p.Pos.Sub(center).Len())
	}
	if span == 0 {
		span = 1
	}
	return &Camera{Center: center, Span: 3 * span, Zoom: 1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(1e4, c.Zoom*1.25) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(1e-4, c.Zoom/1.25) }

func (c *Camera) rotation() mgl64.Mat3 {
	return mgl64.Rotate3DY(c.RotY).Mul3(mgl64.Rotate3DX(c.RotX))
}

// Project maps a world position to canvas sub-pixels. ok is false when the
// point falls outside the canvas.
func (c *Camera) Project(p physics.Vec3, cv *Canvas) (x, y int, ok bool) {
	w, h := cv.PixelWidth(), cv.PixelHeight()
	r := c.rotation().Mul3x1(p.Sub(c.Center))

	scale := float64(min(w, h)) / c.Span * c.Zoom
	fx := float64(w)/2 + r[0]*scale
	fy := float64(h)/2 - r[1]*scale
	if math.IsNaN(fx) || math.IsNaN(fy) {
		return 0, 0, false
	}
	x, y = int(math.Floor(fx)), int(math.Floor(fy))
	return x, y, x >= 0 && x < w && y >= 0 && y < h
}
