package analysis

import (
	"strings"

	"github.com/san-kum/nbodysim/internal/snapshot"
)

type Point struct{ X, Y float64 }

// Portrait holds two fields of one body against each other, e.g. x against y
// for the orbit or r against speed.
type Portrait struct {
	Body   int
	XField Field
	YField Field
	Points []Point
}

func NewPortrait(frames []snapshot.Frame, body int, xf, yf Field) (*Portrait, error) {
	xs, err := Series(frames, body, xf)
	if err != nil {
		return nil, err
	}
	ys, err := Series(frames, body, yf)
	if err != nil {
		return nil, err
	}

	p := &Portrait{
		Body:   body,
		XField: xf,
		YField: yf,
		Points: make([]Point, len(xs)),
	}
	for i := range xs {
		p.Points[i] = Point{X: xs[i], Y: ys[i]}
	}
	return p, nil
}

// ASCII renders the portrait on a width x height character grid, drawing the
// axes where they cross the visible area.
func (p *Portrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX = min(minX, pt.X)
		maxX = max(maxX, pt.X)
		minY = min(minY, pt.Y)
		maxY = max(maxY, pt.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	for _, pt := range p.Points {
		col := int((pt.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if grid[row][col] == ' ' {
				grid[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if grid[row][col] == ' ' {
				grid[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
