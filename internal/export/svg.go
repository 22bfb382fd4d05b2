package export

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/san-kum/nbodysim/internal/snapshot"
	"github.com/san-kum/nbodysim/internal/viz"
)

// Palette cycles through body colours in store order.
var Palette = []string{
	"#ffcc00", "#00ccff", "#cccccc", "#ff6644", "#88ff88", "#cc88ff", "#ff88cc", "#44ffdd",
}

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if canvas.IsSet(col*2+dx, row*4+dy) {
						fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
							baseX+float64(dx)*scale+scale/2,
							baseY+float64(dy)*scale+scale/2,
							dotRadius)
					}
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectoriesToSVG draws the x-y projection of every body's path over all
// frames, with a marker at its last position. All bodies share one scale so
// relative distances are kept.
func TrajectoriesToSVG(frames []snapshot.Frame, width, height int) string {
	if len(frames) == 0 || frames[0].System.Len() == 0 {
		return ""
	}
	n := frames[0].System.Len()

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, f := range frames {
		for _, p := range f.System.Particles {
			minX = math.Min(minX, p.Pos[0])
			maxX = math.Max(maxX, p.Pos[0])
			minY = math.Min(minY, p.Pos[1])
			maxY = math.Max(maxY, p.Pos[1])
		}
	}

	// Equal aspect so circular orbits stay circular.
	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	span *= 1.2
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	pix := math.Min(float64(width), float64(height))
	project := func(x, y float64) (float64, float64) {
		px := float64(width)/2 + (x-cx)/span*pix
		py := float64(height)/2 - (y-cy)/span*pix
		return px, py
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	last := frames[len(frames)-1].System
	for b := 0; b < n && b < last.Len(); b++ {
		color := Palette[b%len(Palette)]

		if len(frames) > 1 {
			fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color)
			for i, f := range frames {
				if b >= f.System.Len() {
					break
				}
				x, y := project(f.System.Particles[b].Pos[0], f.System.Particles[b].Pos[1])
				if i == 0 {
					fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
				}
			}
			sb.WriteString("\"/>\n")
		}

		p := last.Particles[b]
		x, y := project(p.Pos[0], p.Pos[1])
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n", x, y, markerRadius(p.Mass), color)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// markerRadius grows with the order of magnitude of the mass.
func markerRadius(mass float64) float64 {
	if mass <= 1 {
		return 2
	}
	return math.Min(2+math.Log10(mass)/5, 10)
}

func WriteSVG(path, svg string) error {
	return os.WriteFile(path, []byte(svg), 0644)
}
