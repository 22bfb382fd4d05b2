// Package viz draws a running simulation in the terminal.
//
// [Model] is a Bubble Tea program that steps a [dynamo.Simulator] on every
// frame and plots the bodies on a braille [Canvas] through an orthographic
// [Camera], with an energy graph beside it. [Menu] picks a preset first.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Restart from the initial state
//	+/-   - Double/halve steps per frame
//	X/Y   - Rotate the view
//	Z     - Zoom (shift to zoom out)
//	C     - Re-centre on the centre of mass
//	T     - Cycle color themes
//	S     - Save the canvas as SVG
//	?     - Show help overlay
package viz
