// Package analysis extracts diagnostics from dumped trajectories.
//
// All functions take the frames of a run as read by [snapshot.ReadAll]:
//
//   - [Series]: one scalar per frame for a body, e.g. its x position or speed
//   - [ReturnError]: how close a body comes back to where it started
//   - [OrbitalPeriod]: period from the angle swept about the initial centre of mass
//   - [Summarize]: the above for every body
//   - [DominantPeriod]: spectral estimate of the strongest period in a series
//   - [NewPortrait]: two fields of one body against each other, as ASCII art
//
// [LyapunovExponent] and [DtSweep] run their own simulations from an initial
// store rather than reading frames.
//
// # Sampling
//
// Frames are spaced dump_every*dt apart in simulated time. Callers pass that
// spacing as sampleDt where a time axis is needed.
package analysis
