// Package compute provides flat-buffer force kernels for the N-body engine.
//
// The CPU backend runs the reference pair loop for small systems and splits
// rows across goroutines for larger ones:
//
//	grav := physics.NewGravity(g, softening)
//	grav.Kernel = compute.NewBackend(8)
//
// The parallel path sums rows in a different order than the serial pair loop,
// so results agree only to floating-point reassociation tolerance. Runs that
// need byte-identical output should leave the kernel unset.
package compute
