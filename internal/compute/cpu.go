package compute

import (
	"math"

	"golang.org/x/sync/errgroup"
)

// minParallel is the particle count below which the pair loop stays serial.
const minParallel = 16

type CPUBackend struct {
	workers int
}

func NewCPUBackend(workers int) *CPUBackend {
	if workers < 1 {
		workers = 1
	}
	return &CPUBackend{workers: workers}
}

func (c *CPUBackend) Name() string { return "cpu" }
func (c *CPUBackend) Workers() int { return c.workers }

func (c *CPUBackend) Forces(pos, masses []float64, g, soft2 float64, out []float64) error {
	if err := checkShape(pos, masses, out); err != nil {
		return err
	}
	for i := range out {
		out[i] = 0
	}

	if len(masses) < minParallel || c.workers == 1 {
		c.forcesSerial(pos, masses, g, soft2, out)
		return nil
	}
	return c.forcesParallel(pos, masses, g, soft2, out)
}

// forcesSerial applies each unordered pair once with opposite signs.
func (c *CPUBackend) forcesSerial(pos, masses []float64, g, soft2 float64, out []float64) {
	n := len(masses)
	for i := 0; i < n; i++ {
		xi, yi, zi := pos[i*3], pos[i*3+1], pos[i*3+2]

		for j := i + 1; j < n; j++ {
			rx := pos[j*3] - xi
			ry := pos[j*3+1] - yi
			rz := pos[j*3+2] - zi
			r2 := rx*rx + ry*ry + rz*rz + soft2

			rInv := 1.0 / math.Sqrt(r2)
			r3Inv := rInv * rInv * rInv
			coef := g * masses[i] * masses[j] * r3Inv

			out[i*3] += coef * rx
			out[i*3+1] += coef * ry
			out[i*3+2] += coef * rz
			out[j*3] -= coef * rx
			out[j*3+1] -= coef * ry
			out[j*3+2] -= coef * rz
		}
	}
}

// forcesParallel gives each worker a block of rows and sums every row over
// all other particles. Rows are disjoint so no accumulator is shared; each
// pair is evaluated twice and totals differ from the serial loop only by
// floating-point reassociation.
func (c *CPUBackend) forcesParallel(pos, masses []float64, g, soft2 float64, out []float64) error {
	n := len(masses)
	workers := c.workers
	if n/minParallel < workers {
		workers = n / minParallel
	}
	if workers < 1 {
		workers = 1
	}
	chunkSize := (n + workers - 1) / workers

	var eg errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)

		eg.Go(func() error {
			for i := start; i < end; i++ {
				xi, yi, zi := pos[i*3], pos[i*3+1], pos[i*3+2]
				var fx, fy, fz float64

				for j := 0; j < n; j++ {
					if i == j {
						continue
					}
					rx := pos[j*3] - xi
					ry := pos[j*3+1] - yi
					rz := pos[j*3+2] - zi
					r2 := rx*rx + ry*ry + rz*rz + soft2

					rInv := 1.0 / math.Sqrt(r2)
					r3Inv := rInv * rInv * rInv
					coef := g * masses[i] * masses[j] * r3Inv

					fx += coef * rx
					fy += coef * ry
					fz += coef * rz
				}
				out[i*3], out[i*3+1], out[i*3+2] = fx, fy, fz
			}
			return nil
		})
	}
	return eg.Wait()
}
