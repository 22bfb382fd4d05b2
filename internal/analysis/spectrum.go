package analysis

import (
	"math"
	"math/cmplx"
)

// FFT is a radix-2 transform; len(data) must be a power of two.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n&(n-1) != 0 {
		panic("analysis: fft requires power of 2 length")
	}

	half := n / 2
	even := make([]float64, half)
	odd := make([]float64, half)
	for i := 0; i < half; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	fe := FFT(even)
	fo := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < half; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n))) * fo[k]
		result[k] = fe[k] + w
		result[k+half] = fe[k] - w
	}
	return result
}

// PowerSpectrum returns the magnitudes of the first half of the transform of
// series after removing its mean and truncating it to a power of two.
func PowerSpectrum(series []float64) []float64 {
	n := 1
	for n*2 <= len(series) {
		n *= 2
	}
	if len(series) < 2 {
		return nil
	}

	mean := 0.0
	for _, v := range series[:n] {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range series[:n] {
		centered[i] = v - mean
	}

	spec := FFT(centered)
	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// DominantPeriod returns the period of the strongest non-zero frequency bin.
// The window must hold several cycles for the estimate to mean anything; it
// returns 0 when the series is flat or too short.
func DominantPeriod(series []float64, sampleDt float64) float64 {
	ps := PowerSpectrum(series)
	if len(ps) < 2 {
		return 0
	}

	best, bin := 0.0, 0
	for k := 1; k < len(ps); k++ {
		if ps[k] > best {
			best, bin = ps[k], k
		}
	}
	if bin == 0 {
		return 0
	}
	return float64(2*len(ps)) * sampleDt / float64(bin)
}
