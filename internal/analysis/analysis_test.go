package analysis

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/snapshot"
)

// circleFrames puts a light body on the unit circle around a heavy one, one
// frame per sixteenth of a turn, for the given number of frames.
func circleFrames(n int) []snapshot.Frame {
	const w = 2 * math.Pi / 16
	frames := make([]snapshot.Frame, n)
	for k := range frames {
		theta := w * float64(k)
		s := physics.NewSystem(
			physics.Particle{Mass: 1e6},
			physics.Particle{
				Mass: 1,
				Pos:  physics.V(math.Cos(theta), math.Sin(theta), 0),
				Vel:  physics.V(-w*math.Sin(theta), w*math.Cos(theta), 0),
			},
		)
		frames[k] = snapshot.Frame{Index: k, System: s}
	}
	return frames
}

func TestParseField(t *testing.T) {
	tests := []struct {
		in      string
		want    Field
		wantErr bool
	}{
		{"x", FieldX, false},
		{" VY ", FieldVY, false},
		{"speed", FieldSpeed, false},
		{"mass", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseField(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseField(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSeries(t *testing.T) {
	frames := circleFrames(5)

	xs, err := Series(frames, 1, FieldX)
	if err != nil {
		t.Fatal(err)
	}
	if len(xs) != 5 || xs[0] != 1 || math.Abs(xs[4]) > 1e-15 {
		t.Errorf("unexpected x series %v", xs)
	}

	rs, err := Series(frames, 1, FieldR)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range rs {
		if math.Abs(r-1) > 1e-12 {
			t.Errorf("frame %d: radius %g, want 1", i, r)
		}
	}
}

func TestSeries_Errors(t *testing.T) {
	frames := circleFrames(3)

	if _, err := Series(nil, 0, FieldX); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames, got %v", err)
	}
	if _, err := Series(frames, 2, FieldX); !errors.Is(err, ErrBodyRange) {
		t.Errorf("expected ErrBodyRange, got %v", err)
	}
	if _, err := Series(frames, -1, FieldX); !errors.Is(err, ErrBodyRange) {
		t.Errorf("expected ErrBodyRange, got %v", err)
	}
	if _, err := Series(frames, 0, Field("q")); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
}

func TestTimes(t *testing.T) {
	got := Times(circleFrames(3), 86400)
	want := []float64{0, 86400, 172800}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("times[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestReturnError(t *testing.T) {
	rerr, idx, err := ReturnError(circleFrames(17), 1)
	if err != nil {
		t.Fatal(err)
	}
	if rerr > 1e-9 {
		t.Errorf("full orbit return error %g, want ~0", rerr)
	}
	if idx != 16 {
		t.Errorf("closest frame %d, want 16", idx)
	}

	rerr, idx, err = ReturnError(circleFrames(13), 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rerr-math.Sqrt2) > 1e-5 {
		t.Errorf("three-quarter orbit return error %g, want sqrt(2)", rerr)
	}
	if idx != 12 {
		t.Errorf("closest frame %d, want 12", idx)
	}
}

func TestReturnError_Errors(t *testing.T) {
	single := physics.NewSystem(physics.Particle{Mass: 1, Pos: physics.V(1, 0, 0)})
	frames := []snapshot.Frame{{Index: 0, System: single}, {Index: 1, System: single.Clone()}}
	if _, _, err := ReturnError(frames, 0); err == nil {
		t.Error("expected error for body at centre of mass")
	}
	if _, _, err := ReturnError(circleFrames(1), 1); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames for one frame, got %v", err)
	}
}

func TestOrbitalPeriod(t *testing.T) {
	period, err := OrbitalPeriod(circleFrames(17), 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(period-16) > 1e-6 {
		t.Errorf("period %g, want 16", period)
	}

	// Two and a half turns.
	period, err = OrbitalPeriod(circleFrames(41), 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(period-8) > 1e-6 {
		t.Errorf("period %g, want 8", period)
	}

	period, err = OrbitalPeriod(circleFrames(1), 1, 1)
	if err != nil || period != 0 {
		t.Errorf("single frame: got %g, %v", period, err)
	}
}

func TestSummarize(t *testing.T) {
	sums, err := Summarize(circleFrames(17), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(sums))
	}

	s := sums[1]
	if s.Body != 1 || s.Mass != 1 {
		t.Errorf("unexpected summary header %+v", s)
	}
	if math.Abs(s.MinRadius-1) > 1e-5 || math.Abs(s.MaxRadius-1) > 1e-5 {
		t.Errorf("radius range [%g, %g], want ~1", s.MinRadius, s.MaxRadius)
	}
	if math.Abs(s.MeanSpeed-2*math.Pi/16) > 1e-12 {
		t.Errorf("mean speed %g", s.MeanSpeed)
	}
	if math.Abs(s.Period-160) > 1e-4 {
		t.Errorf("period %g, want 160", s.Period)
	}
	if s.ReturnError > 1e-9 {
		t.Errorf("return error %g", s.ReturnError)
	}

	if _, err := Summarize(nil, 1); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames, got %v", err)
	}
}

func TestFFT_Impulse(t *testing.T) {
	data := make([]float64, 8)
	data[0] = 1
	for i, c := range FFT(data) {
		if math.Abs(real(c)-1) > 1e-12 || math.Abs(imag(c)) > 1e-12 {
			t.Errorf("bin %d = %v, want 1", i, c)
		}
	}
}

func TestFFT_PanicsOnOddLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	FFT(make([]float64, 6))
}

func TestDominantPeriod(t *testing.T) {
	series := make([]float64, 300)
	for i := range series {
		series[i] = 5 + math.Sin(2*math.Pi*float64(i)/16)
	}
	if got := DominantPeriod(series, 0.5); math.Abs(got-8) > 1e-9 {
		t.Errorf("period %g, want 8", got)
	}

	flat := make([]float64, 64)
	if got := DominantPeriod(flat, 1); got != 0 {
		t.Errorf("flat series period %g, want 0", got)
	}
	if got := DominantPeriod([]float64{1}, 1); got != 0 {
		t.Errorf("short series period %g, want 0", got)
	}
}

func TestPortrait(t *testing.T) {
	p, err := NewPortrait(circleFrames(16), 1, FieldX, FieldY)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Points) != 16 {
		t.Fatalf("expected 16 points, got %d", len(p.Points))
	}

	art := p.ASCII(30, 12)
	lines := strings.Split(strings.TrimSuffix(art, "\n"), "\n")
	if len(lines) != 12 {
		t.Fatalf("expected 12 lines, got %d", len(lines))
	}
	for i, l := range lines {
		if n := len([]rune(l)); n != 30 {
			t.Errorf("line %d has %d columns", i, n)
		}
	}
	if !strings.Contains(art, "•") || !strings.Contains(art, "│") || !strings.Contains(art, "─") {
		t.Errorf("expected points and both axes:\n%s", art)
	}

	var empty *Portrait
	if empty.ASCII(10, 10) != "" {
		t.Error("nil portrait should render empty")
	}
	if _, err := NewPortrait(circleFrames(2), 5, FieldX, FieldY); !errors.Is(err, ErrBodyRange) {
		t.Errorf("expected ErrBodyRange, got %v", err)
	}
}

func TestLyapunovExponent_FreeParticle(t *testing.T) {
	sys := physics.NewSystem(physics.Particle{Mass: 1, Vel: physics.V(3, 0, 0)})
	lambda, err := LyapunovExponent(sys, physics.NewGravity(1, 0), 0.1, 100, 1e-3)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(lambda) > 1e-9 {
		t.Errorf("free particle exponent %g, want 0", lambda)
	}
	if sys.Particles[0].Pos != (physics.Vec3{}) {
		t.Error("input system was modified")
	}
}

func TestLyapunovExponent_Errors(t *testing.T) {
	grav := physics.NewGravity(1, 0)
	sys := physics.NewSystem(physics.Particle{Mass: 1})

	if _, err := LyapunovExponent(&physics.System{}, grav, 1, 1, 1); err == nil {
		t.Error("expected error for empty system")
	}
	if _, err := LyapunovExponent(sys, grav, 1, 0, 1); err == nil {
		t.Error("expected error for zero steps")
	}
	if _, err := LyapunovExponent(sys, grav, 1, 1, 0); err == nil {
		t.Error("expected error for zero perturbation")
	}
}

func TestDtSweep(t *testing.T) {
	sys := physics.NewSystem(
		physics.Particle{Mass: 1, Pos: physics.V(-0.5, 0, 0), Vel: physics.V(0, -0.7, 0)},
		physics.Particle{Mass: 1, Pos: physics.V(0.5, 0, 0), Vel: physics.V(0, 0.7, 0)},
	)
	base := dynamo.DefaultParams()
	base.G = 1
	base.Softening = 0

	points, err := DtSweep(context.Background(), sys, base, []float64{0.01, 0.005}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Steps != 100 || points[1].Steps != 200 {
		t.Errorf("unexpected step counts %d, %d", points[0].Steps, points[1].Steps)
	}
	for _, p := range points {
		if p.EnergyDrift < 0 || p.EnergyDrift > 0.1 {
			t.Errorf("dt %g: energy drift %g", p.Dt, p.EnergyDrift)
		}
		if p.MomentumDrift > 1e-12 {
			t.Errorf("dt %g: momentum drift %g", p.Dt, p.MomentumDrift)
		}
	}
	if sys.Particles[0].Pos != physics.V(-0.5, 0, 0) {
		t.Error("input system was modified")
	}

	if _, err := DtSweep(context.Background(), sys, base, []float64{0}, 1); !errors.Is(err, dynamo.ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}
}
