// Package snapshot reads and writes the tab-separated particle dump format.
//
// One line holds one state of the whole system:
//
//	N  m x y z vx vy vz fx fy fz  (repeated N times)
//
// Floats are written in the shortest form that parses back to the same
// float64, so a written line reloads into an identical store.
package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/nbodysim/internal/physics"
)

// FieldsPerParticle is the number of scalars each particle contributes.
const FieldsPerParticle = 10

var (
	ErrMalformed = errors.New("snapshot: malformed line")
	ErrEmpty     = errors.New("snapshot: no data")
)

// Frame is one decoded line together with its position in the stream.
type Frame struct {
	Index  int
	System *physics.System
}

func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'e', -1, 64)
}

// Encode returns the fields of one snapshot line for s.
func Encode(s *physics.System) []string {
	fields := make([]string, 0, 1+FieldsPerParticle*s.Len())
	fields = append(fields, strconv.Itoa(s.Len()))
	for _, p := range s.Particles {
		fields = append(fields,
			FormatFloat(p.Mass),
			FormatFloat(p.Pos[0]), FormatFloat(p.Pos[1]), FormatFloat(p.Pos[2]),
			FormatFloat(p.Vel[0]), FormatFloat(p.Vel[1]), FormatFloat(p.Vel[2]),
			FormatFloat(p.Force[0]), FormatFloat(p.Force[1]), FormatFloat(p.Force[2]),
		)
	}
	return fields
}

// Decode parses the fields of one snapshot line. The particle count in the
// header must be positive and match the number of fields exactly.
func Decode(fields []string) (*physics.System, error) {
	if n := len(fields); n > 0 && fields[n-1] == "" {
		fields = fields[:n-1]
	}
	if len(fields) == 0 {
		return nil, ErrEmpty
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("%w: bad header %q", ErrMalformed, fields[0])
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: particle count %d", ErrMalformed, n)
	}
	if want := 1 + FieldsPerParticle*n; len(fields) != want {
		return nil, fmt.Errorf("%w: header says %d particles (%d fields), line has %d fields",
			ErrMalformed, n, want, len(fields))
	}

	vals := make([]float64, len(fields)-1)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: particle %d field %d: %q",
				ErrMalformed, i/FieldsPerParticle, i%FieldsPerParticle, f)
		}
		vals[i] = v
	}

	s := &physics.System{Particles: make([]physics.Particle, n)}
	for i := range s.Particles {
		v := vals[i*FieldsPerParticle : (i+1)*FieldsPerParticle]
		s.Particles[i] = physics.Particle{
			Mass:  v[0],
			Pos:   physics.V(v[1], v[2], v[3]),
			Vel:   physics.V(v[4], v[5], v[6]),
			Force: physics.V(v[7], v[8], v[9]),
		}
	}
	return s, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return cr
}

// ReadFirst decodes the first line of r.
func ReadFirst(r io.Reader) (*physics.System, error) {
	record, err := newReader(r).Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Decode(record)
}

func ReadFirstFile(path string) (*physics.System, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := ReadFirst(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ReadAll decodes every line of r in order.
func ReadAll(r io.Reader) ([]Frame, error) {
	cr := newReader(r)
	frames := make([]Frame, 0)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		s, err := Decode(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", len(frames)+1, err)
		}
		frames = append(frames, Frame{Index: len(frames), System: s})
	}
	if len(frames) == 0 {
		return nil, ErrEmpty
	}
	return frames, nil
}

func ReadAllFile(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	frames, err := ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frames, nil
}
