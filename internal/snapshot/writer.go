package snapshot

import (
	"encoding/csv"
	"io"

	"github.com/san-kum/nbodysim/internal/physics"
)

// Writer appends one line per dump to an underlying stream. It satisfies
// dynamo.Sink.
type Writer struct {
	w     *csv.Writer
	lines int
}

func NewWriter(w io.Writer) *Writer {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return &Writer{w: cw}
}

func (w *Writer) Dump(step int, s *physics.System) error {
	if err := w.w.Write(Encode(s)); err != nil {
		return err
	}
	w.lines++
	return nil
}

// Lines returns the number of lines written so far.
func (w *Writer) Lines() int { return w.lines }

// Flush writes buffered lines to the underlying stream.
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}
