package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/nbodysim/internal/snapshot"
)

type ExportBody struct {
	Mass  float64    `json:"mass"`
	Pos   [3]float64 `json:"pos"`
	Vel   [3]float64 `json:"vel"`
	Force [3]float64 `json:"force"`
}

type ExportFrame struct {
	Index  int          `json:"index"`
	Step   int          `json:"step"`
	Time   float64      `json:"time"`
	Bodies []ExportBody `json:"bodies"`
}

type ExportData struct {
	Run    RunMetadata   `json:"run"`
	Frames []ExportFrame `json:"frames"`
}

func newExportData(meta RunMetadata, frames []snapshot.Frame) ExportData {
	data := ExportData{
		Run:    meta,
		Frames: make([]ExportFrame, len(frames)),
	}
	for i, f := range frames {
		step := f.Index * meta.DumpEvery
		ef := ExportFrame{
			Index:  f.Index,
			Step:   step,
			Time:   float64(step) * meta.Dt,
			Bodies: make([]ExportBody, f.System.Len()),
		}
		for j, p := range f.System.Particles {
			ef.Bodies[j] = ExportBody{Mass: p.Mass, Pos: p.Pos, Vel: p.Vel, Force: p.Force}
		}
		data.Frames[i] = ef
	}
	return data
}

// ExportJSON writes a run and its frames as indented JSON.
func ExportJSON(w io.Writer, meta RunMetadata, frames []snapshot.Frame) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(meta, frames))
}

func ExportJSONFile(path string, meta RunMetadata, frames []snapshot.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := ExportJSON(file, meta, frames); err != nil {
		return err
	}
	return file.Close()
}
