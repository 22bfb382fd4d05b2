package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/snapshot"
)

const (
	metadataFile = "metadata.json"
	snapshotFile = "snapshots.tsv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

type RunMetadata struct {
	ID            string             `json:"id"`
	Init          string             `json:"init"`
	Timestamp     time.Time          `json:"timestamp"`
	Particles     int                `json:"particles"`
	Seed          int64              `json:"seed"`
	G             float64            `json:"g"`
	Softening     float64            `json:"softening"`
	Dt            float64            `json:"dt"`
	Steps         int                `json:"steps"`
	DumpEvery     int                `json:"dump_every"`
	Dumps         int                `json:"dumps"`
	EnergyDrift   float64            `json:"energy_drift"`
	MomentumDrift float64            `json:"momentum_drift"`
	Metrics       map[string]float64 `json:"metrics"`
}

// NewMetadata describes a finished run.
func NewMetadata(init string, particles int, p dynamo.Params, res *dynamo.Result) RunMetadata {
	meta := RunMetadata{
		Init:      init,
		Timestamp: time.Now(),
		Particles: particles,
		Seed:      p.Seed,
		G:         p.G,
		Softening: p.Softening,
		Dt:        p.Dt,
		Steps:     p.Steps,
		DumpEvery: p.DumpEvery,
	}
	if res != nil {
		meta.Dumps = res.Dumps
		meta.EnergyDrift = res.EnergyDrift
		meta.MomentumDrift = res.MomentumDrift
		meta.Metrics = res.Metrics
	}
	return meta
}

// Run is an open run directory. It is a dynamo.Sink writing snapshots.tsv.
type Run struct {
	ID  string
	Dir string

	file   *os.File
	writer *snapshot.Writer
}

// NewRun creates a fresh run directory named after the init selector.
func (s *Store) NewRun(init string) (*Run, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	base := fmt.Sprintf("%s_%d", slug(init), time.Now().Unix())
	runID := base
	for i := 2; ; i++ {
		err := os.Mkdir(filepath.Join(s.baseDir, runID), 0755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return nil, err
		}
		runID = fmt.Sprintf("%s-%d", base, i)
	}

	dir := filepath.Join(s.baseDir, runID)
	f, err := os.Create(filepath.Join(dir, snapshotFile))
	if err != nil {
		return nil, err
	}

	return &Run{
		ID:     runID,
		Dir:    dir,
		file:   f,
		writer: snapshot.NewWriter(f),
	}, nil
}

func (r *Run) Dump(step int, s *physics.System) error {
	return r.writer.Dump(step, s)
}

// Finish flushes the snapshots and writes metadata.json.
func (r *Run) Finish(meta RunMetadata) error {
	if err := r.Close(); err != nil {
		return err
	}
	meta.ID = r.ID

	metaFile, err := os.Create(filepath.Join(r.Dir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// Close flushes and closes the snapshot file without writing metadata.
// A run closed this way is not listed.
func (r *Run) Close() error {
	if r.file == nil {
		return nil
	}
	ferr := r.writer.Flush()
	cerr := r.file.Close()
	r.file = nil
	if ferr != nil {
		return ferr
	}
	return cerr
}

func slug(init string) string {
	name := strings.TrimSuffix(filepath.Base(init), filepath.Ext(init))
	var b strings.Builder
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
			b.WriteRune(c)
		default:
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "run"
	}
	return b.String()
}

// List returns the metadata of every finished run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) SnapshotPath(runID string) string {
	return filepath.Join(s.baseDir, runID, snapshotFile)
}

func (s *Store) LoadFrames(runID string) ([]snapshot.Frame, error) {
	frames, err := snapshot.ReadAllFile(s.SnapshotPath(runID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	return frames, nil
}
