package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/snapshot"
)

var (
	ErrExists     = errors.New("storage: output already exists")
	ErrEmptyFrame = errors.New("storage: frame has no particle store")
)

const schema = `
CREATE TABLE bodies (
	frame INTEGER,
	id    INTEGER, -- index in the particle store
	mass  REAL,
	x     REAL,
	y     REAL,
	z     REAL,
	vx    REAL,
	vy    REAL,
	vz    REAL,
	fx    REAL,
	fy    REAL,
	fz    REAL);
`

const indices = `
CREATE INDEX idx_frame ON bodies (frame, id);
CREATE INDEX idx_id ON bodies (id);
`

const (
	insertBody = `INSERT INTO bodies VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
	queryFrame = `SELECT mass, x, y, z, vx, vy, vz, fx, fy, fz FROM bodies WHERE frame = ? ORDER BY id ASC;`
)

func openSQLite(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", "file:"+path+"?_journal_mode=OFF&_synchronous=OFF")
}

// ExportSQLite writes every frame into a new database at path, one row per
// body per frame. It refuses to touch an existing file, and removes the file
// again when the export fails part way.
func ExportSQLite(path string, frames []snapshot.Frame) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}

	if err := writeSQLite(path, frames); err != nil {
		if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
			return errors.Join(err, rerr)
		}
		return err
	}
	return nil
}

func writeSQLite(path string, frames []snapshot.Frame) error {
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return err
	}

	stmt, err := db.Prepare(insertBody)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range frames {
		if err := insertFrame(db, stmt, f); err != nil {
			return fmt.Errorf("frame %d: %w", f.Index, err)
		}
	}

	if _, err := db.Exec(indices); err != nil {
		return err
	}
	return db.Close()
}

// One transaction per frame; sqlite allows a single writer.
func insertFrame(db *sql.DB, stmt *sql.Stmt, f snapshot.Frame) error {
	if f.System == nil {
		return ErrEmptyFrame
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}

	txStmt := tx.Stmt(stmt)
	for id, p := range f.System.Particles {
		_, err = txStmt.Exec(
			f.Index, id, p.Mass,
			p.Pos[0], p.Pos[1], p.Pos[2],
			p.Vel[0], p.Vel[1], p.Vel[2],
			p.Force[0], p.Force[1], p.Force[2])
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ReadSQLiteFrame loads one frame back from a database written by
// ExportSQLite.
func ReadSQLiteFrame(path string, frame int) (*physics.System, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(queryFrame, frame)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s := &physics.System{}
	for rows.Next() {
		var p physics.Particle
		if err := rows.Scan(&p.Mass,
			&p.Pos[0], &p.Pos[1], &p.Pos[2],
			&p.Vel[0], &p.Vel[1], &p.Vel[2],
			&p.Force[0], &p.Force[1], &p.Force[2]); err != nil {
			return nil, err
		}
		s.Add(p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if s.Len() == 0 {
		return nil, fmt.Errorf("storage: frame %d not found in %s", frame, path)
	}
	return s, nil
}
