// Package catalogdb persists the catalog of a loaded fusion dataset into a
// sqlite file, so segments, frames and labels can be queried offline without
// re-walking the annotation tables.
package catalogdb

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/meridian-data/fusionbay/dataset"
)

// DB wraps the sqlite connection holding an exported dataset catalog.
type DB struct {
	*sql.DB
}

// Open opens (creating if necessary) the catalog database at path and brings
// its schema up to date.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	db := &DB{conn}
	if err := db.MigrateUp(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// ExportDataset writes the full catalog of ds in one transaction. An export
// into a non-empty database adds to it; use a fresh file for a clean export.
func (db *DB) ExportDataset(ds *dataset.FusionDataset) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin export: %w", err)
	}
	defer tx.Rollback()

	for _, segment := range ds.Segments() {
		if err := exportSegment(tx, ds.Name, segment); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	return nil
}

func exportSegment(tx *sql.Tx, datasetName string, segment *dataset.FusionSegment) error {
	res, err := tx.Exec(
		`INSERT INTO segments (dataset, name, description) VALUES (?, ?, ?)`,
		datasetName, segment.Name, segment.Description,
	)
	if err != nil {
		return fmt.Errorf("insert segment %q: %w", segment.Name, err)
	}
	segmentID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, name := range segment.Sensors.Names() {
		sensor, _ := segment.Sensors.Get(name)
		tr := sensor.Extrinsics.Translation()
		q := sensor.Extrinsics.Rotation()
		if _, err := tx.Exec(
			`INSERT INTO sensors (segment_id, name, type, tx, ty, tz, qw, qx, qy, qz)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			segmentID, sensor.Name, string(sensor.Type),
			tr.X, tr.Y, tr.Z, q.Real, q.Imag, q.Jmag, q.Kmag,
		); err != nil {
			return fmt.Errorf("insert sensor %q: %w", sensor.Name, err)
		}
	}

	for idx, frame := range segment.Frames {
		res, err := tx.Exec(
			`INSERT INTO frames (segment_id, idx) VALUES (?, ?)`, segmentID, idx,
		)
		if err != nil {
			return fmt.Errorf("insert frame %d of %q: %w", idx, segment.Name, err)
		}
		frameID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if err := exportFrame(tx, frameID, frame); err != nil {
			return err
		}
	}
	return nil
}

func exportFrame(tx *sql.Tx, frameID int64, frame dataset.Frame) error {
	for channel, data := range frame {
		res, err := tx.Exec(
			`INSERT INTO data (frame_id, channel, local_path, remote_path, timestamp)
			 VALUES (?, ?, ?, ?, ?)`,
			frameID, channel, data.LocalPath, data.RemotePath, data.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert data for channel %q: %w", channel, err)
		}
		dataID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		for _, box := range data.Label.Box3D {
			attrs, err := json.Marshal(box.Attributes)
			if err != nil {
				return fmt.Errorf("encode attributes: %w", err)
			}
			if _, err := tx.Exec(
				`INSERT INTO boxes (data_id, category, instance,
				    tx, ty, tz, qw, qx, qy, qz, length, width, height, attributes)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				dataID, box.Category, box.Instance,
				box.Translation.X, box.Translation.Y, box.Translation.Z,
				box.Rotation.Real, box.Rotation.Imag, box.Rotation.Jmag, box.Rotation.Kmag,
				box.Size.Length, box.Size.Width, box.Size.Height,
				string(attrs),
			); err != nil {
				return fmt.Errorf("insert box (%s): %w", box.Category, err)
			}
		}
	}
	return nil
}

// CountSegments returns the number of exported segments.
func (db *DB) CountSegments() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM segments`).Scan(&n)
	return n, err
}

// CountFrames returns the number of frames exported for a segment name.
func (db *DB) CountFrames(segmentName string) (int, error) {
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM frames f JOIN segments s ON s.id = f.segment_id WHERE s.name = ?`,
		segmentName,
	).Scan(&n)
	return n, err
}

// CategoryCounts returns the number of exported boxes per category.
func (db *DB) CategoryCounts() (map[string]int, error) {
	rows, err := db.Query(`SELECT category, COUNT(*) FROM boxes GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("query category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		counts[category] = n
	}
	return counts, rows.Err()
}
