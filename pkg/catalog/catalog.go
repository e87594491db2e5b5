// Package catalog maintains a sqlite index of local image folders and of
// conversion runs. The images table mirrors the labeling workflow's upload
// convention: the parent folder of an image file is its group name.
package catalog

import (
	"database/sql"
	"io/fs"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/gavinlouuu-kpt/label-studio-processor/internal/fsutil"
)

type DB struct {
	*sql.DB
}

// New opens (creating if needed) the catalog database at path.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS images (
			image_path        TEXT PRIMARY KEY,
			group_name        TEXT,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS runs (
			run_uid           TEXT PRIMARY KEY,
			export_dir        TEXT,
			output_dir        TEXT,
			prepared          BIGINT,
			total_masks       BIGINT,
			classes           BIGINT,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// IndexImages walks root recursively and upserts every image file, using the
// parent directory name as the group. Returns the number of indexed files.
func (db *DB) IndexImages(root string) (int, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return 0, err
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO images (image_path, group_name) VALUES (?, ?)
		ON CONFLICT(image_path) DO UPDATE SET group_name = excluded.group_name
	`)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	count := 0
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !fsutil.IsImageFile(d.Name()) {
			return nil
		}
		if _, err := stmt.Exec(path, filepath.Base(filepath.Dir(path))); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	return count, tx.Commit()
}

// RunRecord is one conversion appended to the runs table.
type RunRecord struct {
	RunUID     string
	ExportDir  string
	OutputDir  string
	Prepared   int
	TotalMasks int
	Classes    int
}

// RecordRun appends a conversion run.
func (db *DB) RecordRun(run RunRecord) error {
	_, err := db.Exec(`
		INSERT INTO runs (run_uid, export_dir, output_dir, prepared, total_masks, classes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.RunUID, run.ExportDir, run.OutputDir, run.Prepared, run.TotalMasks, run.Classes)
	return err
}

// CountImages returns the number of indexed images.
func (db *DB) CountImages() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM images`).Scan(&n)
	return n, err
}

// GroupCounts returns the number of indexed images per group name.
func (db *DB) GroupCounts() (map[string]int, error) {
	rows, err := db.Query(`SELECT group_name, COUNT(*) FROM images GROUP BY group_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var group string
		var n int
		if err := rows.Scan(&group, &n); err != nil {
			return nil, err
		}
		counts[group] = n
	}
	return counts, rows.Err()
}
