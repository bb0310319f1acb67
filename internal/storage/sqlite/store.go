// Package sqlite persists committed measurements and exported pictures.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/storage/sqlite/migrations"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// Store persists measurement state in SQLite
type Store struct {
	sqlDB *sql.DB
}

// Picture is one exported screenshot
type Picture struct {
	Path             string
	TakenAt          time.Time
	MeasurementCount int
	VisibleCount     int // Measurements with at least one endpoint on screen
}

// Open opens a SQLite store and applies embedded migrations
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveGroups replaces the stored measurements with groups, keeping their order
func (s *Store) SaveGroups(ctx context.Context, groups []measurement.Group) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM measurements`); err != nil {
		return fmt.Errorf("clear measurements: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO measurements (
		   id, position, plane_id,
		   a_x, a_y, a_z, a_alignment,
		   b_x, b_y, b_z, b_alignment,
		   distance, label
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, g := range groups {
		if _, err := stmt.ExecContext(ctx,
			g.ID, i, g.PlaneID,
			g.PointA.X, g.PointA.Y, g.PointA.Z, int(g.AlignmentA),
			g.PointB.X, g.PointB.Y, g.PointB.Z, int(g.AlignmentB),
			g.DistanceMeters, g.Label,
		); err != nil {
			return fmt.Errorf("insert measurement %s: %w", g.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// LoadGroups returns the stored measurements in their saved order
func (s *Store) LoadGroups(ctx context.Context) ([]measurement.Group, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT
		   id, plane_id,
		   a_x, a_y, a_z, a_alignment,
		   b_x, b_y, b_z, b_alignment,
		   distance, label
		 FROM measurements ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}
	defer rows.Close()

	var groups []measurement.Group
	for rows.Next() {
		var (
			g      measurement.Group
			a, b   geometry.Vector3
			aa, ba int
		)
		if err := rows.Scan(
			&g.ID, &g.PlaneID,
			&a.X, &a.Y, &a.Z, &aa,
			&b.X, &b.Y, &b.Z, &ba,
			&g.DistanceMeters, &g.Label,
		); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		g.PointA, g.PointB = a, b
		g.AlignmentA, g.AlignmentB = measurement.Alignment(aa), measurement.Alignment(ba)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate measurements: %w", err)
	}
	return groups, nil
}

// RecordPicture stores metadata for an exported picture. Re-exporting to the
// same path overwrites the record.
func (s *Store) RecordPicture(ctx context.Context, path string, takenAt time.Time, lines []measurement.MeasurementLine2D) error {
	visible := 0
	for _, l := range lines {
		if l.Node1 != nil || l.Node2 != nil {
			visible++
		}
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO pictures (path, taken_at, measurement_count, visible_count)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   taken_at = excluded.taken_at,
		   measurement_count = excluded.measurement_count,
		   visible_count = excluded.visible_count`,
		path, takenAt.UTC().UnixMilli(), len(lines), visible,
	)
	if err != nil {
		return fmt.Errorf("record picture: %w", err)
	}
	return nil
}

// Pictures lists exported pictures, newest first
func (s *Store) Pictures(ctx context.Context) ([]Picture, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT path, taken_at, measurement_count, visible_count FROM pictures ORDER BY taken_at DESC, path`)
	if err != nil {
		return nil, fmt.Errorf("query pictures: %w", err)
	}
	defer rows.Close()

	var pictures []Picture
	for rows.Next() {
		var (
			p       Picture
			takenAt int64
		)
		if err := rows.Scan(&p.Path, &takenAt, &p.MeasurementCount, &p.VisibleCount); err != nil {
			return nil, fmt.Errorf("scan picture: %w", err)
		}
		p.TakenAt = time.UnixMilli(takenAt).UTC()
		pictures = append(pictures, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pictures: %w", err)
	}
	return pictures, nil
}
