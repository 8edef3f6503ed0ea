package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/banshee-data/twinlab/internal/orientation"
	"github.com/banshee-data/twinlab/internal/region"
	"github.com/banshee-data/twinlab/internal/voxel"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Microstructure is a labelled grid together with its region table.
type Microstructure struct {
	ID               string
	Name             string
	Grid             *voxel.Grid
	Regions          *region.Table
	CreatedUnixNanos int64
}

// MicrostructureInfo is the listing view of a stored microstructure.
type MicrostructureInfo struct {
	ID               string
	Name             string
	Dims             [3]int
	CreatedUnixNanos int64
}

// SaveMicrostructure inserts m and its regions in one transaction.
// If m.ID is empty a new UUID is generated and written back.
func (s *Store) SaveMicrostructure(ctx context.Context, m *Microstructure) (string, error) {
	if m == nil || m.Grid == nil || m.Regions == nil {
		return "", fmt.Errorf("save microstructure: grid and regions are required")
	}
	if err := m.Grid.Validate(); err != nil {
		return "", fmt.Errorf("save microstructure: %w", err)
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedUnixNanos == 0 {
		m.CreatedUnixNanos = s.clock.Now().UnixNano()
	}

	blob, err := encodeLabels(m.Grid.Labels)
	if err != nil {
		return "", fmt.Errorf("save microstructure: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save microstructure: begin: %w", err)
	}
	defer tx.Rollback()

	g := m.Grid
	_, err = tx.ExecContext(ctx, `
		INSERT INTO microstructures (
			microstructure_id, name, nx, ny, nz, dx, dy, dz, labels_blob, created_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, g.Dims[0], g.Dims[1], g.Dims[2],
		g.Resolution.X, g.Resolution.Y, g.Resolution.Z, blob, m.CreatedUnixNanos,
	)
	if err != nil {
		return "", fmt.Errorf("insert microstructure: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO microstructure_regions (
			microstructure_id, region_id, qx, qy, qz, qw, cx, cy, cz, equivalent_diameter, active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare region insert: %w", err)
	}
	defer stmt.Close()

	for id, r := range m.Regions.Records() {
		q := r.Orientation.Components()
		_, err := stmt.ExecContext(ctx, m.ID, id, q[0], q[1], q[2], q[3],
			r.Centroid.X, r.Centroid.Y, r.Centroid.Z, r.EquivalentDiameter, r.Active)
		if err != nil {
			return "", fmt.Errorf("insert region %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save microstructure: commit: %w", err)
	}
	return m.ID, nil
}

// LoadMicrostructure reads a microstructure and its region table by id.
func (s *Store) LoadMicrostructure(ctx context.Context, id string) (*Microstructure, error) {
	m := &Microstructure{ID: id}
	var (
		dims [3]int
		res  r3.Vec
		blob []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT name, nx, ny, nz, dx, dy, dz, labels_blob, created_unix_nanos
		FROM microstructures WHERE microstructure_id = ?`, id,
	).Scan(&m.Name, &dims[0], &dims[1], &dims[2], &res.X, &res.Y, &res.Z, &blob, &m.CreatedUnixNanos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("microstructure %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load microstructure: %w", err)
	}

	if dims[0] <= 0 || dims[1] <= 0 || dims[2] <= 0 {
		return nil, fmt.Errorf("load microstructure %s: %w", id, voxel.ErrInvalidDimensions)
	}
	n, err := voxelCount(dims)
	if err != nil {
		return nil, fmt.Errorf("load microstructure %s: %w", id, err)
	}
	labels, err := decodeLabels(blob, n)
	if err != nil {
		return nil, fmt.Errorf("load microstructure %s: %w", id, err)
	}
	if m.Grid, err = voxel.FromLabels(dims, res, labels); err != nil {
		return nil, fmt.Errorf("load microstructure %s: %w", id, err)
	}

	records, err := s.loadRegions(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Regions, err = region.FromRecords(records); err != nil {
		return nil, fmt.Errorf("load microstructure %s: %w", id, err)
	}
	return m, nil
}

func (s *Store) loadRegions(ctx context.Context, id string) ([]region.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT region_id, qx, qy, qz, qw, cx, cy, cz, equivalent_diameter, active
		FROM microstructure_regions
		WHERE microstructure_id = ?
		ORDER BY region_id`, id)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()

	var records []region.Record
	for rows.Next() {
		var (
			rid        int
			qx, qy, qz float64
			qw         float64
			r          region.Record
		)
		if err := rows.Scan(&rid, &qx, &qy, &qz, &qw,
			&r.Centroid.X, &r.Centroid.Y, &r.Centroid.Z, &r.EquivalentDiameter, &r.Active); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		if rid != len(records) {
			return nil, fmt.Errorf("region ids of %s are not dense: got %d, want %d", id, rid, len(records))
		}
		if r.Orientation, err = orientation.New(qx, qy, qz, qw); err != nil {
			return nil, fmt.Errorf("region %d of %s: %w", rid, id, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regions: %w", err)
	}
	return records, nil
}

// ListMicrostructures returns all stored microstructures, newest first.
func (s *Store) ListMicrostructures(ctx context.Context) ([]MicrostructureInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT microstructure_id, name, nx, ny, nz, created_unix_nanos
		FROM microstructures
		ORDER BY created_unix_nanos DESC`)
	if err != nil {
		return nil, fmt.Errorf("list microstructures: %w", err)
	}
	defer rows.Close()

	var out []MicrostructureInfo
	for rows.Next() {
		var info MicrostructureInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.Dims[0], &info.Dims[1], &info.Dims[2], &info.CreatedUnixNanos); err != nil {
			return nil, fmt.Errorf("scan microstructure: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}
