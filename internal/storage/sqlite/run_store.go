package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Run records one twin insertion: which microstructure went in, which came out, and
// the parameters needed to reproduce it.
type Run struct {
	RunID             string
	SourceID          string
	ResultID          string // empty when the result was not stored
	Seed              uint64
	ThicknessFraction float64
	ScanMode          string
	TwinID            int32
	TwinVoxels        int
	TableLen          int
	CreatedUnixNanos  int64
}

// InsertRun stores r. If r.RunID is empty a new UUID is generated.
func (s *Store) InsertRun(ctx context.Context, r *Run) error {
	if r.RunID == "" {
		r.RunID = uuid.New().String()
	}
	if r.CreatedUnixNanos == 0 {
		r.CreatedUnixNanos = s.clock.Now().UnixNano()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO twin_runs (
			run_id, source_id, result_id, seed, thickness_fraction, scan_mode,
			twin_id, twin_voxels, table_len, created_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.SourceID, nullString(r.ResultID), int64(r.Seed), r.ThicknessFraction, r.ScanMode,
		r.TwinID, r.TwinVoxels, r.TableLen, r.CreatedUnixNanos,
	)
	if err != nil {
		return fmt.Errorf("insert twin run: %w", err)
	}
	return nil
}

// ListRuns returns the runs made from sourceID, oldest first.
func (s *Store) ListRuns(ctx context.Context, sourceID string) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, source_id, result_id, seed, thickness_fraction, scan_mode,
		       twin_id, twin_voxels, table_len, created_unix_nanos
		FROM twin_runs
		WHERE source_id = ?
		ORDER BY created_unix_nanos, run_id`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list twin runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		var resultID sql.NullString
		var seed int64
		if err := rows.Scan(&r.RunID, &r.SourceID, &resultID, &seed, &r.ThicknessFraction, &r.ScanMode,
			&r.TwinID, &r.TwinVoxels, &r.TableLen, &r.CreatedUnixNanos); err != nil {
			return nil, fmt.Errorf("scan twin run: %w", err)
		}
		r.Seed = uint64(seed)
		if resultID.Valid {
			r.ResultID = resultID.String
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate twin runs: %w", err)
	}
	return runs, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
