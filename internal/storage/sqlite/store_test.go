package sqlite

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/twinlab/internal/orientation"
	"github.com/banshee-data/twinlab/internal/region"
	"github.com/banshee-data/twinlab/internal/timeutil"
	"github.com/banshee-data/twinlab/internal/voxel"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "twinlab.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testMicrostructure(t *testing.T) *Microstructure {
	t.Helper()
	g := voxel.New(3, 2, 2, r3.Vec{X: 1, Y: 0.5, Z: 2})
	for i := range g.Labels {
		g.Labels[i] = int32(i % 3)
	}
	tbl := region.NewTable(2)
	require.NoError(t, tbl.Set(1, region.Record{
		Orientation: orientation.MustNew(0, 0, 0.7071067811865476, 0.7071067811865476),
		Active:      true,
	}))
	require.NoError(t, tbl.Set(2, region.Record{
		Orientation: orientation.MustNew(0.5, 0.5, 0.5, 0.5),
		Active:      true,
	}))
	require.NoError(t, tbl.Recompute(g))
	return &Microstructure{Name: "fixture", Grid: g, Regions: tbl}
}

func TestOpen_MigratesToLatest(t *testing.T) {
	s := openTestStore(t)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Re-running is a no-op.
	require.NoError(t, s.MigrateUp())
}

func TestOpen_ReopenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twinlab.db")
	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.SaveMicrostructure(context.Background(), testMicrostructure(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.LoadMicrostructure(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "fixture", got.Name)
}

func TestSaveLoadMicrostructure(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	m := testMicrostructure(t)

	id, err := s.SaveMicrostructure(ctx, m)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, m.ID)
	assert.NotZero(t, m.CreatedUnixNanos)

	got, err := s.LoadMicrostructure(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, m.Name, got.Name)
	assert.Equal(t, m.CreatedUnixNanos, got.CreatedUnixNanos)
	if diff := cmp.Diff(m.Grid, got.Grid); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(m.Regions.Records(), got.Regions.Records(),
		cmp.Comparer(func(a, b orientation.Quat) bool { return a.Components() == b.Components() })); diff != "" {
		t.Errorf("regions mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveMicrostructure_DuplicateID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	m := testMicrostructure(t)
	m.ID = "fixed-id"
	_, err := s.SaveMicrostructure(ctx, m)
	require.NoError(t, err)

	dup := testMicrostructure(t)
	dup.ID = "fixed-id"
	_, err = s.SaveMicrostructure(ctx, dup)
	assert.Error(t, err)

	// The failed transaction left nothing behind.
	list, err := s.ListMicrostructures(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSaveMicrostructure_RejectsInvalid(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.SaveMicrostructure(ctx, nil)
	assert.Error(t, err)

	m := testMicrostructure(t)
	m.Grid.Labels = m.Grid.Labels[:3]
	_, err = s.SaveMicrostructure(ctx, m)
	assert.ErrorIs(t, err, voxel.ErrDimensionMismatch)
}

func TestLoadMicrostructure_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadMicrostructure(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListMicrostructures_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := testMicrostructure(t)
	older.Name = "older"
	older.CreatedUnixNanos = 100
	newer := testMicrostructure(t)
	newer.Name = "newer"
	newer.CreatedUnixNanos = 200

	_, err := s.SaveMicrostructure(ctx, older)
	require.NoError(t, err)
	_, err = s.SaveMicrostructure(ctx, newer)
	require.NoError(t, err)

	list, err := s.ListMicrostructures(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Name)
	assert.Equal(t, "older", list[1].Name)
	assert.Equal(t, [3]int{3, 2, 2}, list[0].Dims)
}

func TestInsertListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	src, err := s.SaveMicrostructure(ctx, testMicrostructure(t))
	require.NoError(t, err)
	result := testMicrostructure(t)
	result.Name = "fixture+twin"
	resultID, err := s.SaveMicrostructure(ctx, result)
	require.NoError(t, err)

	first := &Run{
		SourceID:          src,
		Seed:              ^uint64(0),
		ThicknessFraction: 0.5,
		ScanMode:          "indexed",
		TwinID:            3,
		TwinVoxels:        7,
		TableLen:          4,
		CreatedUnixNanos:  10,
	}
	second := &Run{
		SourceID:          src,
		ResultID:          resultID,
		Seed:              42,
		ThicknessFraction: 0.25,
		ScanMode:          "full",
		TwinID:            3,
		TableLen:          4,
		CreatedUnixNanos:  20,
	}
	require.NoError(t, s.InsertRun(ctx, first))
	require.NoError(t, s.InsertRun(ctx, second))
	assert.NotEmpty(t, first.RunID)
	assert.NotEqual(t, first.RunID, second.RunID)

	runs, err := s.ListRuns(ctx, src)
	require.NoError(t, err)
	if diff := cmp.Diff([]*Run{first, second}, runs); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}

	none, err := s.ListRuns(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInsertRun_RejectsDanglingReferences(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	src, err := s.SaveMicrostructure(ctx, testMicrostructure(t))
	require.NoError(t, err)

	err = s.InsertRun(ctx, &Run{SourceID: src, ResultID: "missing", ScanMode: "indexed"})
	assert.Error(t, err, "unknown result")
	err = s.InsertRun(ctx, &Run{SourceID: "missing", ScanMode: "indexed"})
	assert.Error(t, err, "unknown source")

	runs, err := s.ListRuns(ctx, src)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestLabelBlob(t *testing.T) {
	labels := []int32{0, 1, 2, -1, 1 << 30}
	blob, err := encodeLabels(labels)
	require.NoError(t, err)

	got, err := decodeLabels(blob, len(labels))
	require.NoError(t, err)
	assert.Equal(t, labels, got)

	_, err = decodeLabels(blob, len(labels)+1)
	assert.Error(t, err, "short blob")

	_, err = decodeLabels(blob, len(labels)-1)
	assert.Error(t, err, "trailing labels")

	_, err = decodeLabels([]byte("not gzip"), 1)
	assert.Error(t, err)
}

func TestVoxelCount(t *testing.T) {
	n, err := voxelCount([3]int{3, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	n, err = voxelCount([3]int{1 << 10, 1 << 10, 1 << 8})
	require.NoError(t, err)
	assert.Equal(t, maxStoredVoxels, n)

	for _, dims := range [][3]int{
		{1 << 10, 1 << 10, 1<<8 + 1},
		{1 << 40, 1 << 40, 1 << 40},
		{math.MaxInt, 2, 1},
	} {
		_, err := voxelCount(dims)
		assert.ErrorIs(t, err, ErrTooManyVoxels, "%v", dims)
	}

	_, err = decodeLabels(nil, maxStoredVoxels+1)
	assert.ErrorIs(t, err, ErrTooManyVoxels)
	_, err = decodeLabels(nil, -1)
	assert.ErrorIs(t, err, ErrTooManyVoxels)
}

func TestLoadMicrostructure_RejectsOversizedDims(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveMicrostructure(ctx, testMicrostructure(t))
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx,
		`UPDATE microstructures SET nx = ?, ny = ?, nz = ? WHERE microstructure_id = ?`,
		1<<30, 1<<30, 1<<30, id)
	require.NoError(t, err)

	_, err = s.LoadMicrostructure(ctx, id)
	assert.ErrorIs(t, err, ErrTooManyVoxels)
}

func TestStore_ClockStampsRows(t *testing.T) {
	s := openTestStore(t)
	s.SetClock(timeutil.NewSteppingClock(time.Unix(0, 1000), time.Nanosecond))
	ctx := context.Background()

	m := testMicrostructure(t)
	id, err := s.SaveMicrostructure(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), m.CreatedUnixNanos)

	a := &Run{SourceID: id, ScanMode: "indexed"}
	b := &Run{SourceID: id, ScanMode: "indexed"}
	require.NoError(t, s.InsertRun(ctx, b))
	require.NoError(t, s.InsertRun(ctx, a))
	assert.Equal(t, int64(1001), b.CreatedUnixNanos)
	assert.Equal(t, int64(1002), a.CreatedUnixNanos)

	runs, err := s.ListRuns(ctx, id)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, b.RunID, runs[0].RunID)
	assert.Equal(t, a.RunID, runs[1].RunID)
}
