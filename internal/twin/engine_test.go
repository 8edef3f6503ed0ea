package twin

import (
	"math"
	"testing"

	"github.com/banshee-data/twinlab/internal/orientation"
	"github.com/banshee-data/twinlab/internal/region"
	"github.com/banshee-data/twinlab/internal/testutil"
	"github.com/banshee-data/twinlab/internal/voxel"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

var quatCmp = cmp.AllowUnexported(orientation.Quat{})

// halvesFixture is a 4x4x4 unit grid split at x=2 into regions 1 and 2.
func halvesFixture(t *testing.T, q1, q2 orientation.Quat) (*voxel.Grid, *region.Table) {
	t.Helper()
	g := voxel.New(4, 4, 4, r3.Vec{X: 1, Y: 1, Z: 1})
	for z := 0; z < 4; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				label := int32(1)
				if x >= 2 {
					label = 2
				}
				g.Set(x, y, z, label)
			}
		}
	}
	tbl, err := region.FromRecords([]region.Record{
		region.DefaultRecord(),
		{Orientation: q1, Centroid: r3.Vec{X: 0.5, Y: 1.5, Z: 1.5}, EquivalentDiameter: 4, Active: true},
		{Orientation: q2, Centroid: r3.Vec{X: 2.5, Y: 1.5, Z: 1.5}, EquivalentDiameter: 4, Active: true},
	})
	require.NoError(t, err)
	return g, tbl
}

// randomFixture builds a slab microstructure with random orientations and real stats.
func randomFixture(t *testing.T, seed uint64) (*voxel.Grid, *region.Table) {
	t.Helper()
	const n = 12
	g := voxel.New(n, n, n, r3.Vec{X: 0.5, Y: 1, Z: 1.5})
	for i := range g.Labels {
		x, y, z := g.Coords(i)
		g.Labels[i] = int32((x/3+y/4+z/6)%5) + 1
	}
	tbl := region.NewTable(5)
	rng := NewSource(seed)
	for id := 1; id <= 5; id++ {
		require.NoError(t, tbl.Set(id, region.Record{Orientation: orientation.Random(rng)}))
	}
	require.NoError(t, tbl.Recompute(g))
	return g, tbl
}

func TestInsertTwoRegionScenario(t *testing.T) {
	t.Parallel()
	s := math.Sqrt(0.5)
	q2 := orientation.MustNew(0, 0, s, s) // 90° about z
	g, tbl := halvesFixture(t, orientation.Identity(), q2)
	before := g.Clone()

	// Region 1 draws (+1,-1,+1), region 2 draws (-1,+1,-1).
	src := testutil.NewScriptedSource(0.7, 0.2, 0.9, 0.1, 0.6, 0.4)
	res, err := New(Config{ThicknessFraction: 0.5}).Insert(g, tbl, src)
	require.NoError(t, err)

	assert.Equal(t, 6, src.Draws)
	assert.Equal(t, int32(3), res.TwinID)
	assert.Equal(t, 4, res.TableLen)
	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, PhaseDone, res.Phase)

	// g(q2) maps (-1,1,-1) to (1,1,-1).
	normals := map[int32]r3.Vec{1: {X: 1, Y: -1, Z: 1}, 2: {X: 1, Y: 1, Z: -1}}
	centroids := map[int32]r3.Vec{1: {X: 0.5, Y: 1.5, Z: 1.5}, 2: {X: 2.5, Y: 1.5, Z: 1.5}}
	for _, ro := range res.Regions {
		assert.InDelta(t, normals[ro.ID].X, ro.Normal.X, 1e-12)
		assert.InDelta(t, normals[ro.ID].Y, ro.Normal.Y, 1e-12)
		assert.InDelta(t, normals[ro.ID].Z, ro.Normal.Z, 1e-12)
		assert.Equal(t, 1.0, ro.HalfThickness)
	}

	twins := 0
	for idx, orig := range before.Labels {
		x, y, z := before.Coords(idx)
		n, c := normals[orig], centroids[orig]
		np := n.X*float64(x) + n.Y*float64(y) + n.Z*float64(z)
		d0 := -(n.X*c.X + n.Y*c.Y + n.Z*c.Z)
		d1 := -(n.X*(c.X+2) + n.Y*(c.Y+2) + n.Z*(c.Z+2))
		norm := math.Sqrt(3)
		want := orig
		if math.Abs((np+d0)/norm) < 1 || math.Abs((np+d1)/norm) < 1 {
			want = 3
			twins++
		}
		assert.Equal(t, want, g.Labels[idx], "voxel (%d,%d,%d)", x, y, z)
	}
	assert.Equal(t, twins, res.TwinVoxels)
	assert.Positive(t, twins)

	rec, err := tbl.At(3)
	require.NoError(t, err)
	assert.True(t, rec.Active)
	assert.Equal(t, 0.0, rec.EquivalentDiameter)

	rot, err := orientation.AxisAngle(orientation.TwinAngle, orientation.TwinAxis)
	require.NoError(t, err)
	var want mat.Dense
	want.Mul(orientation.Matrix(q2), rot)
	assert.True(t, mat.EqualApprox(&want, orientation.Matrix(rec.Orientation), 1e-9))
	assert.Equal(t, res.TwinOrientation, rec.Orientation)
}

func TestInsertTableGrowsByOne(t *testing.T) {
	t.Parallel()
	for _, seed := range []uint64{1, 2, 3, 99} {
		g, tbl := randomFixture(t, seed)
		before := tbl.Len()
		res, err := New(DefaultConfig()).Insert(g, tbl, NewSource(seed))
		require.NoError(t, err)
		assert.Equal(t, before+1, tbl.Len())
		assert.Equal(t, int32(before), res.TwinID)
	}
}

func TestInsertLabelsStayOriginalOrTwin(t *testing.T) {
	t.Parallel()
	g, tbl := randomFixture(t, 8)
	before := g.Clone()
	twinID := int32(tbl.Len())

	res, err := New(Config{ThicknessFraction: 0.4}).Insert(g, tbl, NewSource(8))
	require.NoError(t, err)

	changed := 0
	for i, l := range g.Labels {
		if l != before.Labels[i] {
			assert.Equal(t, twinID, l)
			changed++
		}
	}
	assert.Equal(t, res.TwinVoxels, changed)

	sum := 0
	for _, ro := range res.Regions {
		sum += ro.Relabeled
	}
	assert.Equal(t, changed, sum)
}

func TestInsertDeterministic(t *testing.T) {
	t.Parallel()
	g, tbl := randomFixture(t, 21)

	g1, t1 := g.Clone(), tbl.Clone()
	g2, t2 := g.Clone(), tbl.Clone()
	r1, err := New(DefaultConfig()).Insert(g1, t1, NewSource(77))
	require.NoError(t, err)
	r2, err := New(DefaultConfig()).Insert(g2, t2, NewSource(77))
	require.NoError(t, err)

	assert.Equal(t, g1.Labels, g2.Labels)
	if diff := cmp.Diff(t1.Records(), t2.Records(), quatCmp); diff != "" {
		t.Errorf("tables differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(r1, r2, quatCmp); diff != "" {
		t.Errorf("results differ (-first +second):\n%s", diff)
	}
}

func TestInsertScanModesAndWorkersAgree(t *testing.T) {
	t.Parallel()
	g, tbl := randomFixture(t, 4)

	configs := []Config{
		{ThicknessFraction: 0.5, Workers: 1, Scan: ScanIndexed},
		{ThicknessFraction: 0.5, Workers: 4, Scan: ScanIndexed},
		{ThicknessFraction: 0.5, Workers: 4, Scan: ScanFull},
		{ThicknessFraction: 0.5, Workers: 0, Scan: ScanFull},
	}
	var ref *voxel.Grid
	for _, cfg := range configs {
		gc, tc := g.Clone(), tbl.Clone()
		_, err := New(cfg).Insert(gc, tc, NewSource(13))
		require.NoError(t, err)
		if ref == nil {
			ref = gc
			continue
		}
		assert.Equal(t, ref.Labels, gc.Labels, "config %+v", cfg)
	}
}

func TestInsertCentroidVoxelIsTwin(t *testing.T) {
	t.Parallel()
	g := voxel.New(3, 3, 3, r3.Vec{X: 1, Y: 1, Z: 1})
	for i := range g.Labels {
		g.Labels[i] = 1
	}
	centre := g.IndexOf(1, 1, 1)

	for _, tc := range []struct {
		name     string
		fraction float64
		want     int32
	}{
		{"positive thickness", 0.01, 2},
		{"zero thickness", 0, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			gc := g.Clone()
			tbl, err := region.FromRecords([]region.Record{
				region.DefaultRecord(),
				{Orientation: orientation.Random(NewSource(3)), Centroid: r3.Vec{X: 1, Y: 1, Z: 1}, EquivalentDiameter: 2, Active: true},
			})
			require.NoError(t, err)
			_, err = New(Config{ThicknessFraction: tc.fraction}).Insert(gc, tbl, NewSource(5))
			require.NoError(t, err)
			assert.Equal(t, tc.want, gc.Labels[centre])
		})
	}
}

func TestInsertEmptyTableLeavesGridUntouched(t *testing.T) {
	t.Parallel()
	g, _ := halvesFixture(t, orientation.Identity(), orientation.Identity())
	before := g.Clone()
	empty, err := region.FromRecords(nil)
	require.NoError(t, err)

	res, err := New(DefaultConfig()).Insert(g, empty, NewSource(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingOrMismatchedInput)
	assert.Equal(t, PhaseValidating, res.Phase)
	assert.Equal(t, before.Labels, g.Labels)
	assert.Equal(t, 0, empty.Len())
}

func TestInsertValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		cfg    Config
		mutate func(g *voxel.Grid) *voxel.Grid
		nilSrc bool
		kind   error
	}{
		{name: "nil grid", cfg: DefaultConfig(), mutate: func(*voxel.Grid) *voxel.Grid { return nil }, kind: ErrMissingOrMismatchedInput},
		{name: "short labels", cfg: DefaultConfig(), mutate: func(g *voxel.Grid) *voxel.Grid {
			g.Labels = g.Labels[:len(g.Labels)-1]
			return g
		}, kind: ErrMissingOrMismatchedInput},
		{name: "label past table", cfg: DefaultConfig(), mutate: func(g *voxel.Grid) *voxel.Grid {
			g.Labels[5] = 3
			return g
		}, kind: ErrMissingOrMismatchedInput},
		{name: "negative label", cfg: DefaultConfig(), mutate: func(g *voxel.Grid) *voxel.Grid {
			g.Labels[0] = -1
			return g
		}, kind: ErrMissingOrMismatchedInput},
		{name: "nil source", cfg: DefaultConfig(), nilSrc: true, kind: ErrMissingOrMismatchedInput},
		{name: "negative fraction", cfg: Config{ThicknessFraction: -0.1}, kind: ErrInvalidConfiguration},
		{name: "NaN fraction", cfg: Config{ThicknessFraction: math.NaN()}, kind: ErrInvalidConfiguration},
		{name: "infinite fraction", cfg: Config{ThicknessFraction: math.Inf(1)}, kind: ErrInvalidConfiguration},
		{name: "negative workers", cfg: Config{ThicknessFraction: 0.5, Workers: -2}, kind: ErrInvalidConfiguration},
		{name: "unknown scan", cfg: Config{ThicknessFraction: 0.5, Scan: ScanMode(7)}, kind: ErrInvalidConfiguration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g, tbl := halvesFixture(t, orientation.Identity(), orientation.Identity())
			if tc.mutate != nil {
				g = tc.mutate(g)
			}
			var snapshot []int32
			if g != nil {
				snapshot = append([]int32(nil), g.Labels...)
			}
			var src Source = NewSource(1)
			if tc.nilSrc {
				src = nil
			}

			_, err := New(tc.cfg).Insert(g, tbl, src)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.kind)
			assert.Equal(t, 3, tbl.Len(), "table must not grow on failure")
			if g != nil {
				assert.Equal(t, snapshot, g.Labels)
			}
		})
	}
}

func TestInsertBackgroundOnlyTable(t *testing.T) {
	t.Parallel()
	g := voxel.New(2, 2, 2, r3.Vec{X: 1, Y: 1, Z: 1})
	tbl := region.NewTable(0)
	src := testutil.NewScriptedSource(0.3)

	res, err := New(DefaultConfig()).Insert(g, tbl, src)
	require.NoError(t, err)
	assert.Equal(t, 0, src.Draws)
	assert.Equal(t, int32(1), res.TwinID)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, orientation.Identity(), res.TwinOrientation)
	assert.Zero(t, res.TwinVoxels)
	assert.Empty(t, res.Regions)
}

func TestInsertSharedTwinIDAcrossRegions(t *testing.T) {
	t.Parallel()
	g, tbl := halvesFixture(t, orientation.Identity(), orientation.Identity())
	res, err := New(Config{ThicknessFraction: 1}).Insert(g, tbl, NewSource(2))
	require.NoError(t, err)

	for _, ro := range res.Regions {
		assert.Positive(t, ro.Relabeled, "region %d", ro.ID)
	}
	assert.Equal(t, res.TwinVoxels, g.Count(res.TwinID))
	assert.Zero(t, g.Count(res.TwinID+1))
}

func TestValidateMatchesInsert(t *testing.T) {
	t.Parallel()
	g, tbl := halvesFixture(t, orientation.Identity(), orientation.Identity())
	before := g.Clone()
	src := testutil.NewScriptedSource(0.1, 0.2, 0.3, 0.4, 0.5, 0.6)

	e := New(DefaultConfig())
	require.NoError(t, e.Validate(g, tbl, src))
	assert.Zero(t, src.Draws, "validation draws nothing")
	assert.Equal(t, before.Labels, g.Labels)
	assert.Equal(t, 3, tbl.Len())

	_, err := e.Insert(g, tbl, src)
	require.NoError(t, err)

	// The grown table still validates, now for a follow-up run.
	require.NoError(t, e.Validate(g, tbl, NewSource(1)))

	g.Labels[0] = int32(tbl.Len())
	err = e.Validate(g, tbl, NewSource(1))
	assert.ErrorIs(t, err, ErrMissingOrMismatchedInput)
	err = New(Config{ThicknessFraction: math.NaN()}).Validate(g, tbl, NewSource(1))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.ErrorIs(t, e.Validate(nil, tbl, NewSource(1)), ErrMissingOrMismatchedInput)
}

func TestInsertTwinOrientationResolvedUpFront(t *testing.T) {
	t.Parallel()
	s := math.Sqrt(0.5)
	q2 := orientation.MustNew(0, 0, s, s)
	g, tbl := halvesFixture(t, orientation.Identity(), q2)

	q, err := New(DefaultConfig()).preflight(g, tbl, NewSource(1))
	require.NoError(t, err)
	want, err := orientation.TwinRotation(q2)
	require.NoError(t, err)
	if diff := cmp.Diff(want, q, quatCmp); diff != "" {
		t.Errorf("twin orientation mismatch (-want +got):\n%s", diff)
	}

	res, err := New(Config{ThicknessFraction: 0.5, Workers: 3, Scan: ScanIndexed}).Insert(g, tbl, NewSource(1))
	require.NoError(t, err)
	if diff := cmp.Diff(q, res.TwinOrientation, quatCmp); diff != "" {
		t.Errorf("inserted orientation mismatch (-preflight +insert):\n%s", diff)
	}
}
