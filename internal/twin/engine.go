package twin

import (
	"fmt"
	"math"

	"github.com/banshee-data/twinlab/internal/orientation"
	"github.com/banshee-data/twinlab/internal/region"
	"github.com/banshee-data/twinlab/internal/voxel"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultThicknessFraction is the twin thickness in equivalent diameters used when
// nothing else is configured.
const DefaultThicknessFraction = 0.5

// Config holds the engine parameters.
type Config struct {
	// ThicknessFraction scales a region's equivalent diameter into the band width;
	// the half-thickness is 0.5 * diameter * fraction.
	ThicknessFraction float64
	// Workers bounds concurrent classification. Values <= 1 run sequentially.
	Workers int
	Scan    ScanMode
}

// DefaultConfig returns a sequential, indexed configuration.
func DefaultConfig() Config {
	return Config{ThicknessFraction: DefaultThicknessFraction, Workers: 1, Scan: ScanIndexed}
}

// Phase is the engine state during Insert.
type Phase int

// Phases in the order Insert passes through them. An Insert rejected by Validate stops
// in PhaseValidating.
const (
	PhaseValidating Phase = iota
	PhaseRunning
	PhaseGrowing
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseValidating:
		return "validating"
	case PhaseRunning:
		return "running"
	case PhaseGrowing:
		return "growing"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// RegionOutcome records what happened to one source region.
type RegionOutcome struct {
	ID            int32
	Direction     CrystalDirection
	Normal        r3.Vec
	HalfThickness float64
	Relabeled     int
}

// Result is returned by a successful Insert.
type Result struct {
	// TwinID is the label written into every twin voxel: the table length before the run.
	TwinID int32
	// TableLen is the table length after the run, always TwinID+1.
	TableLen        int
	TwinVoxels      int
	Regions         []RegionOutcome
	TwinOrientation orientation.Quat
	Phase           Phase
}

// Engine inserts twin lamellae into a labelled microstructure.
type Engine struct {
	cfg Config
}

// New returns an engine for cfg. cfg is validated on every Insert.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Insert runs one twin insertion over g and t, drawing plane directions from src.
//
// Every region 1..N is processed in id order and all of them write the same twin id,
// t.Len() as it was on entry. After the loop exactly one record is appended to t,
// oriented as the Σ3 twin of region N. On error nothing has been modified.
//
// Insert blocks until done and cannot be cancelled. g, t and src must not be used by
// anything else for the duration of the call.
func (e *Engine) Insert(g *voxel.Grid, t *region.Table, src Source) (Result, error) {
	res := Result{Phase: PhaseValidating}
	q, err := e.preflight(g, t, src)
	if err != nil {
		logRejected(err)
		return res, err
	}

	res.Phase = PhaseRunning
	res.TwinID = int32(t.Len())
	n := t.NumRegions()
	diagf("phase=%s regions=%d twin_id=%d thickness_fraction=%g scan=%s workers=%d",
		res.Phase, n, res.TwinID, e.cfg.ThicknessFraction, e.cfg.Scan, e.cfg.Workers)

	// All draws happen here, before any classification is dispatched, so the stream
	// is consumed three values per region in ascending id order.
	planes := make([]Plane, n)
	res.Regions = make([]RegionOutcome, n)
	for i := 0; i < n; i++ {
		id := i + 1
		rec, err := t.At(id)
		if err != nil {
			return res, inputError(err, "region %d", id)
		}
		dir := DrawDirection(src)
		normal := SampleNormal(rec.Orientation, dir)
		ht := HalfThickness(rec.EquivalentDiameter, e.cfg.ThicknessFraction)
		planes[i] = NewPlane(normal, rec.Centroid, ht)
		res.Regions[i] = RegionOutcome{ID: int32(id), Direction: dir, Normal: normal, HalfThickness: ht}
	}

	classifier := NewClassifier(g, t.Len(), e.cfg.Scan)
	if e.parallel() {
		var eg errgroup.Group
		eg.SetLimit(e.cfg.Workers)
		for i := range planes {
			eg.Go(func() error {
				res.Regions[i].Relabeled = classifier.Relabel(res.Regions[i].ID, planes[i], res.TwinID)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return res, err
		}
	} else {
		for i := range planes {
			res.Regions[i].Relabeled = classifier.Relabel(res.Regions[i].ID, planes[i], res.TwinID)
		}
	}
	for _, ro := range res.Regions {
		res.TwinVoxels += ro.Relabeled
		tracef("region=%d normal=(%.4f, %.4f, %.4f) half_thickness=%g relabeled=%d",
			ro.ID, ro.Normal.X, ro.Normal.Y, ro.Normal.Z, ro.HalfThickness, ro.Relabeled)
	}

	res.Phase = PhaseGrowing
	if _, err := growTable(t, q); err != nil {
		return res, err
	}
	res.TwinOrientation = q
	res.TableLen = t.Len()

	res.Phase = PhaseDone
	diagf("phase=%s twin_voxels=%d table_len=%d twin_orientation=%v",
		res.Phase, res.TwinVoxels, res.TableLen, q)
	return res, nil
}

// parallel reports whether classification may fan out. A full scan reads voxels owned
// by other regions, so it always runs sequentially.
func (e *Engine) parallel() bool {
	return e.cfg.Workers > 1 && e.cfg.Scan == ScanIndexed
}

// Validate runs the checks Insert makes before touching anything: table, grid and
// label bounds, random source, configuration, and the twin orientation of the last
// region. It draws nothing and modifies nothing. A nil result means Insert will succeed
// on the same arguments.
func (e *Engine) Validate(g *voxel.Grid, t *region.Table, src Source) error {
	_, err := e.preflight(g, t, src)
	return err
}

// preflight validates and resolves the orientation of the record Insert will append.
func (e *Engine) preflight(g *voxel.Grid, t *region.Table, src Source) (orientation.Quat, error) {
	if err := e.validate(g, t, src); err != nil {
		return orientation.Quat{}, err
	}
	q, err := lastTwinOrientation(t)
	if err != nil {
		return orientation.Quat{}, inputError(err, "twin orientation of region %d", t.NumRegions())
	}
	return q, nil
}

func (e *Engine) validate(g *voxel.Grid, t *region.Table, src Source) error {
	if t == nil || t.Len() < 1 {
		return inputError(nil, "region table is empty")
	}
	if t.Len() > math.MaxInt32 {
		return inputError(nil, "region table has %d entries, more than a label can address", t.Len())
	}
	if g == nil {
		return inputError(nil, "voxel grid is nil")
	}
	if err := g.Validate(); err != nil {
		return inputError(err, "voxel grid")
	}
	if src == nil {
		return inputError(nil, "random source is nil")
	}

	tf := e.cfg.ThicknessFraction
	if math.IsNaN(tf) || math.IsInf(tf, 0) {
		return configError("thickness fraction must be finite, got %g", tf)
	}
	if tf < 0 {
		return configError("thickness fraction must be non-negative, got %g", tf)
	}
	if e.cfg.Workers < 0 {
		return configError("workers must be non-negative, got %d", e.cfg.Workers)
	}
	switch e.cfg.Scan {
	case ScanIndexed, ScanFull:
	default:
		return configError("unknown scan mode %d", int(e.cfg.Scan))
	}

	limit := int32(t.Len())
	for idx, l := range g.Labels {
		if l < 0 || l >= limit {
			x, y, z := g.Coords(idx)
			return inputError(nil, "voxel (%d, %d, %d) has label %d outside table of length %d", x, y, z, l, limit)
		}
	}
	return nil
}
