package twin

import (
	"fmt"

	"github.com/banshee-data/twinlab/internal/orientation"
	"github.com/banshee-data/twinlab/internal/region"
)

// growTable appends the single twin record of a run. Centroid and equivalent diameter
// keep their defaults; region.Table.Recompute fills them in when a caller needs them.
func growTable(t *region.Table, q orientation.Quat) (int, error) {
	id := t.Grow()
	rec := region.DefaultRecord()
	rec.Orientation = q
	rec.Active = true
	if err := t.Set(id, rec); err != nil {
		return 0, fmt.Errorf("grow region table: %w", err)
	}
	return id, nil
}

// lastTwinOrientation is the Σ3 twin of the highest region id, or the identity when
// the table holds no regions.
func lastTwinOrientation(t *region.Table) (orientation.Quat, error) {
	n := t.NumRegions()
	if n == 0 {
		return orientation.Identity(), nil
	}
	rec, err := t.At(n)
	if err != nil {
		return orientation.Quat{}, err
	}
	return orientation.TwinRotation(rec.Orientation)
}
