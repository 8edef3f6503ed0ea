package region

import (
	"errors"
	"fmt"

	"github.com/banshee-data/twinlab/internal/orientation"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrOutOfRange is returned for region ids outside the table.
	ErrOutOfRange = errors.New("region: id out of range")
	// ErrInvalidOrientation is returned when a record carries a non-unit quaternion.
	ErrInvalidOrientation = errors.New("region: orientation is not a unit quaternion")
)

// Record holds the per-region attributes the twin engine reads and writes.
type Record struct {
	Orientation        orientation.Quat
	Centroid           r3.Vec  // physical units
	EquivalentDiameter float64 // diameter of the equal-volume sphere
	Active             bool
}

// DefaultRecord is the value a freshly grown slot holds.
func DefaultRecord() Record {
	return Record{Orientation: orientation.Identity()}
}

// Table is the per-region attribute table. Slot 0 is background; regions are 1..Len()-1.
type Table struct {
	records []Record
}

// NewTable creates a table with n regions plus the background slot, all default.
func NewTable(n int) *Table {
	if n < 0 {
		n = 0
	}
	t := &Table{records: make([]Record, n+1)}
	for i := range t.records {
		t.records[i] = DefaultRecord()
	}
	return t
}

// FromRecords builds a table from records, slot 0 first. The slice is copied.
func FromRecords(records []Record) (*Table, error) {
	for i, r := range records {
		if !r.Orientation.Valid() {
			return nil, fmt.Errorf("%w: region %d", ErrInvalidOrientation, i)
		}
	}
	out := make([]Record, len(records))
	copy(out, records)
	return &Table{records: out}, nil
}

// Len returns the table length including slot 0.
func (t *Table) Len() int { return len(t.records) }

// NumRegions returns Len()-1, or 0 for an empty table.
func (t *Table) NumRegions() int {
	if len(t.records) == 0 {
		return 0
	}
	return len(t.records) - 1
}

// At returns the record for id.
func (t *Table) At(id int) (Record, error) {
	if id < 0 || id >= len(t.records) {
		return Record{}, fmt.Errorf("%w: %d (len %d)", ErrOutOfRange, id, len(t.records))
	}
	return t.records[id], nil
}

// Set replaces the record for id.
func (t *Table) Set(id int, r Record) error {
	if id < 0 || id >= len(t.records) {
		return fmt.Errorf("%w: %d (len %d)", ErrOutOfRange, id, len(t.records))
	}
	if !r.Orientation.Valid() {
		return fmt.Errorf("%w: region %d", ErrInvalidOrientation, id)
	}
	t.records[id] = r
	return nil
}

// Grow appends one default record and returns its id.
func (t *Table) Grow() int {
	t.records = append(t.records, DefaultRecord())
	return len(t.records) - 1
}

// Records returns a copy of all records.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	return &Table{records: t.Records()}
}
