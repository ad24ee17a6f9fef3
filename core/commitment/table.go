// Package commitment builds the unit commitment table: for every capacity
// reachable by switching dispatchable generators on or off, the combination
// with the fewest units online.
package commitment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kilianp07/microgrid/core/logger"
)

// MaxGenerators bounds the 2^n enumeration.
const MaxGenerators = 30

// DefaultProgressThreshold is the generator count from which Build reports
// progress.
const DefaultProgressThreshold = 14

// ErrTooManyGenerators is returned when the enumeration would not fit.
var ErrTooManyGenerators = errors.New("too many generators for unit commitment table")

// Entry is one row of the table.
type Entry struct {
	CapacityKW float64 `json:"capacity_kw"`
	State      []bool  `json:"state"`
	Units      int     `json:"units"`
}

// Table is immutable once built.
type Table struct {
	entries []Entry
}

type buildOptions struct {
	log       logger.Logger
	threshold int
}

// Option customises Build.
type Option func(*buildOptions)

// WithLogger reports progress through l.
func WithLogger(l logger.Logger) Option {
	return func(o *buildOptions) { o.log = logger.OrNop(l) }
}

// WithProgressThreshold sets the generator count from which progress is
// reported. Zero or negative keeps the default.
func WithProgressThreshold(n int) Option {
	return func(o *buildOptions) {
		if n > 0 {
			o.threshold = n
		}
	}
}

// Build enumerates every on/off combination of the generators given by
// their capacities. Among combinations reaching the same capacity the one
// with fewer units online wins, the first enumerated on ties.
func Build(capacities []float64, opts ...Option) (*Table, error) {
	o := buildOptions{log: logger.Nop{}, threshold: DefaultProgressThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	n := len(capacities)
	if n > MaxGenerators {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyGenerators, n, MaxGenerators)
	}

	rows := 1 << n
	report := n >= o.threshold
	step := rows / 10
	if report {
		o.log.Warnf("building unit commitment table over %d generators (%d combinations)", n, rows)
	}

	index := make(map[float64]int)
	var entries []Entry
	for row := 0; row < rows; row++ {
		capacity, units := 0.0, 0
		for i := 0; i < n; i++ {
			if row>>i&1 == 1 {
				capacity += capacities[i]
				units++
			}
		}
		if k, ok := index[capacity]; ok {
			if units < entries[k].Units {
				entries[k] = Entry{CapacityKW: capacity, State: stateOf(row, n), Units: units}
			}
		} else {
			index[capacity] = len(entries)
			entries = append(entries, Entry{CapacityKW: capacity, State: stateOf(row, n), Units: units})
		}
		if report && step > 0 && row > 0 && row%step == 0 {
			o.log.Infof("unit commitment table: %d%% (%d entries)", row*100/rows, len(entries))
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CapacityKW < entries[j].CapacityKW })
	if report {
		o.log.Infof("unit commitment table built: %d entries", len(entries))
	}
	return &Table{entries: entries}, nil
}

func stateOf(row, n int) []bool {
	s := make([]bool, n)
	for i := range s {
		s[i] = row>>i&1 == 1
	}
	return s
}

// Len returns the number of distinct capacities.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns a copy of the rows in ascending capacity order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = Entry{CapacityKW: e.CapacityKW, State: append([]bool(nil), e.State...), Units: e.Units}
	}
	return out
}

// Lookup scans the table in ascending order and returns the smallest
// capacity covering allocationKW together with its on/off state. Targets
// above the largest capacity get the largest.
func (t *Table) Lookup(allocationKW float64) (float64, []bool) {
	if len(t.entries) == 0 {
		return 0, nil
	}
	i := 0
	for i < len(t.entries)-1 {
		if allocationKW <= t.entries[i].CapacityKW {
			break
		}
		i++
	}
	e := t.entries[i]
	return e.CapacityKW, append([]bool(nil), e.State...)
}
