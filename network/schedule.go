package network

import (
	"sort"

	"hydrosim/simerr"
)

// Interval is one (start,end,mode) triple of a TM-mode DPRV's schedule,
// spec.md §9: "the hard-coded schedule in the source is not generalized.
// Treat it as data." Night true selects the valve's NightPressure setpoint
// for [Start,End); otherwise DayPressure applies.
type Interval struct {
	Start, End float64 // seconds elapsed, half-open [Start,End)
	Night      bool
}

// Schedule is a sorted, gap-free, non-overlapping sequence of Intervals
// covering the simulation horizon, spec.md §9.
type Schedule struct {
	Intervals []Interval
}

// Validate checks the contiguity invariant spec.md §9 requires: sorted by
// Start, each interval's End equals the next one's Start, no overlaps.
func (s *Schedule) Validate() error {
	for i := 1; i < len(s.Intervals); i++ {
		prev, cur := s.Intervals[i-1], s.Intervals[i]
		if cur.Start < prev.End {
			return simerr.New(simerr.Input, simerr.CodeNumericOutOfRange,
				"schedule: interval [%.0f,%.0f) overlaps [%.0f,%.0f)", cur.Start, cur.End, prev.Start, prev.End)
		}
		if cur.Start > prev.End {
			return simerr.New(simerr.Input, simerr.CodeNumericOutOfRange,
				"schedule: gap between [%.0f,%.0f) and [%.0f,%.0f)", prev.Start, prev.End, cur.Start, cur.End)
		}
	}
	return nil
}

// NightAt reports whether t falls in a Night interval, boundaries closed on
// the left. Past the last interval's End, the last interval's mode holds.
func (s *Schedule) NightAt(t float64) bool {
	if len(s.Intervals) == 0 {
		return false
	}
	idx := sort.Search(len(s.Intervals), func(i int) bool {
		return s.Intervals[i].End > t
	})
	if idx >= len(s.Intervals) {
		idx = len(s.Intervals) - 1
	}
	return s.Intervals[idx].Night
}

