package calendar

import (
	"sort"
	"time"

	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/timeutil"
)

// BusyInterval is a resolved pair of absolute instants derived from an
// event. It exists only for the duration of a free-slot computation and is
// never persisted.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// FreeSlot is a gap between busy intervals. It is guaranteed disjoint from
// every input interval and at least the requested minimum long.
// StartLocal/EndLocal are zone-local renderings for presentation.
type FreeSlot struct {
	Start           time.Time
	End             time.Time
	DurationMinutes int
	StartLocal      string
	EndLocal        string
}

// BusyIntervals resolves events to their blocking intervals. Cancelled
// events and events explicitly classified free never block. Events whose
// start or duration cannot be resolved are skipped; a bulk read already
// tolerated them, so availability does too.
func BusyIntervals(events []Event) []BusyInterval {
	var intervals []BusyInterval
	for _, e := range events {
		if e.Status == StatusCancelled || e.FreeBusy == FreeBusyFree {
			continue
		}
		start, err := e.StartInstant()
		if err != nil {
			continue
		}
		end, err := e.EndInstant()
		if err != nil || !end.After(start) {
			continue
		}
		intervals = append(intervals, BusyInterval{Start: start, End: end})
	}
	return intervals
}

// MergeIntervals sorts intervals by start and coalesces overlapping or
// touching ones into maximal runs, yielding the minimal set of disjoint
// busy spans. Merging an already-merged set is a no-op.
func MergeIntervals(intervals []BusyInterval) []BusyInterval {
	if len(intervals) == 0 {
		return nil
	}
	sorted := make([]BusyInterval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []BusyInterval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		// A start at or before the current run's end extends the run.
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// FindFreeSlots computes the maximal free gaps within [after, before) that
// are at least minDuration long. The threshold is inclusive: a gap exactly
// minDuration long is emitted. displayZone names the IANA zone used for
// the local renderings; empty means UTC.
func FindFreeSlots(events []Event, after, before time.Time, minDuration time.Duration, displayZone string) ([]FreeSlot, error) {
	if displayZone == "" {
		displayZone = "UTC"
	}
	// Validate the zone once up front rather than per slot.
	if _, err := timeutil.ToLocal(after, displayZone); err != nil {
		return nil, WrapError(ValidationError, "find_free_slots", "invalid display zone", err)
	}

	runs := MergeIntervals(BusyIntervals(events))

	var slots []FreeSlot
	cursor := after
	emit := func(start, end time.Time) {
		if end.Sub(start) < minDuration || !end.After(start) {
			return
		}
		startLocal, _ := timeutil.ToLocal(start, displayZone)
		endLocal, _ := timeutil.ToLocal(end, displayZone)
		slots = append(slots, FreeSlot{
			Start:           start,
			End:             end,
			DurationMinutes: int(end.Sub(start) / time.Minute),
			StartLocal:      startLocal,
			EndLocal:        endLocal,
		})
	}

	for _, run := range runs {
		if run.Start.After(cursor) {
			end := run.Start
			if end.After(before) {
				end = before
			}
			emit(cursor, end)
		}
		if run.End.After(cursor) {
			cursor = run.End
		}
		if !cursor.Before(before) {
			return slots, nil
		}
	}
	emit(cursor, before)
	return slots, nil
}
