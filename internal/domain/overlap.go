package domain

import "time"

// Overlaps reports whether the wall-clock spans of a and b share any time.
// Touching endpoints do not overlap.
func Overlaps(a, b *ClockEntry) bool {
	aStart, aEnd := a.Span()
	bStart, bEnd := b.Span()

	startInside := aStart.After(bStart) && aStart.Before(bEnd)
	endInside := aEnd.After(bStart) && aEnd.Before(bEnd)
	aContainsB := !aStart.After(bStart) && !aEnd.Before(bEnd)
	bContainsA := !bStart.After(aStart) && !bEnd.Before(aEnd)

	return startInside || endInside || aContainsB || bContainsA
}

// OverlapDuration returns how long the spans of a and b coincide.
func OverlapDuration(a, b *ClockEntry) time.Duration {
	aStart, aEnd := a.Span()
	bStart, bEnd := b.Span()

	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

// CheckOverlap is the tolerant duplicate-time check. Open entries never conflict.
// With considerPause, an overlap fully covered by the pairs' paused time is not a conflict.
func CheckOverlap(a, b *ClockEntry, considerPause bool, now time.Time) bool {
	if a.IsOpen() || b.IsOpen() {
		return false
	}
	if !Overlaps(a, b) {
		return false
	}
	if !considerPause {
		return true
	}
	overlap := int64(OverlapDuration(a, b) / time.Second)
	return a.PausedSeconds(now)+b.PausedSeconds(now) < overlap
}

// FindConflicts returns the entries in others whose spans overlap candidate, in input order.
// The candidate itself is skipped by identity, as are open entries when the candidate is open.
func FindConflicts(candidate *ClockEntry, others []*ClockEntry) []*ClockEntry {
	var conflicts []*ClockEntry
	for _, other := range others {
		if sameEntry(candidate, other) {
			continue
		}
		if candidate.IsOpen() && other.IsOpen() {
			continue
		}
		if Overlaps(candidate, other) {
			conflicts = append(conflicts, other)
		}
	}
	return conflicts
}

func sameEntry(a, b *ClockEntry) bool {
	if a == b {
		return true
	}
	return a.ID != 0 && a.ID == b.ID
}
