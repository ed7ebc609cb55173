package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func span(id int64, start, end time.Time) *ClockEntry {
	e := NewClockEntry(7, 1)
	e.ID = id
	e.StartTime = start
	e.EndTime = &end
	return e
}

func open(id int64, start time.Time) *ClockEntry {
	e := NewClockEntry(7, 1)
	e.ID = id
	e.StartTime = start
	return e
}

func TestOverlaps(t *testing.T) {
	base := span(1, clock(9, 0, 0), clock(12, 0, 0))

	tests := []struct {
		name     string
		other    *ClockEntry
		expected bool
	}{
		{"should detect a start inside", span(2, clock(11, 0, 0), clock(13, 0, 0)), true},
		{"should detect an end inside", span(2, clock(8, 0, 0), clock(10, 0, 0)), true},
		{"should detect containment", span(2, clock(10, 0, 0), clock(11, 0, 0)), true},
		{"should detect being contained", span(2, clock(8, 0, 0), clock(13, 0, 0)), true},
		{"should detect identical spans", span(2, clock(9, 0, 0), clock(12, 0, 0)), true},
		{"should not flag touching at the end", span(2, clock(12, 0, 0), clock(13, 0, 0)), false},
		{"should not flag touching at the start", span(2, clock(8, 0, 0), clock(9, 0, 0)), false},
		{"should not flag disjoint spans", span(2, clock(14, 0, 0), clock(15, 0, 0)), false},
		{"should treat an open entry as its start second", open(2, clock(10, 0, 0)), true},
		{"should not flag an open entry starting at the end", open(2, clock(12, 0, 0)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Overlaps(base, tt.other))
			assert.Equal(t, tt.expected, Overlaps(tt.other, base), "overlap must be symmetric")
		})
	}
}

func TestOverlapDuration(t *testing.T) {
	a := span(1, clock(9, 0, 0), clock(12, 0, 0))

	assert.Equal(t, time.Hour, OverlapDuration(a, span(2, clock(11, 0, 0), clock(13, 0, 0))))
	assert.Equal(t, time.Duration(0), OverlapDuration(a, span(2, clock(12, 0, 0), clock(13, 0, 0))))
}

func TestCheckOverlap(t *testing.T) {
	now := clock(18, 0, 0)

	t.Run("should ignore open entries", func(t *testing.T) {
		assert.False(t, CheckOverlap(span(1, clock(9, 0, 0), clock(12, 0, 0)), open(2, clock(10, 0, 0)), false, now))
	})

	t.Run("should flag overlap without pause tolerance", func(t *testing.T) {
		a := span(1, clock(9, 0, 0), clock(12, 0, 0))
		a.SecondsPaused = 7200
		assert.True(t, CheckOverlap(a, span(2, clock(11, 0, 0), clock(13, 0, 0)), false, now))
	})

	t.Run("should forgive overlap covered by paused time", func(t *testing.T) {
		a := span(1, clock(9, 0, 0), clock(12, 0, 0))
		a.SecondsPaused = 1800
		b := span(2, clock(11, 0, 0), clock(13, 0, 0))
		b.SecondsPaused = 1800

		assert.False(t, CheckOverlap(a, b, true, now))
	})

	t.Run("should flag overlap larger than paused time", func(t *testing.T) {
		a := span(1, clock(9, 0, 0), clock(12, 0, 0))
		a.SecondsPaused = 1800
		b := span(2, clock(11, 0, 0), clock(13, 0, 0))

		assert.True(t, CheckOverlap(a, b, true, now))
	})
}

func TestFindConflicts(t *testing.T) {
	candidate := span(5, clock(9, 0, 0), clock(12, 0, 0))
	others := []*ClockEntry{
		span(5, clock(9, 0, 0), clock(12, 0, 0)),
		span(6, clock(12, 0, 0), clock(13, 0, 0)),
		span(7, clock(11, 30, 0), clock(12, 30, 0)),
		span(8, clock(8, 0, 0), clock(9, 30, 0)),
	}

	conflicts := FindConflicts(candidate, others)

	assert.Equal(t, []*ClockEntry{others[2], others[3]}, conflicts)

	t.Run("should skip open entries when the candidate is open", func(t *testing.T) {
		fresh := open(0, clock(10, 0, 0))
		result := FindConflicts(fresh, []*ClockEntry{open(9, clock(10, 0, 0)), span(10, clock(9, 0, 0), clock(11, 0, 0))})

		assert.Len(t, result, 1)
		assert.Equal(t, int64(10), result[0].ID)
	})
}
