// Package hourgroup partitions the 24 hours of a day into eight ordered
// three-hour buckets. Group 0 holds hours 0-2, group 7 holds hours 21-23.
//
// A Table is immutable once built. Default returns a process-wide instance
// that is constructed on first use and shared by every transformer and by
// the dosing summary.
package hourgroup

import (
	"fmt"
	"slices"
	"sync"

	apperrors "cgmdose/internal/errors"
)

const (
	// HoursPerDay is the number of hours covered by the table.
	HoursPerDay = 24
	// HoursPerGroup is the width of one bucket.
	HoursPerGroup = 3
	// Groups is the number of buckets.
	Groups = HoursPerDay / HoursPerGroup
)

// Table maps hours to groups and groups to hours.
type Table struct {
	groupHours [Groups][]int
	hourGroup  [HoursPerDay]int
}

var (
	defaultTable *Table
	defaultOnce  sync.Once
)

// New builds a grouping table.
func New() *Table {
	t := &Table{}
	hour := 0
	for g := 0; g < Groups; g++ {
		t.groupHours[g] = make([]int, 0, HoursPerGroup)
		for i := 0; i < HoursPerGroup; i++ {
			t.groupHours[g] = append(t.groupHours[g], hour)
			t.hourGroup[hour] = g
			hour++
		}
	}
	return t
}

// Default returns the shared table, building it on first call.
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable = New()
	})
	return defaultTable
}

// GroupOf returns the group of an hour in [0,23].
func (t *Table) GroupOf(hour int) (int, error) {
	if hour < 0 || hour >= HoursPerDay {
		return 0, apperrors.NewDomainError(fmt.Sprintf("hour %d outside [0,%d]", hour, HoursPerDay-1), nil).
			WithContext("hour", hour)
	}
	return t.hourGroup[hour], nil
}

// Hours returns the hours belonging to a group in [0,7]. The slice is a copy.
func (t *Table) Hours(group int) ([]int, error) {
	if group < 0 || group >= Groups {
		return nil, apperrors.NewDomainError(fmt.Sprintf("hour group %d outside [0,%d]", group, Groups-1), nil).
			WithContext("group", group)
	}
	return slices.Clone(t.groupHours[group]), nil
}

// Label renders a group as a clock range, e.g. "03:00-05:59".
func (t *Table) Label(group int) string {
	hours, err := t.Hours(group)
	if err != nil {
		return "invalid"
	}
	return fmt.Sprintf("%02d:00-%02d:59", hours[0], hours[len(hours)-1])
}
