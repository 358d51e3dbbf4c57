package hourgroup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cgmdose/internal/errors"
)

func TestGroupOf_AllHours(t *testing.T) {
	table := New()

	for hour := 0; hour < HoursPerDay; hour++ {
		got, err := table.GroupOf(hour)
		require.NoError(t, err)
		assert.Equal(t, hour/3, got, "hour %d", hour)
	}
}

func TestGroupOf_OutOfRange(t *testing.T) {
	table := New()

	for _, hour := range []int{-1, 24, 100} {
		_, err := table.GroupOf(hour)
		require.Error(t, err)
		assert.True(t, apperrors.IsDomainError(err), "hour %d", hour)
	}
}

func TestHours(t *testing.T) {
	table := New()

	tests := []struct {
		group int
		want  []int
	}{
		{group: 0, want: []int{0, 1, 2}},
		{group: 3, want: []int{9, 10, 11}},
		{group: 7, want: []int{21, 22, 23}},
	}

	for _, tt := range tests {
		got, err := table.Hours(tt.group)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := table.Hours(Groups)
	assert.True(t, apperrors.IsDomainError(err))
}

func TestHours_ReturnsCopy(t *testing.T) {
	table := New()

	hours, err := table.Hours(1)
	require.NoError(t, err)
	hours[0] = 99

	again, err := table.Hours(1)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5}, again)
}

func TestDefault_IsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestLabel(t *testing.T) {
	table := New()

	assert.Equal(t, "00:00-02:59", table.Label(0))
	assert.Equal(t, "21:00-23:59", table.Label(7))
	assert.Equal(t, "invalid", table.Label(8))
}
