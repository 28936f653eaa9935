package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGridShape(t *testing.T) {
	grid := DefaultGrid()

	assert.Equal(t, []int{1, 2, 3, 4, 5}, grid.Days())
	assert.Equal(t, 19, grid.SlotCount())
	assert.Equal(t, 95, grid.SlotCount()*len(grid.Days()))
	assert.Equal(t, 18, grid.BookableSlots())

	first, err := grid.Label(0)
	require.NoError(t, err)
	assert.Equal(t, "08:00", first)

	last, err := grid.Label(18)
	require.NoError(t, err)
	assert.Equal(t, "17:00", last)

	_, err = grid.Label(19)
	assert.ErrorIs(t, err, ErrSlotOutOfRange)
}

func TestGridRun(t *testing.T) {
	grid := DefaultGrid()

	run, err := grid.Run(3, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5, 6}, run)

	run, err = grid.Run(14, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{14, 15, 16, 17}, run)

	_, err = grid.Run(15, 4)
	assert.ErrorIs(t, err, ErrSlotOutOfRange)

	_, err = grid.Run(18, 1)
	assert.ErrorIs(t, err, ErrSlotOutOfRange)

	_, err = grid.Run(0, 0)
	assert.ErrorIs(t, err, ErrSlotOutOfRange)
}

func TestGridEndLabel(t *testing.T) {
	grid := DefaultGrid()

	end, err := grid.EndLabel(2, 3)
	require.NoError(t, err)
	assert.Equal(t, "10:30", end)

	end, err = grid.EndLabel(0, 18)
	require.NoError(t, err)
	assert.Equal(t, "17:00", end)

	_, err = grid.EndLabel(17, 2)
	assert.ErrorIs(t, err, ErrSlotOutOfRange)
}

func TestGridDaysReturnsCopy(t *testing.T) {
	grid := DefaultGrid()
	days := grid.Days()
	days[0] = 7

	assert.Equal(t, 1, grid.Days()[0])
}

func TestNewGridCustom(t *testing.T) {
	grid, err := NewGrid(GridConfig{DayStart: "07:30", SlotMinutes: 60, SlotCount: 4, Days: []int{1, 3}})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, grid.Days())
	assert.Equal(t, 2, grid.SlotsFor(120))
	label, err := grid.Label(3)
	require.NoError(t, err)
	assert.Equal(t, "10:30", label)
}

func TestNewGridRejectsInvalidInput(t *testing.T) {
	cases := map[string]GridConfig{
		"bad clock":     {DayStart: "8am"},
		"bad day":       {Days: []int{0}},
		"duplicate day": {Days: []int{1, 1}},
		"overflow":      {DayStart: "22:00", SlotCount: 10, SlotMinutes: 30},
		"negative":      {SlotCount: -1},
		"no boundary":   {SlotCount: 1},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewGrid(cfg)
			assert.Error(t, err)
		})
	}
}
