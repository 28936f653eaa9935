package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineFallsBackToDefaultGrid(t *testing.T) {
	engine := NewEngine(Grid{}, nil)
	assert.Equal(t, 19, engine.Grid().SlotCount())
}

func TestScheduleSectionDoesNotRetainCallerSlice(t *testing.T) {
	courses := []Course{{ID: "c1", Code: "MATH", InstructorID: "p", RoomID: "R", DurationMinutes: 60, MeetingsPerWeek: 1, SectionID: "1A"}}
	engine := NewEngine(DefaultGrid(), nil)

	result, err := engine.ScheduleSection(NewLedger(), courses)
	require.NoError(t, err)
	courses[0].Code = "CHANGED"

	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "MATH", result.Assignments[0].Session.Course.Code)
}

func TestScheduleSectionOnCustomGrid(t *testing.T) {
	grid, err := NewGrid(GridConfig{DayStart: "09:00", SlotMinutes: 60, SlotCount: 3, Days: []int{1}})
	require.NoError(t, err)
	engine := NewEngine(grid, nil)

	result, err := engine.ScheduleSection(NewLedger(), []Course{
		{ID: "a", Code: "A", InstructorID: "p1", RoomID: "R1", DurationMinutes: 60, MeetingsPerWeek: 3, SectionID: "1A"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Placed)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, "09:00", result.Assignments[0].StartLabel)
	assert.Equal(t, "11:00", result.Assignments[1].EndLabel)
}
