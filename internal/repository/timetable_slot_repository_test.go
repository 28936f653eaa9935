package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
)

func TestTimetableSlotRepositoryInsertBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableSlotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_slots")).
		WithArgs(sqlmock.AnyArg(), "tt-1", "1A", "c-1", "MATH", "t-1", "r-1", 1, 0, 2, "08:00", "09:00", 1, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_slots")).
		WithArgs(sqlmock.AnyArg(), "tt-1", "1B", "c-1", "MATH", "t-1", "r-1", 1, 0, 2, "08:00", "09:00", 1, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	base := models.TimetableSlot{
		TimetableID:  "tt-1",
		CourseID:     "c-1",
		CourseCode:   "MATH",
		InstructorID: "t-1",
		RoomID:       "r-1",
		DayOfWeek:    1,
		StartSlot:    0,
		SlotCount:    2,
		StartTime:    "08:00",
		EndTime:      "09:00",
		Sequence:     1,
		Shared:       true,
	}
	first, second := base, base
	first.SectionID = "1A"
	second.SectionID = "1B"
	slots := []models.TimetableSlot{first, second}

	require.NoError(t, repo.InsertBatch(context.Background(), nil, slots))
	assert.NotEmpty(t, slots[0].ID)
	assert.NotEqual(t, slots[0].ID, slots[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotRepositoryInsertBatchEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableSlotRepository(db)

	require.NoError(t, repo.InsertBatch(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotRepositoryListByTimetable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableSlotRepository(db)

	columns := []string{"id", "timetable_id", "section_id", "course_id", "course_code", "instructor_id", "room_id", "day_of_week", "start_slot", "slot_count", "start_time", "end_time", "sequence", "shared", "created_at"}
	rows := sqlmock.NewRows(columns).
		AddRow("slot-1", "tt-1", "1A", "c-1", "MATH", "t-1", "r-1", 1, 0, 2, "08:00", "09:00", 1, true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_slots WHERE timetable_id = $1 AND section_id = $2 ORDER BY day_of_week ASC, start_slot ASC, section_id ASC")).
		WithArgs("tt-1", "1A").
		WillReturnRows(rows)

	slots, err := repo.ListByTimetable(context.Background(), "tt-1", "1A")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "09:00", slots[0].EndTime)
	assert.True(t, slots[0].Shared)
	assert.NoError(t, mock.ExpectationsWereMet())
}
