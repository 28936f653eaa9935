package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableStatus represents lifecycle phases for saved timetables.
type TimetableStatus string

const (
	TimetableStatusDraft     TimetableStatus = "DRAFT"
	TimetableStatusPublished TimetableStatus = "PUBLISHED"
)

// TimetableScope identifies what a timetable was generated for.
type TimetableScope string

const (
	TimetableScopeSection   TimetableScope = "SECTION"
	TimetableScopeYearLevel TimetableScope = "YEAR_LEVEL"
)

// Valid reports whether the scope is known.
func (s TimetableScope) Valid() bool {
	return s == TimetableScopeSection || s == TimetableScopeYearLevel
}

// Timetable is a saved, versioned scheduling result for a section or a year level.
type Timetable struct {
	ID        string          `db:"id" json:"id"`
	Scope     TimetableScope  `db:"scope" json:"scope"`
	Ref       string          `db:"ref" json:"ref"`
	Version   int             `db:"version" json:"version"`
	Status    TimetableStatus `db:"status" json:"status"`
	Placed    int             `db:"placed" json:"placed"`
	Total     int             `db:"total" json:"total"`
	Meta      types.JSONText  `db:"meta" json:"meta"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// TimetableSlot is one placed session of a saved timetable.
type TimetableSlot struct {
	ID           string    `db:"id" json:"id"`
	TimetableID  string    `db:"timetable_id" json:"timetable_id"`
	SectionID    string    `db:"section_id" json:"section_id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	CourseCode   string    `db:"course_code" json:"course_code"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	RoomID       string    `db:"room_id" json:"room_id"`
	DayOfWeek    int       `db:"day_of_week" json:"day_of_week"`
	StartSlot    int       `db:"start_slot" json:"start_slot"`
	SlotCount    int       `db:"slot_count" json:"slot_count"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	Sequence     int       `db:"sequence" json:"sequence"`
	Shared       bool      `db:"shared" json:"shared"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// TimetableQuery filters timetable versions.
type TimetableQuery struct {
	Scope TimetableScope
	Ref   string
}
