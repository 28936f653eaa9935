package models

import "time"

// Course is a weekly teaching commitment owned by one section.
type Course struct {
	ID              string    `db:"id" json:"id"`
	Code            string    `db:"code" json:"code"`
	Name            string    `db:"name" json:"name"`
	InstructorID    string    `db:"instructor_id" json:"instructor_id"`
	RoomID          string    `db:"room_id" json:"room_id"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	MeetingsPerWeek int       `db:"meetings_per_week" json:"meetings_per_week"`
	SectionID       string    `db:"section_id" json:"section_id"`
	YearLevel       int       `db:"year_level" json:"year_level"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	SectionID string
	YearLevel int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
