package models

import "time"

// Section is a cohort of students (e.g. "1A") within a year level.
type Section struct {
	ID        string    `db:"id" json:"id"`
	YearLevel int       `db:"year_level" json:"year_level"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
