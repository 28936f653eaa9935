package dto

// CreateCourseRequest captures fields for creating a course.
type CreateCourseRequest struct {
	Code            string `json:"code" validate:"required,max=32"`
	Name            string `json:"name" validate:"required,max=128"`
	InstructorID    string `json:"instructorId" validate:"required"`
	RoomID          string `json:"roomId" validate:"required"`
	DurationMinutes int    `json:"durationMinutes" validate:"required,min=1,slotminutes"`
	MeetingsPerWeek int    `json:"meetingsPerWeek" validate:"required,min=1,max=5"`
	SectionID       string `json:"sectionId" validate:"required"`
}

// UpdateCourseRequest replaces the mutable fields of a course.
type UpdateCourseRequest struct {
	Code            string `json:"code" validate:"required,max=32"`
	Name            string `json:"name" validate:"required,max=128"`
	InstructorID    string `json:"instructorId" validate:"required"`
	RoomID          string `json:"roomId" validate:"required"`
	DurationMinutes int    `json:"durationMinutes" validate:"required,min=1,slotminutes"`
	MeetingsPerWeek int    `json:"meetingsPerWeek" validate:"required,min=1,max=5"`
	SectionID       string `json:"sectionId" validate:"required"`
}

// CreateSectionRequest registers a section under a year level.
type CreateSectionRequest struct {
	ID        string `json:"id" validate:"required,max=16"`
	YearLevel int    `json:"yearLevel" validate:"required,min=1"`
}

// CourseImportRow is one CSV line of a course import.
type CourseImportRow struct {
	Code            string `csv:"code"`
	Name            string `csv:"name"`
	InstructorID    string `csv:"instructor_id"`
	RoomID          string `csv:"room_id"`
	DurationMinutes int    `csv:"duration_minutes"`
	MeetingsPerWeek int    `csv:"meetings_per_week"`
	SectionID       string `csv:"section_id"`
}

// ImportRowError reports why a CSV line was rejected. Line numbers are
// 1-based and count the header.
type ImportRowError struct {
	Line    int    `json:"line"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CourseImportResult summarises a CSV import.
type CourseImportResult struct {
	Imported int              `json:"imported"`
	Rejected []ImportRowError `json:"rejected"`
}
