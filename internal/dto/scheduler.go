package dto

// AssignmentView is one placed session in a generation response.
type AssignmentView struct {
	CourseID     string   `json:"courseId"`
	CourseCode   string   `json:"courseCode"`
	CourseName   string   `json:"courseName,omitempty"`
	SectionID    string   `json:"sectionId"`
	Sections     []string `json:"sections"`
	InstructorID string   `json:"instructorId"`
	RoomID       string   `json:"roomId"`
	Sequence     int      `json:"sequence"`
	DayOfWeek    int      `json:"dayOfWeek"`
	StartSlot    int      `json:"startSlot"`
	SlotCount    int      `json:"slotCount"`
	StartTime    string   `json:"startTime"`
	EndTime      string   `json:"endTime"`
	Shared       bool     `json:"shared"`
}

// ProposalConflict captures a session the allocator could not place.
type ProposalConflict struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// SectionSummary reports exclusive-pass counts for one section.
type SectionSummary struct {
	SectionID string `json:"sectionId"`
	Placed    int    `json:"placed"`
	Total     int    `json:"total"`
}

// GridView describes the week grid a result was generated on.
type GridView struct {
	Days        []int    `json:"days"`
	SlotMinutes int      `json:"slotMinutes"`
	Labels      []string `json:"labels"`
}

// GenerateScheduleResponse is a generated timetable proposal.
type GenerateScheduleResponse struct {
	ProposalID  string             `json:"proposalId"`
	Scope       string             `json:"scope"`
	Ref         string             `json:"ref"`
	Placed      int                `json:"placed"`
	Total       int                `json:"total"`
	Success     bool               `json:"success"`
	SharedCodes []string           `json:"sharedCodes,omitempty"`
	Sections    []SectionSummary   `json:"sections,omitempty"`
	Assignments []AssignmentView   `json:"assignments"`
	Conflicts   []ProposalConflict `json:"conflicts"`
	Grid        GridView           `json:"grid"`
	Cached      bool               `json:"cached"`
}

// SaveScheduleRequest persists a proposal as a new timetable version.
type SaveScheduleRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	Publish    bool   `json:"publish"`

	// AllowPartial permits saving a proposal with unplaced sessions.
	AllowPartial bool `json:"allowPartial"`
}

// BulkGenerateRequest selects year levels for background regeneration.
// An empty list regenerates every year level that has sections.
type BulkGenerateRequest struct {
	YearLevels []int `json:"yearLevels" validate:"omitempty,dive,min=1"`
}

// ExportFile is a rendered timetable download.
type ExportFile struct {
	FileName    string
	ContentType string
	Body        []byte
}

// TimetableSlotRow is the CSV shape of an exported timetable slot.
type TimetableSlotRow struct {
	Day          string `csv:"day"`
	StartTime    string `csv:"start_time"`
	EndTime      string `csv:"end_time"`
	SectionID    string `csv:"section"`
	CourseCode   string `csv:"course_code"`
	InstructorID string `csv:"instructor"`
	RoomID       string `csv:"room"`
	Shared       bool   `csv:"shared"`
}

// TimetableSavedEvent is the payload published after a timetable is saved.
type TimetableSavedEvent struct {
	TimetableID string `json:"timetableId"`
	Scope       string `json:"scope"`
	Ref         string `json:"ref"`
	Version     int    `json:"version"`
	Status      string `json:"status"`
	Placed      int    `json:"placed"`
	Total       int    `json:"total"`
}
