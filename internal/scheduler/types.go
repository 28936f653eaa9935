package scheduler

// Course is an immutable course definition owned by a single section.
type Course struct {
	ID              string `json:"id"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	InstructorID    string `json:"instructorId"`
	RoomID          string `json:"roomId"`
	DurationMinutes int    `json:"durationMinutes"`
	MeetingsPerWeek int    `json:"meetingsPerWeek"`
	SectionID       string `json:"sectionId"`
	YearLevel       int    `json:"yearLevel"`
}

// Session is one weekly meeting of a course.
type Session struct {
	Course   *Course  `json:"course"`
	Sequence int      `json:"sequence"`
	Shared   bool     `json:"shared"`
	Sections []string `json:"sections"`
}

// Assignment records where a session was placed.
type Assignment struct {
	Session    *Session `json:"session"`
	Day        int      `json:"day"`
	StartSlot  int      `json:"startSlot"`
	SlotCount  int      `json:"slotCount"`
	StartLabel string   `json:"startLabel"`
	EndLabel   string   `json:"endLabel"`
}

// Covers reports whether the assignment occupies slot on day.
func (a Assignment) Covers(day, slot int) bool {
	return a.Day == day && slot >= a.StartSlot && slot < a.StartSlot+a.SlotCount
}

// Overlaps reports whether two assignments share at least one slot.
func (a Assignment) Overlaps(b Assignment) bool {
	return a.Day == b.Day && a.StartSlot < b.StartSlot+b.SlotCount && b.StartSlot < a.StartSlot+a.SlotCount
}

// Result summarises one allocator pass. Callers must inspect Placed vs Total.
type Result struct {
	Placed      int          `json:"placed"`
	Total       int          `json:"total"`
	Assignments []Assignment `json:"assignments"`
	Unplaced    []*Session   `json:"unplaced"`
}

// Success is true when every requested session was placed.
func (r Result) Success() bool {
	return r.Placed == r.Total
}

// SectionResult pairs an exclusive pass result with its section.
type SectionResult struct {
	SectionID string `json:"sectionId"`
	Result    Result `json:"result"`
}

// YearResult is the combined view for every section of a year level.
type YearResult struct {
	YearLevel   int             `json:"yearLevel"`
	SharedCodes []string        `json:"sharedCodes"`
	Shared      Result          `json:"shared"`
	Sections    []SectionResult `json:"sections"`
	Assignments []Assignment    `json:"assignments"`
}

// Placed sums placed sessions over both passes.
func (y YearResult) Placed() int {
	total := y.Shared.Placed
	for _, section := range y.Sections {
		total += section.Result.Placed
	}
	return total
}

// Total sums requested sessions over both passes.
func (y YearResult) Total() int {
	total := y.Shared.Total
	for _, section := range y.Sections {
		total += section.Result.Total
	}
	return total
}

// Success is true when the shared pass and every section pass succeeded.
func (y YearResult) Success() bool {
	return y.Placed() == y.Total()
}

// Unplaced lists unplaced sessions of both passes.
func (y YearResult) Unplaced() []*Session {
	out := append([]*Session(nil), y.Shared.Unplaced...)
	for _, section := range y.Sections {
		out = append(out, section.Result.Unplaced...)
	}
	return out
}

// ForSection returns the shared assignments plus the exclusive assignments
// of sectionID, in placement order.
func (y YearResult) ForSection(sectionID string) []Assignment {
	out := make([]Assignment, 0, len(y.Assignments))
	for _, a := range y.Assignments {
		if a.Session.Shared || a.Session.Course.SectionID == sectionID {
			out = append(out, a)
		}
	}
	return out
}
