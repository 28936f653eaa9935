package scheduler

// Expand emits one session per weekly meeting, keeping course order and
// numbering each course's meetings from 1.
func Expand(courses []Course) []*Session {
	sessions := make([]*Session, 0, countMeetings(courses))
	for i := range courses {
		course := &courses[i]
		for seq := 1; seq <= course.MeetingsPerWeek; seq++ {
			sessions = append(sessions, &Session{
				Course:   course,
				Sequence: seq,
				Sections: []string{course.SectionID},
			})
		}
	}
	return sessions
}

// ExpandShared expands courses as shared sessions attended by every section.
func ExpandShared(courses []Course, sections []string) []*Session {
	sessions := Expand(courses)
	for _, session := range sessions {
		session.Shared = true
		session.Sections = append([]string(nil), sections...)
	}
	return sessions
}

func countMeetings(courses []Course) int {
	total := 0
	for _, course := range courses {
		if course.MeetingsPerWeek > 0 {
			total += course.MeetingsPerWeek
		}
	}
	return total
}
