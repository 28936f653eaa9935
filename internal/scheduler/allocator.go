package scheduler

import (
	"sort"

	"go.uber.org/zap"
)

// Policy selects the conflict rules applied by an allocator pass.
type Policy struct {
	Name string
	// Shared sessions skip the room check and tolerate same-code occupants
	// in the section ledgers they span.
	Shared bool
}

var (
	// ExclusivePolicy enforces section, room and instructor exclusivity.
	ExclusivePolicy = Policy{Name: "exclusive"}
	// SharedPolicy places sessions attended jointly by every section of a year.
	SharedPolicy = Policy{Name: "shared", Shared: true}
)

// Allocator places sessions first-fit on a grid, recording claims in a ledger.
type Allocator struct {
	grid   Grid
	ledger *Ledger
	policy Policy
	logger *zap.Logger
}

// NewAllocator binds an allocator pass to a grid, a run ledger and a policy.
func NewAllocator(grid Grid, ledger *Ledger, policy Policy, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{grid: grid, ledger: ledger, policy: policy, logger: logger}
}

// Place sorts sessions longest first (stable) and places each one on the
// first feasible day and start slot. Sessions that do not fit are reported
// in Result.Unplaced; placement never backtracks.
func (a *Allocator) Place(sessions []*Session) Result {
	ordered := append([]*Session(nil), sessions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Course.DurationMinutes > ordered[j].Course.DurationMinutes
	})

	result := Result{
		Total:       len(ordered),
		Assignments: make([]Assignment, 0, len(ordered)),
	}
	usage := make(map[*Course]map[int]int)

	for _, session := range ordered {
		if usage[session.Course] == nil {
			usage[session.Course] = make(map[int]int)
		}
		assignment, ok := a.placeOne(session, usage[session.Course])
		if !ok {
			result.Unplaced = append(result.Unplaced, session)
			a.logger.Debug("session unplaced",
				zap.String("policy", a.policy.Name),
				zap.String("course", session.Course.Code),
				zap.Int("sequence", session.Sequence),
			)
			continue
		}
		result.Assignments = append(result.Assignments, assignment)
		result.Placed++
	}
	return result
}

func (a *Allocator) placeOne(session *Session, dayUsage map[int]int) (Assignment, bool) {
	slotsNeeded := a.grid.SlotsFor(session.Course.DurationMinutes)
	if slotsNeeded <= 0 || slotsNeeded > a.grid.BookableSlots() {
		return Assignment{}, false
	}

	days := a.grid.Days()
	sort.SliceStable(days, func(i, j int) bool {
		return dayUsage[days[i]] < dayUsage[days[j]]
	})

	for _, day := range days {
		for start := 0; start+slotsNeeded <= a.grid.BookableSlots(); start++ {
			run, err := a.grid.Run(start, slotsNeeded)
			if err != nil {
				break
			}
			if !a.feasible(session, day, run) {
				continue
			}
			a.commit(session, day, run)
			dayUsage[day]++

			startLabel, _ := a.grid.Label(start)
			endLabel, _ := a.grid.EndLabel(start, slotsNeeded)
			return Assignment{
				Session:    session,
				Day:        day,
				StartSlot:  start,
				SlotCount:  slotsNeeded,
				StartLabel: startLabel,
				EndLabel:   endLabel,
			}, true
		}
	}
	return Assignment{}, false
}

func (a *Allocator) feasible(session *Session, day int, run []int) bool {
	course := session.Course
	sameCourse := func(occupant *Session) bool {
		return occupant.Course.Code == course.Code
	}

	for _, section := range session.Sections {
		if section == "" {
			continue
		}
		if a.policy.Shared {
			if !a.ledger.freeExcept(SectionLedger, day, run, section, sameCourse) {
				return false
			}
		} else if !a.ledger.IsFree(SectionLedger, day, run, section) {
			return false
		}
	}
	if !a.policy.Shared && course.RoomID != "" {
		if !a.ledger.IsFree(RoomLedger, day, run, course.RoomID) {
			return false
		}
	}
	if course.InstructorID != "" {
		if !a.ledger.freeExcept(InstructorLedger, day, run, course.InstructorID, sameCourse) {
			return false
		}
	}
	return true
}

func (a *Allocator) commit(session *Session, day int, run []int) {
	course := session.Course
	for _, section := range session.Sections {
		if section != "" {
			a.ledger.Commit(SectionLedger, day, run, section, session)
		}
	}
	if course.RoomID != "" {
		a.ledger.Commit(RoomLedger, day, run, course.RoomID, session)
	}
	if course.InstructorID != "" {
		a.ledger.Commit(InstructorLedger, day, run, course.InstructorID, session)
	}
}
