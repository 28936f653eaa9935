package scheduler

// LedgerKind selects one of the three occupancy maps.
type LedgerKind int

const (
	SectionLedger LedgerKind = iota
	RoomLedger
	InstructorLedger
)

func (k LedgerKind) String() string {
	switch k {
	case SectionLedger:
		return "SECTION"
	case RoomLedger:
		return "ROOM"
	case InstructorLedger:
		return "INSTRUCTOR"
	default:
		return "UNKNOWN"
	}
}

var ledgerKinds = [...]LedgerKind{SectionLedger, RoomLedger, InstructorLedger}

type slotKey struct {
	Resource string
	Day      int
	Slot     int
}

// Ledger tracks which session occupies each (resource, day, slot) for the
// duration of one scheduling run. It is not safe for concurrent use; give
// each run its own ledger.
type Ledger struct {
	entries [len(ledgerKinds)]map[slotKey]*Session
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	l := &Ledger{}
	l.Clear()
	return l
}

// Clear drops every entry so the ledger can host a new run.
func (l *Ledger) Clear() {
	for i := range l.entries {
		l.entries[i] = make(map[slotKey]*Session)
	}
}

// Empty reports whether nothing has been committed since the last Clear.
func (l *Ledger) Empty() bool {
	return l.Len() == 0
}

// Len counts committed keys across all three maps.
func (l *Ledger) Len() int {
	total := 0
	for _, m := range l.entries {
		total += len(m)
	}
	return total
}

// Occupant returns the session holding slot, if any.
func (l *Ledger) Occupant(kind LedgerKind, day, slot int, resource string) (*Session, bool) {
	session, ok := l.entries[kind][slotKey{Resource: resource, Day: day, Slot: slot}]
	return session, ok
}

// IsFree reports whether every slot of run is unclaimed for resource.
func (l *Ledger) IsFree(kind LedgerKind, day int, run []int, resource string) bool {
	return l.freeExcept(kind, day, run, resource, nil)
}

// freeExcept is IsFree where occupants accepted by tolerate do not count.
func (l *Ledger) freeExcept(kind LedgerKind, day int, run []int, resource string, tolerate func(*Session) bool) bool {
	m := l.entries[kind]
	for _, slot := range run {
		occupant, taken := m[slotKey{Resource: resource, Day: day, Slot: slot}]
		if !taken {
			continue
		}
		if tolerate == nil || !tolerate(occupant) {
			return false
		}
	}
	return true
}

// Commit marks every slot of run as held by session. The caller must have
// checked the full run beforehand; there is no rollback.
func (l *Ledger) Commit(kind LedgerKind, day int, run []int, resource string, session *Session) {
	m := l.entries[kind]
	for _, slot := range run {
		m[slotKey{Resource: resource, Day: day, Slot: slot}] = session
	}
}
