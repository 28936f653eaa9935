package service

import (
	"sync"
	"time"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
	"github.com/noah-isme/sma-scheduler-api/internal/scheduler"
)

// scheduleProposal is a generated but unsaved timetable. It is also the
// value stored in the result cache, so every field must survive JSON.
// Exactly one of Section and Year is set.
type scheduleProposal struct {
	ProposalID  string                `json:"proposalId"`
	Scope       models.TimetableScope `json:"scope"`
	Ref         string                `json:"ref"`
	Section     *scheduler.Result     `json:"section,omitempty"`
	Year        *scheduler.YearResult `json:"year,omitempty"`
	RequestedAt time.Time             `json:"requestedAt"`
}

func (p scheduleProposal) counts() (placed, total int) {
	if p.Year != nil {
		return p.Year.Placed(), p.Year.Total()
	}
	if p.Section != nil {
		return p.Section.Placed, p.Section.Total
	}
	return 0, 0
}

func (p scheduleProposal) assignments() []scheduler.Assignment {
	if p.Year != nil {
		return p.Year.Assignments
	}
	if p.Section != nil {
		return p.Section.Assignments
	}
	return nil
}

func (p scheduleProposal) unplaced() []*scheduler.Session {
	if p.Year != nil {
		return p.Year.Unplaced()
	}
	if p.Section != nil {
		return p.Section.Unplaced
	}
	return nil
}

type proposalStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]scheduleProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]scheduleProposal),
	}
}

func (s *proposalStore) Save(proposal scheduleProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (scheduleProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return scheduleProposal{}, false
	}
	if s.now().Sub(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return scheduleProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// sweepLocked drops expired proposals; callers hold the write lock.
func (s *proposalStore) sweepLocked() {
	now := s.now()
	for id, proposal := range s.items {
		if now.Sub(proposal.RequestedAt) > s.ttl {
			delete(s.items, id)
		}
	}
}
