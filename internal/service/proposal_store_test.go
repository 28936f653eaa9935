package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProposalStoreExpiry(t *testing.T) {
	store := newProposalStore(time.Minute)
	now := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Save(scheduleProposal{ProposalID: "p-1", RequestedAt: now})
	_, ok := store.Get("p-1")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = store.Get("p-1")
	assert.False(t, ok)
}

func TestProposalStoreSweepsOnSave(t *testing.T) {
	store := newProposalStore(time.Minute)
	now := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Save(scheduleProposal{ProposalID: "old", RequestedAt: now})
	now = now.Add(5 * time.Minute)
	store.Save(scheduleProposal{ProposalID: "new", RequestedAt: now})

	assert.Len(t, store.items, 1)
	_, ok := store.Get("new")
	assert.True(t, ok)
}
