package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
)

type sectionRepoStub struct {
	items []models.Section
}

func (s *sectionRepoStub) List(_ context.Context, yearLevel int) ([]models.Section, error) {
	var out []models.Section
	for _, item := range s.items {
		if yearLevel == 0 || item.YearLevel == yearLevel {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *sectionRepoStub) FindByID(_ context.Context, id string) (*models.Section, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *sectionRepoStub) YearLevels(context.Context) ([]int, error) {
	seen := map[int]bool{}
	var out []int
	for _, item := range s.items {
		if !seen[item.YearLevel] {
			seen[item.YearLevel] = true
			out = append(out, item.YearLevel)
		}
	}
	return out, nil
}

func (s *sectionRepoStub) Create(_ context.Context, section *models.Section) error {
	s.items = append(s.items, *section)
	return nil
}

type invalidatorSpy struct {
	calls int
}

func (s *invalidatorSpy) InvalidateSchedules(context.Context) { s.calls++ }

func TestSectionServiceCreate(t *testing.T) {
	repo := &sectionRepoStub{items: []models.Section{{ID: "1A", YearLevel: 1}}}
	spy := &invalidatorSpy{}
	svc := NewSectionService(repo, spy, nil, nil)

	section, err := svc.Create(context.Background(), dto.CreateSectionRequest{ID: " 1b ", YearLevel: 1})
	require.NoError(t, err)
	assert.Equal(t, "1B", section.ID)
	assert.Equal(t, 1, spy.calls)

	_, err = svc.Create(context.Background(), dto.CreateSectionRequest{ID: "1A", YearLevel: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), dto.CreateSectionRequest{ID: "3A"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSectionServiceList(t *testing.T) {
	repo := &sectionRepoStub{items: []models.Section{{ID: "1A", YearLevel: 1}, {ID: "2A", YearLevel: 2}}}
	svc := NewSectionService(repo, nil, nil, nil)

	sections, err := svc.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "2A", sections[0].ID)

	levels, err := svc.YearLevels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, levels)

	_, err = svc.List(context.Background(), -1)
	require.Error(t, err)
}
