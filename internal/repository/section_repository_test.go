package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
)

func TestSectionRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, year_level, created_at FROM sections WHERE year_level = $1 ORDER BY year_level ASC, id ASC")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "year_level", "created_at"}).
			AddRow("1A", 1, now).
			AddRow("1B", 1, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, year_level, created_at FROM sections ORDER BY year_level ASC, id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "year_level", "created_at"}).AddRow("1A", 1, now))

	sections, err := repo.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "1B", sections[1].ID)

	sections, err = repo.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, sections, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryYearLevels(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT year_level FROM sections ORDER BY year_level ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"year_level"}).AddRow(1).AddRow(2))

	levels, err := repo.YearLevels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, levels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sections (id, year_level, created_at)")).
		WithArgs("3C", 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	section := &models.Section{ID: "3C", YearLevel: 3}
	require.NoError(t, repo.Create(context.Background(), section))
	assert.False(t, section.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
