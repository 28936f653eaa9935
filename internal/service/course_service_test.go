package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	"github.com/noah-isme/sma-scheduler-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
)

type courseRepoStub struct {
	items     map[string]*models.Course
	created   []models.Course
	createErr error
	listTotal int
}

func newCourseRepoStub() *courseRepoStub {
	return &courseRepoStub{items: map[string]*models.Course{}}
}

func (s *courseRepoStub) List(_ context.Context, _ models.CourseFilter) ([]models.Course, int, error) {
	var out []models.Course
	for _, c := range s.items {
		out = append(out, *c)
	}
	return out, s.listTotal, nil
}

func (s *courseRepoStub) FindByID(_ context.Context, id string) (*models.Course, error) {
	c, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (s *courseRepoStub) ExistsInSection(_ context.Context, code, sectionID, excludeID string) (bool, error) {
	for _, c := range s.items {
		if strings.EqualFold(c.Code, code) && c.SectionID == sectionID && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *courseRepoStub) Create(_ context.Context, _ sqlx.ExtContext, course *models.Course) error {
	if s.createErr != nil {
		return s.createErr
	}
	course.ID = "course-" + course.SectionID + "-" + course.Code
	s.created = append(s.created, *course)
	s.items[course.ID] = course
	return nil
}

func (s *courseRepoStub) Update(_ context.Context, course *models.Course) error {
	if _, ok := s.items[course.ID]; !ok {
		return sql.ErrNoRows
	}
	s.items[course.ID] = course
	return nil
}

func (s *courseRepoStub) Delete(_ context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

func newCourseServiceFixture(t *testing.T, tx txProvider) (*CourseService, *courseRepoStub, *invalidatorSpy) {
	t.Helper()
	repo := newCourseRepoStub()
	sections := &sectionRepoStub{items: []models.Section{{ID: "1A", YearLevel: 1}, {ID: "2A", YearLevel: 2}}}
	spy := &invalidatorSpy{}
	svc, err := NewCourseService(repo, sections, tx, spy, scheduler.DefaultGrid(), nil, nil)
	require.NoError(t, err)
	return svc, repo, spy
}

func validCourseRequest() dto.CreateCourseRequest {
	return dto.CreateCourseRequest{
		Code:            " math ",
		Name:            "Mathematics",
		InstructorID:    "t-1",
		RoomID:          "r-1",
		DurationMinutes: 90,
		MeetingsPerWeek: 2,
		SectionID:       "2A",
	}
}

func TestCourseServiceCreate(t *testing.T) {
	svc, repo, spy := newCourseServiceFixture(t, nil)

	course, err := svc.Create(context.Background(), validCourseRequest())
	require.NoError(t, err)
	assert.Equal(t, "MATH", course.Code)
	assert.Equal(t, 2, course.YearLevel, "year level follows the section")
	assert.Len(t, repo.created, 1)
	assert.Equal(t, 1, spy.calls)
}

func TestCourseServiceCreateValidation(t *testing.T) {
	svc, _, spy := newCourseServiceFixture(t, nil)

	req := validCourseRequest()
	req.DurationMinutes = 45
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = validCourseRequest()
	req.MeetingsPerWeek = 6
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, spy.calls)
}

func TestCourseServiceCreateRejectsOverlongDuration(t *testing.T) {
	svc, _, _ := newCourseServiceFixture(t, nil)

	req := validCourseRequest()
	req.DurationMinutes = 570
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnplaceable.Code, appErr.Code)
	assert.Equal(t, 422, appErr.Status)
	assert.Contains(t, appErr.Message, "540 minute day")

	req.DurationMinutes = 540
	_, err = svc.Create(context.Background(), req)
	require.NoError(t, err)
}

func TestCourseServiceCreateConflictsAndMissingSection(t *testing.T) {
	svc, _, _ := newCourseServiceFixture(t, nil)

	_, err := svc.Create(context.Background(), validCourseRequest())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validCourseRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	req := validCourseRequest()
	req.SectionID = "9Z"
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceUpdate(t *testing.T) {
	svc, repo, spy := newCourseServiceFixture(t, nil)
	repo.items["c-1"] = &models.Course{ID: "c-1", Code: "MATH", SectionID: "1A", DurationMinutes: 60, MeetingsPerWeek: 1}

	updated, err := svc.Update(context.Background(), "c-1", dto.UpdateCourseRequest{
		Code: "MATH", Name: "Algebra", InstructorID: "t-2", RoomID: "r-2", DurationMinutes: 120, MeetingsPerWeek: 2, SectionID: "1A",
	})
	require.NoError(t, err)
	assert.Equal(t, "Algebra", updated.Name)
	assert.Equal(t, 120, repo.items["c-1"].DurationMinutes)
	assert.Equal(t, 1, spy.calls)

	_, err = svc.Update(context.Background(), "missing", dto.UpdateCourseRequest{
		Code: "X", Name: "X", InstructorID: "t", RoomID: "r", DurationMinutes: 30, MeetingsPerWeek: 1, SectionID: "1A",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceDelete(t *testing.T) {
	svc, repo, spy := newCourseServiceFixture(t, nil)
	repo.items["c-1"] = &models.Course{ID: "c-1"}

	require.NoError(t, svc.Delete(context.Background(), "c-1"))
	assert.Equal(t, 1, spy.calls)

	err := svc.Delete(context.Background(), "c-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceListPagination(t *testing.T) {
	svc, repo, _ := newCourseServiceFixture(t, nil)
	repo.listTotal = 45

	_, pagination, err := svc.List(context.Background(), models.CourseFilter{Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 3, pagination.TotalPages)
}

func TestCourseServiceImport(t *testing.T) {
	txProvider, mock := newTxProviderMock(t)
	svc, repo, spy := newCourseServiceFixture(t, txProvider)

	doc := strings.Join([]string{
		"code,name,instructor_id,room_id,duration_minutes,meetings_per_week,section_id",
		"MATH,Mathematics,t-1,r-1,60,2,1A",
		"ENG,English,t-2,r-2,45,2,1A",
		"math,Mathematics again,t-1,r-1,60,2,1A",
		"PE,Physical Education,t-3,gym,120,1,9Z",
		"CHEM,Chemistry,t-4,lab,90,3,2A",
	}, "\n")

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.Import(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Rejected, 3)
	assert.Equal(t, 3, result.Rejected[0].Line)
	assert.Equal(t, appErrors.ErrValidation.Code, result.Rejected[0].Code)
	assert.Equal(t, 4, result.Rejected[1].Line)
	assert.Equal(t, appErrors.ErrConflict.Code, result.Rejected[1].Code)
	assert.Equal(t, 5, result.Rejected[2].Line)
	assert.Equal(t, appErrors.ErrNotFound.Code, result.Rejected[2].Code)
	assert.Len(t, repo.created, 2)
	assert.Equal(t, 1, spy.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseServiceImportRollsBack(t *testing.T) {
	txProvider, mock := newTxProviderMock(t)
	svc, repo, spy := newCourseServiceFixture(t, txProvider)
	repo.createErr = errors.New("insert failed")

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Import(context.Background(), strings.NewReader("code,name,instructor_id,room_id,duration_minutes,meetings_per_week,section_id\nMATH,Mathematics,t-1,r-1,60,2,1A\n"))
	require.Error(t, err)
	assert.Equal(t, 0, spy.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseServiceImportNothingValid(t *testing.T) {
	svc, _, spy := newCourseServiceFixture(t, nil)

	result, err := svc.Import(context.Background(), strings.NewReader("code,name,instructor_id,room_id,duration_minutes,meetings_per_week,section_id\n,,,,0,0,\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Len(t, result.Rejected, 1)
	assert.Equal(t, 0, spy.calls)
}

func TestRegisterSlotMinutes(t *testing.T) {
	validate := validator.New()
	require.NoError(t, registerSlotMinutes(validate, "slotminutes", 30))

	assert.NoError(t, validate.Var(60, "slotminutes"))
	assert.Error(t, validate.Var(45, "slotminutes"))
	assert.Error(t, validate.Var(0, "slotminutes"))

	assert.Error(t, registerSlotMinutes(validate, "", 30))
	assert.Error(t, registerSlotMinutes(validate, "slotminutes", 0))
}
