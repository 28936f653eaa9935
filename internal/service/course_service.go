package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	"github.com/noah-isme/sma-scheduler-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
	"github.com/noah-isme/sma-scheduler-api/pkg/export"
	"github.com/noah-isme/sma-scheduler-api/pkg/response"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ExistsInSection(ctx context.Context, code, sectionID, excludeID string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type courseSectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

type scheduleInvalidator interface {
	InvalidateSchedules(ctx context.Context)
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateSchedules(context.Context) {}

// CourseService handles course workflows. Every write drops cached
// generation results.
type CourseService struct {
	repo      courseRepository
	sections  courseSectionReader
	tx        txProvider
	cache     scheduleInvalidator
	grid      scheduler.Grid
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService creates a new course service and registers the
// slotminutes validation tag for grid.
func NewCourseService(repo courseRepository, sections courseSectionReader, tx txProvider, cache scheduleInvalidator, grid scheduler.Grid, validate *validator.Validate, logger *zap.Logger) (*CourseService, error) {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = noopInvalidator{}
	}
	if grid.SlotCount() == 0 {
		grid = scheduler.DefaultGrid()
	}
	if err := registerSlotMinutes(validate, "slotminutes", grid.SlotMinutes()); err != nil {
		return nil, err
	}
	return &CourseService{repo: repo, sections: sections, tx: tx, cache: cache, grid: grid, validator: validate, logger: logger}, nil
}

// registerSlotMinutes adds a tag accepting positive multiples of step.
func registerSlotMinutes(validate *validator.Validate, tag string, step int) error {
	if step <= 0 {
		return fmt.Errorf("register %s validation: slot minutes must be positive, got %d", tag, step)
	}
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		minutes := int(fl.Field().Int())
		return minutes > 0 && minutes%step == 0
	})
	if err != nil {
		return fmt.Errorf("register %s validation: %w", tag, err)
	}
	return nil
}

// List returns paginated courses.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return courses, response.Paginate(page, size, total), nil
}

// Get returns a course by identifier.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create adds a course to a section ensuring the code is unique within it.
func (s *CourseService) Create(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := courseFromRequest(req)
	if err := s.checkCourse(ctx, course, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, nil, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.cache.InvalidateSchedules(ctx)
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("section_id", course.SectionID))
	return course, nil
}

// Update modifies an existing course.
func (s *CourseService) Update(ctx context.Context, id string, req dto.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := courseFromRequest(dto.CreateCourseRequest(req))
	if err := s.checkCourse(ctx, updated, id); err != nil {
		return nil, err
	}
	course.Code = updated.Code
	course.Name = updated.Name
	course.InstructorID = updated.InstructorID
	course.RoomID = updated.RoomID
	course.DurationMinutes = updated.DurationMinutes
	course.MeetingsPerWeek = updated.MeetingsPerWeek
	course.SectionID = updated.SectionID
	course.YearLevel = updated.YearLevel

	if err := s.repo.Update(ctx, course); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.cache.InvalidateSchedules(ctx)
	return course, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.cache.InvalidateSchedules(ctx)
	return nil
}

// Import reads a CSV document of courses. Valid rows are inserted in one
// transaction; invalid rows are reported with their line number and skipped.
func (s *CourseService) Import(ctx context.Context, in io.Reader) (*dto.CourseImportResult, error) {
	var rows []dto.CourseImportRow
	if err := export.DecodeCSV(in, &rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid csv document")
	}

	result := &dto.CourseImportResult{Rejected: []dto.ImportRowError{}}
	seen := make(map[string]int, len(rows))
	accepted := make([]*models.Course, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		req := dto.CreateCourseRequest{
			Code:            row.Code,
			Name:            row.Name,
			InstructorID:    row.InstructorID,
			RoomID:          row.RoomID,
			DurationMinutes: row.DurationMinutes,
			MeetingsPerWeek: row.MeetingsPerWeek,
			SectionID:       row.SectionID,
		}
		if err := s.validator.Struct(req); err != nil {
			result.Rejected = append(result.Rejected, importError(line, appErrors.ErrValidation.Code, err.Error()))
			continue
		}
		course := courseFromRequest(req)
		key := course.SectionID + "/" + course.Code
		if first, dup := seen[key]; dup {
			result.Rejected = append(result.Rejected, importError(line, appErrors.ErrConflict.Code, fmt.Sprintf("duplicate of line %d", first)))
			continue
		}
		if err := s.checkCourse(ctx, course, ""); err != nil {
			appErr := appErrors.FromError(err)
			if appErr.Code == appErrors.ErrInternal.Code {
				return nil, err
			}
			result.Rejected = append(result.Rejected, importError(line, appErr.Code, appErr.Message))
			continue
		}
		seen[key] = line
		accepted = append(accepted, course)
	}

	if len(accepted) == 0 {
		return result, nil
	}
	if err := s.insertAll(ctx, accepted); err != nil {
		return nil, err
	}
	result.Imported = len(accepted)
	s.cache.InvalidateSchedules(ctx)
	s.logger.Info("courses imported", zap.Int("imported", result.Imported), zap.Int("rejected", len(result.Rejected)))
	return result, nil
}

func (s *CourseService) insertAll(ctx context.Context, courses []*models.Course) (err error) {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, course := range courses {
		if err = s.repo.Create(ctx, tx, course); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to import course %s", course.Code))
		}
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit import")
	}
	return nil
}

// checkCourse verifies the section exists, the code is unused there and the
// duration fits one day of the grid. It fills course.YearLevel.
func (s *CourseService) checkCourse(ctx context.Context, course *models.Course, excludeID string) error {
	if s.grid.SlotsFor(course.DurationMinutes) > s.grid.BookableSlots() {
		return appErrors.Clone(appErrors.ErrUnplaceable, fmt.Sprintf("%d minutes exceed the %d minute day", course.DurationMinutes, s.grid.BookableSlots()*s.grid.SlotMinutes()))
	}
	section, err := s.sections.FindByID(ctx, course.SectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %s not found", course.SectionID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	course.YearLevel = section.YearLevel

	exists, err := s.repo.ExistsInSection(ctx, course.Code, course.SectionID, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course %s already exists in section %s", course.Code, course.SectionID))
	}
	return nil
}

func courseFromRequest(req dto.CreateCourseRequest) *models.Course {
	return &models.Course{
		Code:            strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:            strings.TrimSpace(req.Name),
		InstructorID:    strings.TrimSpace(req.InstructorID),
		RoomID:          strings.TrimSpace(req.RoomID),
		DurationMinutes: req.DurationMinutes,
		MeetingsPerWeek: req.MeetingsPerWeek,
		SectionID:       strings.TrimSpace(req.SectionID),
	}
}

func importError(line int, code, message string) dto.ImportRowError {
	return dto.ImportRowError{Line: line, Code: code, Message: message}
}
