package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
)

type sectionRepository interface {
	List(ctx context.Context, yearLevel int) ([]models.Section, error)
	FindByID(ctx context.Context, id string) (*models.Section, error)
	YearLevels(ctx context.Context) ([]int, error)
	Create(ctx context.Context, section *models.Section) error
}

// SectionService manages the sections each year level is split into.
type SectionService struct {
	repo      sectionRepository
	cache     scheduleInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs the service.
func NewSectionService(repo sectionRepository, cache scheduleInvalidator, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = noopInvalidator{}
	}
	return &SectionService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns sections, all of them when yearLevel is 0.
func (s *SectionService) List(ctx context.Context, yearLevel int) ([]models.Section, error) {
	if yearLevel < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "yearLevel must not be negative")
	}
	sections, err := s.repo.List(ctx, yearLevel)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// YearLevels returns every year level that has at least one section.
func (s *SectionService) YearLevels(ctx context.Context) ([]int, error) {
	levels, err := s.repo.YearLevels(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list year levels")
	}
	return levels, nil
}

// Create registers a section. Adding a section changes which courses are
// shared, so cached results are dropped.
func (s *SectionService) Create(ctx context.Context, req dto.CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	id := strings.ToUpper(strings.TrimSpace(req.ID))

	_, err := s.repo.FindByID(ctx, id)
	switch {
	case err == nil:
		return nil, appErrors.Clone(appErrors.ErrConflict, "section already exists")
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section")
	}

	section := &models.Section{ID: id, YearLevel: req.YearLevel}
	if err := s.repo.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	s.cache.InvalidateSchedules(ctx)
	return section, nil
}
