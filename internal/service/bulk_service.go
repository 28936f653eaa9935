package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
	"github.com/noah-isme/sma-scheduler-api/pkg/jobs"
)

const bulkJobType = "regenerate_year_level"

type yearLevelRegenerator interface {
	GenerateAndSave(ctx context.Context, yearLevel int) (*models.Timetable, error)
}

type yearLevelLister interface {
	YearLevels(ctx context.Context) ([]int, error)
}

// BulkConfig sizes the regeneration worker pool.
type BulkConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

type bulkTask struct {
	JobID     string
	YearLevel int
}

// BulkService regenerates draft timetables for many year levels in the
// background. Each year level is one queue job with its own ledger.
type BulkService struct {
	generator yearLevelRegenerator
	levels    yearLevelLister
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	queue     *jobs.Queue
	now       func() time.Time

	mu   sync.RWMutex
	jobs map[string]*models.BulkJob
}

// NewBulkService builds the service and its queue. Call Start before Enqueue.
func NewBulkService(generator yearLevelRegenerator, levels yearLevelLister, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg BulkConfig) *BulkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &BulkService{
		generator: generator,
		levels:    levels,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
		jobs:      make(map[string]*models.BulkJob),
	}
	s.queue = jobs.NewQueue("bulk-regeneration", s.handle, jobs.QueueConfig{
		Workers:     cfg.Workers,
		MaxRetries:  cfg.Retries,
		RetryDelay:  cfg.RetryDelay,
		OnExhausted: s.exhausted,
		Logger:      logger,
	})
	return s
}

// Start launches the worker pool.
func (s *BulkService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains workers and pending retries.
func (s *BulkService) Stop() {
	s.queue.Stop()
}

// Enqueue registers a bulk job and queues one task per year level.
func (s *BulkService) Enqueue(ctx context.Context, req dto.BulkGenerateRequest) (*models.BulkJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	levels := uniqueInts(req.YearLevels)
	if len(levels) == 0 {
		all, err := s.levels.YearLevels(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list year levels")
		}
		levels = all
	}
	if len(levels) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no year levels have sections")
	}

	now := s.now().UTC()
	job := &models.BulkJob{
		ID:         uuid.NewString(),
		Status:     models.BulkJobStatusQueued,
		YearLevels: levels,
		Timetables: map[int]string{},
		Errors:     map[int]string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	snapshot := cloneBulkJob(job)
	s.mu.Unlock()

	for _, level := range levels {
		task := jobs.Job{
			ID:      fmt.Sprintf("%s:%d", job.ID, level),
			Type:    bulkJobType,
			Payload: bulkTask{JobID: job.ID, YearLevel: level},
		}
		if err := s.queue.Enqueue(task); err != nil {
			s.finish(job.ID, level, "", err)
			s.logger.Error("failed to enqueue bulk task", zap.String("job_id", job.ID), zap.Int("year_level", level), zap.Error(err))
		}
	}
	s.logger.Info("bulk regeneration queued", zap.String("job_id", job.ID), zap.Ints("year_levels", levels))
	return snapshot, nil
}

// Get returns a snapshot of a bulk job.
func (s *BulkService) Get(id string) (*models.BulkJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "bulk job not found")
	}
	return cloneBulkJob(job), nil
}

func (s *BulkService) handle(ctx context.Context, job jobs.Job) error {
	task, ok := job.Payload.(bulkTask)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	s.markRunning(task.JobID)

	record, err := s.generator.GenerateAndSave(ctx, task.YearLevel)
	if err != nil {
		return err
	}
	s.finish(task.JobID, task.YearLevel, record.ID, nil)
	return nil
}

func (s *BulkService) exhausted(job jobs.Job, err error) {
	task, ok := job.Payload.(bulkTask)
	if !ok {
		return
	}
	s.finish(task.JobID, task.YearLevel, "", err)
}

func (s *BulkService) markRunning(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok && job.Status == models.BulkJobStatusQueued {
		job.Status = models.BulkJobStatusRunning
		job.UpdatedAt = s.now().UTC()
	}
}

func (s *BulkService) finish(jobID string, yearLevel int, timetableID string, err error) {
	s.metrics.RecordBulkYearLevel(err == nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	if err != nil {
		job.Failed++
		job.Errors[yearLevel] = err.Error()
	} else {
		job.Completed++
		job.Timetables[yearLevel] = timetableID
	}
	job.UpdatedAt = s.now().UTC()
	if job.Done() {
		job.Status = models.BulkJobStatusCompleted
		if job.Failed > 0 {
			job.Status = models.BulkJobStatusFailed
		}
	}
}

func cloneBulkJob(job *models.BulkJob) *models.BulkJob {
	copied := *job
	copied.YearLevels = append([]int(nil), job.YearLevels...)
	copied.Timetables = make(map[int]string, len(job.Timetables))
	for k, v := range job.Timetables {
		copied.Timetables[k] = v
	}
	copied.Errors = make(map[int]string, len(job.Errors))
	for k, v := range job.Errors {
		copied.Errors[k] = v
	}
	return &copied
}

func uniqueInts(values []int) []int {
	seen := make(map[int]bool, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
