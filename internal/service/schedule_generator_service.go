package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	"github.com/noah-isme/sma-scheduler-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
	"github.com/noah-isme/sma-scheduler-api/pkg/events"
	"github.com/noah-isme/sma-scheduler-api/pkg/export"
)

// EventTimetableSaved is published after a timetable version is committed.
const EventTimetableSaved = "timetable.saved"

const conflictUnplaced = "UNPLACED_SESSION"

type timetableRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error
	List(ctx context.Context, query models.TimetableQuery) ([]models.Timetable, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableStatus, meta types.JSONText) error
}

type timetableSlotRepository interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error
	ListByTimetable(ctx context.Context, timetableID, sectionID string) ([]models.TimetableSlot, error)
}

type scheduleCourseReader interface {
	ListBySection(ctx context.Context, sectionID string) ([]models.Course, error)
	ListByYearLevel(ctx context.Context, yearLevel int) ([]models.Course, error)
}

type scheduleSectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	List(ctx context.Context, yearLevel int) ([]models.Section, error)
}

type scheduleCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ScheduleGeneratorService runs the scheduling engine, keeps proposals and
// persists them as versioned timetables.
type ScheduleGeneratorService struct {
	engine     *scheduler.Engine
	courses    scheduleCourseReader
	sections   scheduleSectionReader
	timetables timetableRepository
	slots      timetableSlotRepository
	tx         txProvider
	cache      scheduleCache
	publisher  events.Publisher
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	store      *proposalStore
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	now        func() time.Time
}

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	ProposalTTL time.Duration
}

// NewScheduleGeneratorService wires scheduler dependencies.
func NewScheduleGeneratorService(
	engine *scheduler.Engine,
	courses scheduleCourseReader,
	sections scheduleSectionReader,
	timetables timetableRepository,
	slots timetableSlotRepository,
	tx txProvider,
	cache scheduleCache,
	publisher events.Publisher,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if engine == nil {
		engine = scheduler.NewEngine(scheduler.DefaultGrid(), logger)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	return &ScheduleGeneratorService{
		engine:     engine,
		courses:    courses,
		sections:   sections,
		timetables: timetables,
		slots:      slots,
		tx:         tx,
		cache:      cache,
		publisher:  publisher,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		store:      newProposalStore(cfg.ProposalTTL),
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		now:        time.Now,
	}
}

// GenerateSection schedules one section's courses under the exclusive policy.
func (s *ScheduleGeneratorService) GenerateSection(ctx context.Context, sectionID string) (*dto.GenerateScheduleResponse, error) {
	if sectionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "section is required")
	}
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	courses, err := s.courses.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section courses")
	}

	input := toEngineCourses(courses)
	key := ScheduleKey("section", sectionID, s.fingerprint(input, []string{sectionID}))

	proposal, cached := s.cachedProposal(ctx, key)
	if !cached {
		start := time.Now()
		result, runErr := s.engine.ScheduleSection(scheduler.NewLedger(), input)
		if runErr != nil {
			return nil, appErrors.Wrap(runErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "scheduler run failed")
		}
		s.metrics.ObserveSchedulerRun("section", result.Placed, result.Total, time.Since(start))
		proposal = scheduleProposal{Scope: models.TimetableScopeSection, Ref: sectionID, Section: &result}
		s.storeCached(ctx, key, proposal)
	}

	proposal = s.remember(proposal)
	resp := s.buildResponse(proposal, "")
	resp.Cached = cached
	return resp, nil
}

// GenerateYearLevel builds the combined view for every section of a year
// level. A non-empty sectionFilter narrows the returned assignments to the
// shared ones plus that section's exclusive ones; the stored proposal always
// covers the whole year level.
func (s *ScheduleGeneratorService) GenerateYearLevel(ctx context.Context, yearLevel int, sectionFilter string) (*dto.GenerateScheduleResponse, error) {
	proposal, cached, err := s.generateYearLevel(ctx, yearLevel, sectionFilter)
	if err != nil {
		return nil, err
	}
	proposal = s.remember(proposal)
	resp := s.buildResponse(proposal, sectionFilter)
	resp.Cached = cached
	return resp, nil
}

func (s *ScheduleGeneratorService) generateYearLevel(ctx context.Context, yearLevel int, sectionFilter string) (scheduleProposal, bool, error) {
	if yearLevel < 1 {
		return scheduleProposal{}, false, appErrors.Clone(appErrors.ErrValidation, "year level must be a positive number")
	}
	sections, err := s.sections.List(ctx, yearLevel)
	if err != nil {
		return scheduleProposal{}, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}
	sectionIDs := make([]string, 0, len(sections))
	for _, section := range sections {
		sectionIDs = append(sectionIDs, section.ID)
	}
	if sectionFilter != "" && !containsString(sectionIDs, sectionFilter) {
		return scheduleProposal{}, false, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %s not found in year level %d", sectionFilter, yearLevel))
	}

	courses, err := s.courses.ListByYearLevel(ctx, yearLevel)
	if err != nil {
		return scheduleProposal{}, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load year level courses")
	}

	input := toEngineCourses(courses)
	ref := strconv.Itoa(yearLevel)
	key := ScheduleKey("year", ref, s.fingerprint(input, sectionIDs))
	if proposal, ok := s.cachedProposal(ctx, key); ok {
		return proposal, true, nil
	}

	start := time.Now()
	result, err := s.engine.ScheduleYearLevel(scheduler.NewLedger(), yearLevel, input, sectionIDs)
	if err != nil {
		return scheduleProposal{}, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "scheduler run failed")
	}
	s.metrics.ObserveSchedulerRun("year_level", result.Placed(), result.Total(), time.Since(start))

	proposal := scheduleProposal{Scope: models.TimetableScopeYearLevel, Ref: ref, Year: &result}
	s.storeCached(ctx, key, proposal)
	return proposal, false, nil
}

// Save persists a proposal as a new timetable version.
func (s *ScheduleGeneratorService) Save(ctx context.Context, req dto.SaveScheduleRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save schedule payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrProposalExpired, "proposal not found or expired")
	}
	if unplaced := len(proposal.unplaced()); unplaced > 0 && !req.AllowPartial {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("proposal has %d unplaced sessions", unplaced))
	}

	record, err := s.persist(ctx, proposal, req.Publish)
	if err != nil {
		return nil, err
	}
	s.store.Delete(req.ProposalID)
	return record, nil
}

// GenerateAndSave regenerates a year level and stores the result as a draft.
// Used by bulk regeneration.
func (s *ScheduleGeneratorService) GenerateAndSave(ctx context.Context, yearLevel int) (*models.Timetable, error) {
	proposal, _, err := s.generateYearLevel(ctx, yearLevel, "")
	if err != nil {
		return nil, err
	}
	proposal.RequestedAt = s.now().UTC()
	return s.persist(ctx, proposal, false)
}

func (s *ScheduleGeneratorService) persist(ctx context.Context, proposal scheduleProposal, publish bool) (*models.Timetable, error) {
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	started := time.Now()

	placed, total := proposal.counts()
	metaBytes, err := json.Marshal(s.timetableMeta(proposal))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable metadata")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	record := &models.Timetable{
		Scope:  proposal.Scope,
		Ref:    proposal.Ref,
		Status: models.TimetableStatusDraft,
		Placed: placed,
		Total:  total,
		Meta:   types.JSONText(metaBytes),
	}
	if err = s.timetables.CreateVersioned(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
		return nil, err
	}

	if err = s.slots.InsertBatch(ctx, tx, slotsFromAssignments(record.ID, proposal.assignments())); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable slots")
		return nil, err
	}

	if publish {
		if err = s.timetables.UpdateStatus(ctx, tx, record.ID, models.TimetableStatusPublished, nil); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable")
			return nil, err
		}
		record.Status = models.TimetableStatusPublished
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
		return nil, err
	}
	s.metrics.ObserveDBQuery("timetable_save", time.Since(started))

	s.publishSaved(ctx, record)
	return record, nil
}

func (s *ScheduleGeneratorService) publishSaved(ctx context.Context, record *models.Timetable) {
	event := events.Event{
		Type:       EventTimetableSaved,
		OccurredAt: s.now().UTC(),
		Payload: dto.TimetableSavedEvent{
			TimetableID: record.ID,
			Scope:       string(record.Scope),
			Ref:         record.Ref,
			Version:     record.Version,
			Status:      string(record.Status),
			Placed:      record.Placed,
			Total:       record.Total,
		},
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish timetable event",
			zap.String("timetable_id", record.ID),
			zap.Error(err),
		)
	}
}

// List returns timetable versions, optionally narrowed by scope and ref.
func (s *ScheduleGeneratorService) List(ctx context.Context, query models.TimetableQuery) ([]models.Timetable, error) {
	if query.Scope != "" && !query.Scope.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scope must be SECTION or YEAR_LEVEL")
	}
	list, err := s.timetables.List(ctx, query)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return list, nil
}

// GetSlots returns slot detail for a stored timetable.
func (s *ScheduleGeneratorService) GetSlots(ctx context.Context, timetableID, sectionID string) ([]models.TimetableSlot, error) {
	if _, err := s.load(ctx, timetableID); err != nil {
		return nil, err
	}
	slots, err := s.slots.ListByTimetable(ctx, timetableID, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable slots")
	}
	return slots, nil
}

// Publish marks a draft timetable as published.
func (s *ScheduleGeneratorService) Publish(ctx context.Context, timetableID string) (*models.Timetable, error) {
	record, err := s.load(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	if record.Status == models.TimetableStatusPublished {
		return record, nil
	}
	if err := s.timetables.UpdateStatus(ctx, nil, timetableID, models.TimetableStatusPublished, nil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable")
	}
	record.Status = models.TimetableStatusPublished
	return record, nil
}

// Delete removes a draft timetable version.
func (s *ScheduleGeneratorService) Delete(ctx context.Context, timetableID string) error {
	record, err := s.load(ctx, timetableID)
	if err != nil {
		return err
	}
	if record.Status != models.TimetableStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft timetables can be deleted")
	}
	if err := s.timetables.Delete(ctx, timetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	return nil
}

func (s *ScheduleGeneratorService) load(ctx context.Context, timetableID string) (*models.Timetable, error) {
	if timetableID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	record, err := s.timetables.FindByID(ctx, timetableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return record, nil
}

func (s *ScheduleGeneratorService) cachedProposal(ctx context.Context, key string) (scheduleProposal, bool) {
	if s.cache == nil {
		return scheduleProposal{}, false
	}
	var proposal scheduleProposal
	if !s.cache.Get(ctx, key, &proposal) {
		return scheduleProposal{}, false
	}
	return proposal, true
}

func (s *ScheduleGeneratorService) storeCached(ctx context.Context, key string, proposal scheduleProposal) {
	if s.cache == nil {
		return
	}
	s.cache.Set(ctx, key, proposal)
}

// remember stamps a fresh proposal id so a cached result can be saved again.
func (s *ScheduleGeneratorService) remember(proposal scheduleProposal) scheduleProposal {
	proposal.ProposalID = uuid.NewString()
	proposal.RequestedAt = s.now().UTC()
	s.store.Save(proposal)
	return proposal
}

func (s *ScheduleGeneratorService) buildResponse(proposal scheduleProposal, sectionFilter string) *dto.GenerateScheduleResponse {
	placed, total := proposal.counts()
	resp := &dto.GenerateScheduleResponse{
		ProposalID:  proposal.ProposalID,
		Scope:       string(proposal.Scope),
		Ref:         proposal.Ref,
		Placed:      placed,
		Total:       total,
		Success:     placed == total,
		Assignments: []dto.AssignmentView{},
		Conflicts:   []dto.ProposalConflict{},
		Grid:        s.gridView(),
	}

	assignments := proposal.assignments()
	if proposal.Year != nil {
		resp.SharedCodes = proposal.Year.SharedCodes
		for _, section := range proposal.Year.Sections {
			resp.Sections = append(resp.Sections, dto.SectionSummary{
				SectionID: section.SectionID,
				Placed:    section.Result.Placed,
				Total:     section.Result.Total,
			})
		}
		if sectionFilter != "" {
			assignments = proposal.Year.ForSection(sectionFilter)
		}
	}

	for _, a := range assignments {
		resp.Assignments = append(resp.Assignments, toAssignmentView(a))
	}
	for _, session := range proposal.unplaced() {
		if sectionFilter != "" && !session.Shared && session.Course.SectionID != sectionFilter {
			continue
		}
		resp.Conflicts = append(resp.Conflicts, unplacedConflict(session))
	}
	return resp
}

func (s *ScheduleGeneratorService) gridView() dto.GridView {
	grid := s.engine.Grid()
	labels := make([]string, 0, grid.SlotCount())
	for i := 0; i < grid.SlotCount(); i++ {
		label, _ := grid.Label(i)
		labels = append(labels, label)
	}
	return dto.GridView{Days: grid.Days(), SlotMinutes: grid.SlotMinutes(), Labels: labels}
}

func (s *ScheduleGeneratorService) timetableMeta(proposal scheduleProposal) map[string]any {
	meta := map[string]any{
		"grid":      s.gridView(),
		"generated": proposal.RequestedAt,
		"unplaced":  len(proposal.unplaced()),
		"algorithm": "greedy_first_fit_v1",
	}
	if proposal.Year != nil {
		meta["sharedCodes"] = proposal.Year.SharedCodes
		meta["yearLevel"] = proposal.Year.YearLevel
	}
	return meta
}

// fingerprint hashes everything a run depends on: the grid, the sections
// and the courses in input order.
func (s *ScheduleGeneratorService) fingerprint(courses []scheduler.Course, sections []string) string {
	payload, _ := json.Marshal(struct {
		Grid     dto.GridView       `json:"grid"`
		Sections []string           `json:"sections"`
		Courses  []scheduler.Course `json:"courses"`
	}{s.gridView(), sections, courses})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:12])
}

func toEngineCourses(courses []models.Course) []scheduler.Course {
	out := make([]scheduler.Course, 0, len(courses))
	for _, c := range courses {
		out = append(out, scheduler.Course{
			ID:              c.ID,
			Code:            c.Code,
			Name:            c.Name,
			InstructorID:    c.InstructorID,
			RoomID:          c.RoomID,
			DurationMinutes: c.DurationMinutes,
			MeetingsPerWeek: c.MeetingsPerWeek,
			SectionID:       c.SectionID,
			YearLevel:       c.YearLevel,
		})
	}
	return out
}

func toAssignmentView(a scheduler.Assignment) dto.AssignmentView {
	course := a.Session.Course
	view := dto.AssignmentView{
		CourseID:     course.ID,
		CourseCode:   course.Code,
		CourseName:   course.Name,
		Sections:     sessionSections(a.Session),
		InstructorID: course.InstructorID,
		RoomID:       course.RoomID,
		Sequence:     a.Session.Sequence,
		DayOfWeek:    a.Day,
		StartSlot:    a.StartSlot,
		SlotCount:    a.SlotCount,
		StartTime:    a.StartLabel,
		EndTime:      a.EndLabel,
		Shared:       a.Session.Shared,
	}
	if !a.Session.Shared {
		view.SectionID = course.SectionID
	}
	return view
}

func unplacedConflict(session *scheduler.Session) dto.ProposalConflict {
	course := session.Course
	return dto.ProposalConflict{
		Type:    conflictUnplaced,
		Message: fmt.Sprintf("%s meeting %d could not be placed", course.Code, session.Sequence),
		Meta: map[string]any{
			"courseId":        course.ID,
			"courseCode":      course.Code,
			"sequence":        session.Sequence,
			"sections":        sessionSections(session),
			"durationMinutes": course.DurationMinutes,
			"shared":          session.Shared,
		},
	}
}

// slotsFromAssignments stores a shared assignment once per attending section.
func slotsFromAssignments(timetableID string, assignments []scheduler.Assignment) []models.TimetableSlot {
	slots := make([]models.TimetableSlot, 0, len(assignments))
	for _, a := range assignments {
		course := a.Session.Course
		for _, section := range sessionSections(a.Session) {
			slots = append(slots, models.TimetableSlot{
				TimetableID:  timetableID,
				SectionID:    section,
				CourseID:     course.ID,
				CourseCode:   course.Code,
				InstructorID: course.InstructorID,
				RoomID:       course.RoomID,
				DayOfWeek:    a.Day,
				StartSlot:    a.StartSlot,
				SlotCount:    a.SlotCount,
				StartTime:    a.StartLabel,
				EndTime:      a.EndLabel,
				Sequence:     a.Session.Sequence,
				Shared:       a.Session.Shared,
			})
		}
	}
	return slots
}

func sessionSections(session *scheduler.Session) []string {
	if len(session.Sections) > 0 {
		return session.Sections
	}
	return []string{session.Course.SectionID}
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
