package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/arashi-labs/weft-scheduler/internal/dto"
	"github.com/arashi-labs/weft-scheduler/internal/models"
	"github.com/arashi-labs/weft-scheduler/internal/scheduler"
	appErrors "github.com/arashi-labs/weft-scheduler/pkg/errors"
	"github.com/arashi-labs/weft-scheduler/pkg/jobs"
)

const generateJobType = "schedule.generate"

type semesterScheduleRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.SemesterSchedule) error
	ListByTermClass(ctx context.Context, termID, classID string) ([]models.SemesterSchedule, error)
	FindByID(ctx context.Context, id string) (*models.SemesterSchedule, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.SemesterScheduleStatus, meta types.JSONText) error
}

type semesterScheduleSlotRepository interface {
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.SemesterScheduleSlot) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error)
}

type teacherAssignmentFetcher interface {
	ListByClassAndTerm(ctx context.Context, classID, termID string) ([]models.TeacherAssignment, error)
}

type teacherFetcher interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type teacherPreferenceFetcher interface {
	GetByTeacher(ctx context.Context, teacherID string) (*models.TeacherPreference, error)
}

type roomLister interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type timeSlotCatalogProvider interface {
	CatalogForTerm(ctx context.Context, termID string) (models.TimeSlotCatalog, error)
}

type scheduleReplacer interface {
	ReplaceForClassTerm(ctx context.Context, tx *sqlx.Tx, termID, classID string, schedules []models.Schedule) error
}

type schedulerClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type schedulerTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type schedulerSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// gaResultCache caches a GA run's result keyed by a fingerprint of its
// input, so re-requesting an unchanged curriculum/params bundle skips a
// full run. A nil cache disables caching: Generate checks for nil and then
// neither reads nor writes.
type gaResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// cachedGAResult is the value stored per fingerprint in gaResultCache.
type cachedGAResult struct {
	Fitness     float64                    `json:"fitness"`
	Slots       []dto.ScheduleSlotProposal `json:"slots"`
	Hard        map[string]int             `json:"hard"`
	Soft        map[string]int             `json:"soft"`
	Generations int                        `json:"generations"`
	Cancelled   bool                       `json:"cancelled"`
}

// ScheduleGeneratorService builds timetable proposals with the genetic
// algorithm search core and persists semester schedules.
type ScheduleGeneratorService struct {
	terms       schedulerTermReader
	classes     schedulerClassReader
	subjects    schedulerSubjectReader
	assignments teacherAssignmentFetcher
	teachers    teacherFetcher
	prefs       teacherPreferenceFetcher
	rooms       roomLister
	timeSlots   timeSlotCatalogProvider
	schedules   scheduleReplacer
	semesters   semesterScheduleRepository
	slots       semesterScheduleSlotRepository
	tx          txProvider
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
	cache       gaResultCache
	store       *proposalStore
	cacheTTL    time.Duration
	defaultParams *scheduler.Params
	jobs        *jobStatusStore
	queue       *jobs.Queue
}

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	ProposalTTL time.Duration
	CacheTTL    time.Duration
	// DefaultParams, when set, seeds resolveParams instead of
	// scheduler.DefaultParams() so deployment-tuned GA parameters apply to
	// every request that does not override them.
	DefaultParams *scheduler.Params
	// AsyncWorkers sizes the background pool that GenerateAsync dispatches
	// onto, keeping large GA runs off the request path.
	AsyncWorkers int
}

// NewScheduleGeneratorService wires scheduler dependencies.
func NewScheduleGeneratorService(
	terms schedulerTermReader,
	classes schedulerClassReader,
	subjects schedulerSubjectReader,
	assignments teacherAssignmentFetcher,
	teachers teacherFetcher,
	prefs teacherPreferenceFetcher,
	rooms roomLister,
	timeSlots timeSlotCatalogProvider,
	schedules scheduleReplacer,
	semesters semesterScheduleRepository,
	slots semesterScheduleSlotRepository,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *MetricsService,
	cache gaResultCache,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.AsyncWorkers <= 0 {
		cfg.AsyncWorkers = 2
	}
	svc := &ScheduleGeneratorService{
		terms:       terms,
		classes:     classes,
		subjects:    subjects,
		assignments: assignments,
		teachers:    teachers,
		prefs:       prefs,
		rooms:       rooms,
		timeSlots:   timeSlots,
		schedules:   schedules,
		semesters:   semesters,
		slots:       slots,
		tx:          tx,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
		cache:       cache,
		store:       newProposalStore(cfg.ProposalTTL),
		cacheTTL:    cfg.CacheTTL,
		defaultParams: cfg.DefaultParams,
		jobs:        newJobStatusStore(cfg.ProposalTTL),
	}
	svc.queue = jobs.NewQueue("schedule-generate", svc.handleGenerateJob, jobs.QueueConfig{
		Workers: cfg.AsyncWorkers,
		Logger:  logger,
	})
	return svc
}

// StartAsyncWorkers begins consuming queued GenerateAsync jobs. Must be
// called once before GenerateAsync is used; callers own ctx's lifetime and
// should call StopAsyncWorkers on shutdown.
func (s *ScheduleGeneratorService) StartAsyncWorkers(ctx context.Context) {
	s.queue.Start(ctx)
}

// StopAsyncWorkers drains in-flight jobs and stops the worker pool.
func (s *ScheduleGeneratorService) StopAsyncWorkers() {
	s.queue.Stop()
}

// GenerateAsync enqueues a GA run and returns immediately with a job ID that
// JobStatus can later poll, keeping long-running searches off the request
// path.
func (s *ScheduleGeneratorService) GenerateAsync(ctx context.Context, req dto.GenerateScheduleRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}
	jobID := uuid.NewString()
	s.jobs.Set(dto.GenerateJobStatus{JobID: jobID, Status: "pending"})
	if err := s.queue.Enqueue(jobs.Job{ID: jobID, Type: generateJobType, Payload: generateJobPayload{JobID: jobID, Request: req}}); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue generation job")
	}
	return jobID, nil
}

// JobStatus returns the current state of a previously queued GenerateAsync
// job.
func (s *ScheduleGeneratorService) JobStatus(jobID string) (dto.GenerateJobStatus, bool) {
	return s.jobs.Get(jobID)
}

type generateJobPayload struct {
	JobID   string
	Request dto.GenerateScheduleRequest
}

func (s *ScheduleGeneratorService) handleGenerateJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(generateJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for job %s", job.ID)
	}
	resp, err := s.Generate(ctx, payload.Request)
	if err != nil {
		s.jobs.Set(dto.GenerateJobStatus{JobID: payload.JobID, Status: "failed", Error: err.Error()})
		return nil
	}
	s.jobs.Set(dto.GenerateJobStatus{JobID: payload.JobID, Status: "done", Result: resp})
	return nil
}

// Generate assembles a SchedulingInput for the class/term and runs the
// genetic algorithm search core, caching the result as a proposal.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}
	class, err := s.ensureTermAndClass(ctx, req.TermID, req.ClassID)
	if err != nil {
		return nil, err
	}

	edges, err := s.assignments.ListByClassAndTerm(ctx, req.ClassID, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher assignments")
	}
	if len(edges) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no teacher assignments defined for this class and term")
	}

	input, err := s.buildSchedulingInput(ctx, req.TermID, class, edges)
	if err != nil {
		return nil, err
	}

	params := s.resolveParams(req.Params)

	input.Prepare()

	fingerprint := s.fingerprint(req.TermID, req.ClassID, edges, params)

	var cached cachedGAResult
	hit := false
	if s.cache != nil {
		hit, err = s.cache.Get(ctx, fingerprint, &cached)
		if err != nil {
			s.logger.Sugar().Warnw("ga result cache read failed", "error", err, "key", fingerprint)
			hit = false
		}
	}

	var slots []dto.ScheduleSlotProposal
	var hard, soft map[string]int
	var fitness float64
	var generations int
	var cancelled bool

	if hit {
		slots = cached.Slots
		hard = cached.Hard
		soft = cached.Soft
		fitness = cached.Fitness
		generations = cached.Generations
		cancelled = cached.Cancelled
	} else {
		start := time.Now()
		result, runErr := scheduler.Run(ctx, input, params)
		if runErr != nil {
			return nil, appErrors.Wrap(runErr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "scheduling input is infeasible")
		}
		if s.metrics != nil {
			workerUtilization := 1.0
			if params.Workers > params.PopulationSize && params.PopulationSize > 0 {
				workerUtilization = float64(params.PopulationSize) / float64(params.Workers)
			}
			s.metrics.ObserveGARun(time.Since(start), result.GenerationsExecuted, sumBreakdown(result.HardBreakdown), weightedSoftPenalty(result.SoftBreakdown, params.SoftWeights), workerUtilization)
		}

		slots = make([]dto.ScheduleSlotProposal, 0, len(result.Genes))
		for _, g := range result.Genes {
			day, _ := input.Day(g.StartSlot)
			slots = append(slots, dto.ScheduleSlotProposal{
				SubjectID: g.SubjectID,
				TeacherID: g.FacultyID,
				RoomID:    g.RoomID,
				DayIndex:  day,
				StartSlot: g.StartSlot,
				Duration:  g.BlockSize,
			})
		}
		hard = result.HardBreakdown
		soft = result.SoftBreakdown
		fitness = result.Fitness
		generations = result.GenerationsExecuted
		cancelled = result.Cancelled

		if s.cache != nil && sumBreakdown(hard) == 0 {
			if setErr := s.cache.Set(ctx, fingerprint, cachedGAResult{
				Fitness:     fitness,
				Slots:       slots,
				Hard:        hard,
				Soft:        soft,
				Generations: generations,
				Cancelled:   cancelled,
			}, s.cacheTTL); setErr != nil {
				s.logger.Sugar().Warnw("ga result cache write failed", "error", setErr, "key", fingerprint)
			}
		}
	}

	proposal := scheduleProposal{
		ProposalID:  uuid.NewString(),
		TermID:      req.TermID,
		ClassID:     req.ClassID,
		Fitness:     fitness,
		Slots:       slots,
		Hard:        hard,
		Soft:        soft,
		Generations: generations,
		Cancelled:   cancelled,
		RequestedAt: time.Now().UTC(),
	}
	s.store.Save(proposal)

	resp := &dto.GenerateScheduleResponse{
		ProposalID:     proposal.ProposalID,
		Fitness:        proposal.Fitness,
		Slots:          slots,
		HardViolations: breakdownList(proposal.Hard),
		SoftViolations: breakdownList(proposal.Soft),
		Stats: dto.ScheduleImprovementStats{
			GenerationsExecuted: proposal.Generations,
			Cancelled:           proposal.Cancelled,
		},
	}
	return resp, nil
}

// Save persists a validated proposal as a semester schedule and optionally
// commits it to the daily schedule table.
func (s *ScheduleGeneratorService) Save(ctx context.Context, req dto.SaveScheduleRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save schedule payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if sumBreakdown(proposal.Hard) > 0 {
		return "", appErrors.Clone(appErrors.ErrConflict, "proposal contains unresolved hard constraint violations")
	}
	if s.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	metaPayload := map[string]any{
		"fitness":     proposal.Fitness,
		"generations": proposal.Generations,
		"generated":   proposal.RequestedAt,
		"algorithm":   "genetic_v1",
	}
	metaBytes, marshalErr := json.Marshal(metaPayload)
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule metadata")
		return "", err
	}

	record := &models.SemesterSchedule{
		TermID:  proposal.TermID,
		ClassID: proposal.ClassID,
		Status:  models.SemesterScheduleStatusDraft,
		Meta:    types.JSONText(metaBytes),
	}

	if err = s.semesters.CreateVersioned(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester schedule")
		return "", err
	}

	slotModels := make([]models.SemesterScheduleSlot, 0, len(proposal.Slots))
	for _, slot := range proposal.Slots {
		roomID := slot.RoomID
		slotModels = append(slotModels, models.SemesterScheduleSlot{
			SemesterScheduleID: record.ID,
			DayOfWeek:          slot.DayIndex,
			TimeSlot:           slot.StartSlot,
			Duration:           slot.Duration,
			SubjectID:          slot.SubjectID,
			TeacherID:          slot.TeacherID,
			Room:               &roomID,
		})
	}

	if err = s.slots.UpsertBatch(ctx, tx, slotModels); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist semester schedule slots")
		return "", err
	}

	if req.CommitToDaily {
		daily := make([]models.Schedule, 0, len(proposal.Slots))
		for _, slot := range proposal.Slots {
			daily = append(daily, models.Schedule{
				TermID:    proposal.TermID,
				ClassID:   proposal.ClassID,
				SubjectID: slot.SubjectID,
				TeacherID: slot.TeacherID,
				DayOfWeek: fmt.Sprintf("%d", slot.DayIndex),
				TimeSlot:  fmt.Sprintf("%d", slot.StartSlot),
				Room:      slot.RoomID,
			})
		}
		if err = s.schedules.ReplaceForClassTerm(ctx, tx, proposal.TermID, proposal.ClassID, daily); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit daily schedules")
			return "", err
		}
		if err = s.semesters.UpdateStatus(ctx, tx, record.ID, models.SemesterScheduleStatusPublished, nil); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule status")
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule transaction")
		return "", err
	}

	s.store.Delete(req.ProposalID)
	return record.ID, nil
}

// List returns semester schedules for a class-term tuple.
func (s *ScheduleGeneratorService) List(ctx context.Context, query dto.SemesterScheduleQuery) ([]models.SemesterSchedule, error) {
	if query.TermID == "" || query.ClassID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId and classId are required")
	}
	list, err := s.semesters.ListByTermClass(ctx, query.TermID, query.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester schedules")
	}
	return list, nil
}

// GetSlots returns slot detail for a stored schedule.
func (s *ScheduleGeneratorService) GetSlots(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error) {
	if scheduleID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule id is required")
	}
	if _, err := s.semesters.FindByID(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester schedule")
	}
	slots, err := s.slots.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester schedule slots")
	}
	return slots, nil
}

// Delete removes a draft schedule version.
func (s *ScheduleGeneratorService) Delete(ctx context.Context, scheduleID string) error {
	record, err := s.semesters.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester schedule")
	}
	if record.Status != models.SemesterScheduleStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft schedules can be deleted")
	}
	if err := s.semesters.Delete(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete semester schedule")
	}
	return nil
}

func (s *ScheduleGeneratorService) ensureTermAndClass(ctx context.Context, termID, classID string) (*models.Class, error) {
	if s.terms != nil {
		if _, err := s.terms.FindByID(ctx, termID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
		}
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// buildSchedulingInput assembles the scheduling core's SchedulingInput from
// the curriculum edges for one class/term, resolving every subject, faculty,
// faculty unavailability window, room, and the term's time slot catalog.
func (s *ScheduleGeneratorService) buildSchedulingInput(ctx context.Context, termID string, class *models.Class, edges []models.TeacherAssignment) (scheduler.SchedulingInput, error) {
	subjectIDs := make(map[string]struct{})
	facultyIDs := make(map[string]struct{})
	curriculum := make([]scheduler.CurriculumEdge, 0, len(edges))
	for _, e := range edges {
		subjectIDs[e.SubjectID] = struct{}{}
		facultyIDs[e.TeacherID] = struct{}{}
		curriculum = append(curriculum, scheduler.CurriculumEdge{
			SectionID: class.ID,
			SubjectID: e.SubjectID,
			FacultyID: e.TeacherID,
		})
	}

	subjects := make([]scheduler.Subject, 0, len(subjectIDs))
	for id := range subjectIDs {
		subj, err := s.subjects.FindByID(ctx, id)
		if err != nil {
			return scheduler.SchedulingInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load subject %s", id))
		}
		subjects = append(subjects, scheduler.Subject{
			SubjectID:              subj.ID,
			RequiredPeriodsPerWeek: subj.RequiredPeriodsPerWeek,
			Kind:                   scheduler.SubjectKind(subj.Kind),
			BlockSize:              subj.BlockSize,
		})
	}

	faculty := make([]scheduler.Faculty, 0, len(facultyIDs))
	unavailability := make(scheduler.FacultyUnavailability, len(facultyIDs))
	for id := range facultyIDs {
		teacher, err := s.teachers.FindByID(ctx, id)
		if err != nil {
			return scheduler.SchedulingInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load teacher %s", id))
		}
		faculty = append(faculty, scheduler.Faculty{FacultyID: teacher.ID, MaxWeeklyLoad: teacher.MaxWeeklyLoad})

		if s.prefs == nil {
			continue
		}
		pref, err := s.prefs.GetByTeacher(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return scheduler.SchedulingInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher preferences")
		}
		if len(pref.UnavailableSlots) == 0 {
			continue
		}
		var blocked []int
		if err := json.Unmarshal(pref.UnavailableSlots, &blocked); err != nil {
			continue
		}
		slotSet := make(map[int]struct{}, len(blocked))
		for _, slot := range blocked {
			slotSet[slot] = struct{}{}
		}
		unavailability[id] = slotSet
	}

	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return scheduler.SchedulingInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	schedulerRooms := make([]scheduler.Room, 0, len(rooms))
	for _, room := range rooms {
		schedulerRooms = append(schedulerRooms, scheduler.Room{
			RoomID:   room.ID,
			Type:     scheduler.RoomKind(room.Type),
			Capacity: room.Capacity,
		})
	}

	catalog, err := s.timeSlots.CatalogForTerm(ctx, termID)
	if err != nil {
		return scheduler.SchedulingInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot catalog")
	}

	return scheduler.SchedulingInput{
		Sections:              []scheduler.Section{{SectionID: class.ID, Name: class.Name, StudentCount: class.StudentCount}},
		Subjects:               subjects,
		Curriculum:             curriculum,
		Rooms:                  schedulerRooms,
		Faculty:                faculty,
		FacultyUnavailability:  unavailability,
		UsableSlots:            catalog.UsableSlots(),
		LunchSlots:             catalog.LunchSlots(),
		PeriodsPerDay:          catalog.PeriodsPerDay,
		DayCount:               catalog.DayCount,
		SlotOrder:              catalog.SlotOrder(),
	}, nil
}

func (s *ScheduleGeneratorService) resolveParams(req *dto.GAParamsRequest) scheduler.Params {
	params := scheduler.DefaultParams()
	if s.defaultParams != nil {
		params = *s.defaultParams
	}
	if req == nil {
		return params
	}
	if req.PopulationSize > 0 {
		params.PopulationSize = req.PopulationSize
	}
	if req.Generations > 0 {
		params.Generations = req.Generations
	}
	if req.TournamentK > 0 {
		params.TournamentK = req.TournamentK
	}
	if req.CrossoverRate > 0 {
		params.CrossoverRate = req.CrossoverRate
	}
	if req.MutationRate > 0 {
		params.MutationRate = req.MutationRate
	}
	if req.ElitismFraction > 0 {
		params.ElitismFraction = req.ElitismFraction
	}
	if req.Seed != nil {
		params.Seed = req.Seed
	}
	if req.WallClockBudgetMs != nil {
		params.WallClockBudgetMs = req.WallClockBudgetMs
	}
	if req.Workers > 0 {
		params.Workers = req.Workers
	}
	if req.StagnationLimit > 0 {
		params.StagnationLimit = req.StagnationLimit
	}
	if req.SoftWeights != nil {
		params.SoftWeights = req.SoftWeights
	}
	return params
}

// fingerprint hashes the term, class, assignment edges and GA params of a
// request so an unchanged curriculum/params bundle can be served from cache
// instead of re-run. Subject, room, time slot and teacher preference records
// are not part of the key. Assignment edges and soft weight keys are sorted
// first since map iteration and repository ordering are not stable across
// calls.
func (s *ScheduleGeneratorService) fingerprint(termID, classID string, edges []models.TeacherAssignment, params scheduler.Params) string {
	edgeKeys := make([]string, len(edges))
	for i, e := range edges {
		edgeKeys[i] = e.TeacherID + "|" + e.SubjectID + "|" + e.ClassID
	}
	sort.Strings(edgeKeys)

	weightKeys := make([]string, 0, len(params.SoftWeights))
	for k := range params.SoftWeights {
		weightKeys = append(weightKeys, k)
	}
	sort.Strings(weightKeys)

	h := sha256.New()
	fmt.Fprintf(h, "term=%s;class=%s;edges=%s;pop=%d;gen=%d;k=%d;cx=%f;mut=%f;elite=%f;workers=%d;stagnation=%d",
		termID, classID, strings.Join(edgeKeys, ","),
		params.PopulationSize, params.Generations, params.TournamentK,
		params.CrossoverRate, params.MutationRate, params.ElitismFraction,
		params.Workers, params.StagnationLimit)
	if params.Seed != nil {
		fmt.Fprintf(h, ";seed=%d", *params.Seed)
	}
	for _, k := range weightKeys {
		fmt.Fprintf(h, ";w:%s=%d", k, params.SoftWeights[k])
	}
	return "ga:result:" + hex.EncodeToString(h.Sum(nil))
}

func sumBreakdown(breakdown map[string]int) int {
	total := 0
	for _, v := range breakdown {
		total += v
	}
	return total
}

func weightedSoftPenalty(breakdown, weights map[string]int) float64 {
	if weights == nil {
		weights = scheduler.DefaultSoftWeights()
	}
	total := 0
	for kind, count := range breakdown {
		total += weights[kind] * count
	}
	return float64(total)
}

func breakdownList(breakdown map[string]int) []dto.ViolationBreakdown {
	list := make([]dto.ViolationBreakdown, 0, len(breakdown))
	for kind, count := range breakdown {
		if count == 0 {
			continue
		}
		list = append(list, dto.ViolationBreakdown{Type: kind, Count: count})
	}
	return list
}

// --- Proposal cache ---

type scheduleProposal struct {
	ProposalID  string
	TermID      string
	ClassID     string
	Fitness     float64
	Slots       []dto.ScheduleSlotProposal
	Hard        map[string]int
	Soft        map[string]int
	Generations int
	Cancelled   bool
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]scheduleProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]scheduleProposal),
	}
}

func (s *proposalStore) Save(proposal scheduleProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (scheduleProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return scheduleProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
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

// jobStatusStore tracks in-flight and completed asynchronous generate jobs.
// Entries expire on the same TTL as proposals since a stale job result is no
// more useful than a stale proposal.
type jobStatusStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]dto.GenerateJobStatus
	at    map[string]time.Time
}

func newJobStatusStore(ttl time.Duration) *jobStatusStore {
	return &jobStatusStore{
		ttl:   ttl,
		items: make(map[string]dto.GenerateJobStatus),
		at:    make(map[string]time.Time),
	}
}

func (s *jobStatusStore) Set(status dto.GenerateJobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[status.JobID] = status
	s.at[status.JobID] = time.Now()
}

func (s *jobStatusStore) Get(jobID string) (dto.GenerateJobStatus, bool) {
	s.mu.RLock()
	status, ok := s.items[jobID]
	at := s.at[jobID]
	s.mu.RUnlock()
	if !ok {
		return dto.GenerateJobStatus{}, false
	}
	if time.Since(at) > s.ttl {
		s.mu.Lock()
		delete(s.items, jobID)
		delete(s.at, jobID)
		s.mu.Unlock()
		return dto.GenerateJobStatus{}, false
	}
	return status, true
}
