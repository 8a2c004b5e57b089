package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arashi-labs/weft-scheduler/internal/dto"
	"github.com/arashi-labs/weft-scheduler/internal/models"
	appErrors "github.com/arashi-labs/weft-scheduler/pkg/errors"
)

func TestScheduleGeneratorServiceGenerateSuccess(t *testing.T) {
	service := newSchedulerServiceFixture(t, schedulerFixtureConfig{})

	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:  "term-1",
		ClassID: "class-1",
		Params:  fastGAParams(),
	})
	require.NoError(t, err)
	assert.Len(t, resp.Slots, 4)
	assert.Empty(t, resp.HardViolations)
}

func TestScheduleGeneratorServiceGenerateAsync(t *testing.T) {
	service := newSchedulerServiceFixture(t, schedulerFixtureConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	service.StartAsyncWorkers(ctx)
	defer service.StopAsyncWorkers()

	jobID, err := service.GenerateAsync(context.Background(), dto.GenerateScheduleRequest{
		TermID:  "term-1",
		ClassID: "class-1",
		Params:  fastGAParams(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	require.Eventually(t, func() bool {
		status, ok := service.JobStatus(jobID)
		return ok && status.Status != "pending"
	}, 5*time.Second, 10*time.Millisecond)

	status, ok := service.JobStatus(jobID)
	require.True(t, ok)
	assert.Equal(t, "done", status.Status)
	require.NotNil(t, status.Result)
	assert.Len(t, status.Result.Slots, 4)
}

func TestScheduleGeneratorServiceGenerateHonoursUnavailable(t *testing.T) {
	service := newSchedulerServiceFixture(t, schedulerFixtureConfig{
		preferences: map[string]*models.TeacherPreference{
			"teacher-1": mockPreference(101),
		},
	})

	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:  "term-1",
		ClassID: "class-1",
		Params:  fastGAParams(),
	})
	require.NoError(t, err)
	for _, slot := range resp.Slots {
		if slot.TeacherID == "teacher-1" {
			assert.NotEqual(t, 101, slot.StartSlot, "blocked slot must not be used by teacher-1")
		}
	}
}

func TestScheduleGeneratorServiceGenerateMissingAssignments(t *testing.T) {
	service := newSchedulerServiceFixture(t, schedulerFixtureConfig{noAssignments: true})

	_, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:  "term-1",
		ClassID: "class-1",
		Params:  fastGAParams(),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestScheduleGeneratorServiceSaveDraft(t *testing.T) {
	txProvider, mock := newTxProviderMock(t)
	service := newSchedulerServiceFixture(t, schedulerFixtureConfig{tx: txProvider})

	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:  "term-1",
		ClassID: "class-1",
		Params:  fastGAParams(),
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	id, err := service.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceSaveCommitToDaily(t *testing.T) {
	txProvider, mock := newTxProviderMock(t)
	schedules := &scheduleReplacerStub{}
	service := newSchedulerServiceFixture(t, schedulerFixtureConfig{tx: txProvider, schedules: schedules})

	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:  "term-1",
		ClassID: "class-1",
		Params:  fastGAParams(),
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	id, err := service.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID, CommitToDaily: true})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Len(t, schedules.replaced, 4)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceSaveRejectsHardViolations(t *testing.T) {
	txProvider, _ := newTxProviderMock(t)
	service := newSchedulerServiceFixture(t, schedulerFixtureConfig{tx: txProvider})

	service.store.Save(scheduleProposal{
		ProposalID:  "dirty-proposal",
		TermID:      "term-1",
		ClassID:     "class-1",
		Hard:        map[string]int{"ROOM_DOUBLE_BOOK": 1},
		RequestedAt: time.Now().UTC(),
	})

	_, err := service.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: "dirty-proposal"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestScheduleGeneratorServiceSaveUnknownProposal(t *testing.T) {
	service := newSchedulerServiceFixture(t, schedulerFixtureConfig{})

	_, err := service.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: "missing"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

// --- Fixtures ---

type schedulerFixtureConfig struct {
	preferences   map[string]*models.TeacherPreference
	tx            txProvider
	schedules     scheduleReplacer
	noAssignments bool
}

func fastGAParams() *dto.GAParamsRequest {
	seed := int64(7)
	return &dto.GAParamsRequest{
		PopulationSize: 12,
		Generations:    25,
		TournamentK:    3,
		Workers:        2,
		Seed:           &seed,
	}
}

func newSchedulerServiceFixture(t *testing.T, cfg schedulerFixtureConfig) *ScheduleGeneratorService {
	t.Helper()

	assignments := assignmentRepoSchedulerStub{
		items: []models.TeacherAssignment{
			{SubjectID: "math", TeacherID: "teacher-1"},
			{SubjectID: "science", TeacherID: "teacher-2"},
		},
	}
	if cfg.noAssignments {
		assignments.items = nil
	}

	subjects := subjectLookupStub{
		items: map[string]models.Subject{
			"math":    {ID: "math", Kind: models.SubjectKindTheory, BlockSize: 1, RequiredPeriodsPerWeek: 2},
			"science": {ID: "science", Kind: models.SubjectKindTheory, BlockSize: 1, RequiredPeriodsPerWeek: 2},
		},
	}
	teachers := teacherLookupStub{
		items: map[string]models.Teacher{
			"teacher-1": {ID: "teacher-1", FullName: "Teacher One", MaxWeeklyLoad: 20},
			"teacher-2": {ID: "teacher-2", FullName: "Teacher Two", MaxWeeklyLoad: 20},
		},
	}
	prefs := preferenceRepoSchedulerStub{items: cfg.preferences}
	rooms := roomListerStub{
		items: []models.Room{
			{ID: "room-1", Name: "Room 1", Type: models.RoomTypeLecture, Capacity: 40},
			{ID: "room-2", Name: "Room 2", Type: models.RoomTypeLecture, Capacity: 40},
		},
	}
	timeSlots := timeSlotCatalogStub{catalog: buildFixtureCatalog()}
	terms := termLookupStub{}
	classes := classLookupStub{}
	semesters := &semesterScheduleRepoStub{}
	slots := &semesterScheduleSlotRepoStub{}

	var schedules scheduleReplacer = &scheduleReplacerStub{}
	if cfg.schedules != nil {
		schedules = cfg.schedules
	}

	tx := cfg.tx
	if tx == nil {
		tx = noopTxProvider{}
	}

	return NewScheduleGeneratorService(
		terms,
		classes,
		subjects,
		assignments,
		teachers,
		prefs,
		rooms,
		timeSlots,
		schedules,
		semesters,
		slots,
		tx,
		validator.New(),
		zap.NewNop(),
		nil,
		nil,
		ScheduleGeneratorConfig{ProposalTTL: time.Hour},
	)
}

func buildFixtureCatalog() models.TimeSlotCatalog {
	entries := make([]models.TimeSlotCatalogEntry, 0, 8)
	slotID := 100
	for day := 0; day < 2; day++ {
		for period := 0; period < 4; period++ {
			slotID++
			entries = append(entries, models.TimeSlotCatalogEntry{
				ID:       fmt.Sprintf("slot-%d", slotID),
				SlotID:   slotID,
				DayIndex: day,
				Ordinal:  len(entries),
				Usable:   true,
			})
		}
	}
	return models.TimeSlotCatalog{TermID: "term-1", PeriodsPerDay: 4, DayCount: 2, Entries: entries}
}

type assignmentRepoSchedulerStub struct {
	items []models.TeacherAssignment
}

func (s assignmentRepoSchedulerStub) ListByClassAndTerm(ctx context.Context, classID, termID string) ([]models.TeacherAssignment, error) {
	return s.items, nil
}

type subjectLookupStub struct {
	items map[string]models.Subject
}

func (s subjectLookupStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	subj, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &subj, nil
}

type teacherLookupStub struct {
	items map[string]models.Teacher
}

func (s teacherLookupStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &teacher, nil
}

type preferenceRepoSchedulerStub struct {
	items map[string]*models.TeacherPreference
}

func (s preferenceRepoSchedulerStub) GetByTeacher(ctx context.Context, teacherID string) (*models.TeacherPreference, error) {
	if s.items == nil {
		return nil, sql.ErrNoRows
	}
	if pref, ok := s.items[teacherID]; ok {
		return pref, nil
	}
	return nil, sql.ErrNoRows
}

type roomListerStub struct {
	items []models.Room
}

func (s roomListerStub) ListAll(ctx context.Context) ([]models.Room, error) {
	return s.items, nil
}

type timeSlotCatalogStub struct {
	catalog models.TimeSlotCatalog
}

func (s timeSlotCatalogStub) CatalogForTerm(ctx context.Context, termID string) (models.TimeSlotCatalog, error) {
	return s.catalog, nil
}

type termLookupStub struct{}

func (termLookupStub) FindByID(ctx context.Context, id string) (*models.Term, error) {
	return &models.Term{ID: id}, nil
}

type classLookupStub struct{}

func (classLookupStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	return &models.Class{ID: id, Name: "Class " + id, StudentCount: 30}, nil
}

type scheduleReplacerStub struct {
	replaced []models.Schedule
}

func (s *scheduleReplacerStub) ReplaceForClassTerm(ctx context.Context, tx *sqlx.Tx, termID, classID string, schedules []models.Schedule) error {
	s.replaced = schedules
	return nil
}

type semesterScheduleRepoStub struct {
	items []models.SemesterSchedule
	seq   int
}

func (s *semesterScheduleRepoStub) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.SemesterSchedule) error {
	s.seq++
	schedule.ID = fmt.Sprintf("sched-%d", s.seq)
	schedule.Version = len(s.items) + 1
	s.items = append(s.items, *schedule)
	return nil
}

func (s *semesterScheduleRepoStub) ListByTermClass(ctx context.Context, termID, classID string) ([]models.SemesterSchedule, error) {
	return s.items, nil
}

func (s *semesterScheduleRepoStub) FindByID(ctx context.Context, id string) (*models.SemesterSchedule, error) {
	for _, item := range s.items {
		if item.ID == id {
			return &item, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *semesterScheduleRepoStub) Delete(ctx context.Context, id string) error {
	for idx, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:idx], s.items[idx+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *semesterScheduleRepoStub) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.SemesterScheduleStatus, meta types.JSONText) error {
	for idx := range s.items {
		if s.items[idx].ID == id {
			s.items[idx].Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

type semesterScheduleSlotRepoStub struct {
	items map[string][]models.SemesterScheduleSlot
}

func (s *semesterScheduleSlotRepoStub) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.SemesterScheduleSlot) error {
	if s.items == nil {
		s.items = make(map[string][]models.SemesterScheduleSlot)
	}
	for _, slot := range slots {
		s.items[slot.SemesterScheduleID] = append(s.items[slot.SemesterScheduleID], slot)
	}
	return nil
}

func (s *semesterScheduleSlotRepoStub) ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error) {
	return s.items[scheduleID], nil
}

type noopTxProvider struct{}

func (noopTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider unavailable")
}

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func mockPreference(blockedSlot int) *models.TeacherPreference {
	payload, _ := json.Marshal([]int{blockedSlot})
	return &models.TeacherPreference{
		TeacherID:        "teacher-1",
		UnavailableSlots: payload,
	}
}
