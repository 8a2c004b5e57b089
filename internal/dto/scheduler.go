package dto

// GAParamsRequest lets a caller override the genetic algorithm's default
// search parameters for a single run. Every field is optional; zero values
// fall back to scheduler.DefaultParams().
type GAParamsRequest struct {
	PopulationSize    int      `json:"populationSize" validate:"omitempty,min=2"`
	Generations       int      `json:"generations" validate:"omitempty,min=1"`
	TournamentK       int      `json:"tournamentK" validate:"omitempty,min=2"`
	CrossoverRate     float64  `json:"crossoverRate" validate:"omitempty,min=0,max=1"`
	MutationRate      float64  `json:"mutationRate" validate:"omitempty,min=0,max=1"`
	ElitismFraction   float64  `json:"elitismFraction" validate:"omitempty,min=0,max=1"`
	Seed              *int64   `json:"seed,omitempty"`
	WallClockBudgetMs *int64   `json:"wallClockBudgetMs,omitempty" validate:"omitempty,min=1"`
	Workers           int      `json:"workers" validate:"omitempty,min=1"`
	StagnationLimit   int      `json:"stagnationLimit" validate:"omitempty,min=1"`
	SoftWeights       map[string]int `json:"softWeights,omitempty"`
}

// GenerateScheduleRequest instructs the generator to run the scheduling core
// for the class/term and return a proposal.
type GenerateScheduleRequest struct {
	TermID  string           `json:"termId" validate:"required"`
	ClassID string           `json:"classId" validate:"required"`
	Params  *GAParamsRequest `json:"params,omitempty"`
}

// ScheduleSlotProposal represents one placed gene in a generated proposal.
// DayIndex is resolved once at generation time from the term's time slot
// catalog so that committing the proposal later does not need to re-walk it.
type ScheduleSlotProposal struct {
	SubjectID string `json:"subjectId"`
	TeacherID string `json:"teacherId"`
	RoomID    string `json:"roomId"`
	DayIndex  int    `json:"dayIndex"`
	StartSlot int    `json:"startSlot"`
	Duration  int    `json:"duration"`
}

// ViolationBreakdown reports how many times a named constraint fired.
type ViolationBreakdown struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// ScheduleImprovementStats summarises the GA run that produced a proposal.
type ScheduleImprovementStats struct {
	GenerationsExecuted int  `json:"generationsExecuted"`
	Cancelled           bool `json:"cancelled"`
}

// GenerateScheduleResponse returns the built timetable proposal.
type GenerateScheduleResponse struct {
	ProposalID      string                   `json:"proposalId"`
	Fitness         float64                  `json:"fitness"`
	Slots           []ScheduleSlotProposal   `json:"slots"`
	HardViolations  []ViolationBreakdown     `json:"hardViolations"`
	SoftViolations  []ViolationBreakdown     `json:"softViolations"`
	Stats           ScheduleImprovementStats `json:"stats"`
}

// SaveScheduleRequest persists a proposal into semester schedules.
type SaveScheduleRequest struct {
	ProposalID    string `json:"proposalId" validate:"required"`
	CommitToDaily bool   `json:"commitToDaily"`
}

// SemesterScheduleQuery filters schedule summaries by class and term.
type SemesterScheduleQuery struct {
	TermID  string `form:"termId" json:"termId"`
	ClassID string `form:"classId" json:"classId"`
}

// GenerateJobStatus reports the progress of an asynchronously queued GA run.
type GenerateJobStatus struct {
	JobID  string                    `json:"jobId"`
	Status string                    `json:"status"` // pending, done, failed
	Result *GenerateScheduleResponse `json:"result,omitempty"`
	Error  string                    `json:"error,omitempty"`
}
