package scheduler

import "errors"

// Pre-run validation errors. These are fatal: the engine raises them before
// any evolution starts, never mid-run.
var (
	ErrInvalidLabConfig = errors.New("scheduler: lab subject requires blockSize >= 2 and requiredPeriodsPerWeek divisible by blockSize")
	ErrEmptyInput       = errors.New("scheduler: sections, subjects, rooms, and curriculum must all be non-empty")
	ErrNoUsableSlots    = errors.New("scheduler: usableSlots must be non-empty")
	ErrNoRoomOfAnyKind  = errors.New("scheduler: rooms must include at least one room of every kind a scheduled subject requires")
)
