package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arashi-labs/weft-scheduler/internal/models"
)

// TimeSlotRepository manages persistence for a term's time slot catalog.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository constructs a time slot repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// CatalogForTerm loads the full ordered slot grid for a term, ready to feed
// the scheduling core's SchedulingInput.
func (r *TimeSlotRepository) CatalogForTerm(ctx context.Context, termID string) (models.TimeSlotCatalog, error) {
	const query = `SELECT id, term_id, slot_id, day_index, ordinal, start_time, end_time, usable, lunch
FROM time_slots WHERE term_id = $1 ORDER BY ordinal ASC`
	var entries []models.TimeSlotCatalogEntry
	if err := r.db.SelectContext(ctx, &entries, query, termID); err != nil {
		return models.TimeSlotCatalog{}, fmt.Errorf("load time slot catalog: %w", err)
	}
	if len(entries) == 0 {
		return models.TimeSlotCatalog{TermID: termID}, nil
	}

	periodsPerDay := 0
	dayCount := 0
	for _, e := range entries {
		if e.DayIndex+1 > dayCount {
			dayCount = e.DayIndex + 1
		}
	}
	for _, e := range entries {
		if e.DayIndex == entries[0].DayIndex {
			periodsPerDay++
		}
	}

	return models.TimeSlotCatalog{
		TermID:        termID,
		PeriodsPerDay: periodsPerDay,
		DayCount:      dayCount,
		Entries:       entries,
	}, nil
}

// ReplaceCatalog atomically replaces the time slot catalog for a term.
func (r *TimeSlotRepository) ReplaceCatalog(ctx context.Context, termID string, entries []models.TimeSlotCatalogEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace time slot catalog: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM time_slots WHERE term_id = $1`, termID); err != nil {
		return fmt.Errorf("clear time slot catalog: %w", err)
	}

	for i := range entries {
		entry := entries[i]
		entry.TermID = termID
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		const insert = `INSERT INTO time_slots (id, term_id, slot_id, day_index, ordinal, start_time, end_time, usable, lunch)
			VALUES (:id, :term_id, :slot_id, :day_index, :ordinal, :start_time, :end_time, :usable, :lunch)`
		if _, err = sqlx.NamedExecContext(ctx, tx, insert, &entry); err != nil {
			return fmt.Errorf("insert time slot: %w", err)
		}
		entries[i] = entry
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace time slot catalog: %w", err)
	}
	return nil
}
