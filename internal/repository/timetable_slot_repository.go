package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
)

const timetableSlotColumns = `id, timetable_id, section_id, course_id, course_code, instructor_id, room_id, day_of_week, start_slot, slot_count, start_time, end_time, sequence, shared, created_at`

// TimetableSlotRepository manages placed sessions of saved timetables.
type TimetableSlotRepository struct {
	db *sqlx.DB
}

// NewTimetableSlotRepository builds repository.
func NewTimetableSlotRepository(db *sqlx.DB) *TimetableSlotRepository {
	return &TimetableSlotRepository{db: db}
}

func (r *TimetableSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// InsertBatch writes every slot of a timetable. A shared session is stored once per attending section.
func (r *TimetableSlotRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error {
	if len(slots) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO timetable_slots (id, timetable_id, section_id, course_id, course_code, instructor_id, room_id, day_of_week, start_slot, slot_count, start_time, end_time, sequence, shared, created_at)
VALUES (:id, :timetable_id, :section_id, :course_id, :course_code, :instructor_id, :room_id, :day_of_week, :start_slot, :slot_count, :start_time, :end_time, :sequence, :shared, :created_at)`

	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, slot); err != nil {
			return fmt.Errorf("insert timetable slot: %w", err)
		}
	}
	return nil
}

// ListByTimetable returns slots ordered by day then start slot. A non-empty sectionID narrows the result.
func (r *TimetableSlotRepository) ListByTimetable(ctx context.Context, timetableID, sectionID string) ([]models.TimetableSlot, error) {
	query := `SELECT ` + timetableSlotColumns + ` FROM timetable_slots WHERE timetable_id = $1`
	args := []interface{}{timetableID}
	if sectionID != "" {
		query += ` AND section_id = $2`
		args = append(args, sectionID)
	}
	query += ` ORDER BY day_of_week ASC, start_slot ASC, section_id ASC`

	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable slots: %w", err)
	}
	return slots, nil
}
