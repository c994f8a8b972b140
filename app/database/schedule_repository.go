package database

import (
	"database/sql"
	"fmt"
)

type ScheduleRepo struct {
	db *DB
}

var _ ScheduleRepository = (*ScheduleRepo)(nil)

func NewScheduleRepository(db *DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

func (r *ScheduleRepo) ListSchedules() ([]Schedule, error) {
	rows, err := r.db.Query(`
		SELECT id, name, frequency, hour, weekday, enabled, created_at
		FROM schedules
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []Schedule
	for rows.Next() {
		var s Schedule
		if err := rows.Scan(&s.ID, &s.Name, &s.Frequency, &s.Hour, &s.Weekday, &s.Enabled, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		schedules = append(schedules, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule rows: %w", err)
	}

	return schedules, nil
}

func (r *ScheduleRepo) GetSchedule(id int64) (*Schedule, error) {
	var s Schedule
	err := r.db.QueryRow(`
		SELECT id, name, frequency, hour, weekday, enabled, created_at
		FROM schedules
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Frequency, &s.Hour, &s.Weekday, &s.Enabled, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &s, nil
}

func (r *ScheduleRepo) CreateSchedule(s Schedule) (int64, error) {
	var id int64
	err := r.db.QueryRow(`
		INSERT INTO schedules (name, frequency, hour, weekday, enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, s.Name, s.Frequency, s.Hour, s.Weekday, s.Enabled).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create schedule: %w", err)
	}
	return id, nil
}

func (r *ScheduleRepo) UpdateSchedule(s Schedule) error {
	res, err := r.db.Exec(`
		UPDATE schedules
		SET name = $2, frequency = $3, hour = $4, weekday = $5, enabled = $6
		WHERE id = $1
	`, s.ID, s.Name, s.Frequency, s.Hour, s.Weekday, s.Enabled)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	return expectRow(res)
}

func (r *ScheduleRepo) DeleteSchedule(id int64) error {
	res, err := r.db.Exec(`DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return expectRow(res)
}
