package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SubscriberRepo struct {
	db *DB
}

var _ SubscriberRepository = (*SubscriberRepo)(nil)

func NewSubscriberRepository(db *DB) *SubscriberRepo {
	return &SubscriberRepo{db: db}
}

const subscriberColumns = `id, email, name, country_id, sector_id, schedule_id, token, active,
	last_sent_at, created_at, updated_at`

func scanSubscriber(row rowScanner) (*Subscriber, error) {
	var s Subscriber
	var countryID, sectorID, scheduleID sql.NullInt64
	var lastSent sql.NullTime

	err := row.Scan(&s.ID, &s.Email, &s.Name, &countryID, &sectorID, &scheduleID, &s.Token,
		&s.Active, &lastSent, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	s.CountryID = nullInt(countryID)
	s.SectorID = nullInt(sectorID)
	s.ScheduleID = nullInt(scheduleID)
	if lastSent.Valid {
		s.LastSentAt = &lastSent.Time
	}
	return &s, nil
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func (r *SubscriberRepo) querySubscribers(query string, args ...any) ([]Subscriber, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subscribers []Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber row: %w", err)
		}
		subscribers = append(subscribers, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriber rows: %w", err)
	}

	return subscribers, nil
}

func (r *SubscriberRepo) ListSubscribers() ([]Subscriber, error) {
	subscribers, err := r.querySubscribers(`SELECT ` + subscriberColumns + ` FROM subscribers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	return subscribers, nil
}

func (r *SubscriberRepo) ListActiveSubscribers() ([]Subscriber, error) {
	subscribers, err := r.querySubscribers(`
		SELECT ` + subscriberColumns + `
		FROM subscribers
		WHERE active = true AND schedule_id IS NOT NULL
		ORDER BY COALESCE(last_sent_at, '1970-01-01'::timestamptz)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscribers: %w", err)
	}
	return subscribers, nil
}

func (r *SubscriberRepo) GetSubscriber(id string) (*Subscriber, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	s, err := scanSubscriber(r.db.QueryRow(`SELECT `+subscriberColumns+` FROM subscribers WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}
	return s, nil
}

func (r *SubscriberRepo) GetSubscriberByEmail(email string) (*Subscriber, error) {
	s, err := scanSubscriber(r.db.QueryRow(`SELECT `+subscriberColumns+` FROM subscribers WHERE email = $1`,
		normalizeEmail(email)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber by email: %w", err)
	}
	return s, nil
}

func (r *SubscriberRepo) GetSubscriberCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM subscribers WHERE active = true`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}
	return count, nil
}

// CreateSubscriber assigns a fresh id and unsubscribe token.
func (r *SubscriberRepo) CreateSubscriber(s Subscriber) (*Subscriber, error) {
	s.ID = uuid.NewString()
	s.Token = uuid.NewString()
	s.Email = normalizeEmail(s.Email)

	err := r.db.QueryRow(`
		INSERT INTO subscribers (id, email, name, country_id, sector_id, schedule_id, token, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, s.ID, s.Email, s.Name, s.CountryID, s.SectorID, s.ScheduleID, s.Token, s.Active).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscriber: %w", err)
	}
	return &s, nil
}

func (r *SubscriberRepo) UpdateSubscriber(s Subscriber) error {
	res, err := r.db.Exec(`
		UPDATE subscribers
		SET email = $2, name = $3, country_id = $4, sector_id = $5, schedule_id = $6,
		    active = $7, updated_at = NOW()
		WHERE id = $1
	`, s.ID, normalizeEmail(s.Email), s.Name, s.CountryID, s.SectorID, s.ScheduleID, s.Active)
	if err != nil {
		return fmt.Errorf("failed to update subscriber: %w", err)
	}
	return expectRow(res)
}

func (r *SubscriberRepo) DeleteSubscriber(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.db.Exec(`DELETE FROM subscribers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subscriber: %w", err)
	}
	return expectRow(res)
}

// Unsubscribe deactivates the subscriber owning token. Returns nil, nil for
// unknown tokens.
func (r *SubscriberRepo) Unsubscribe(token string) (*Subscriber, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, nil
	}

	s, err := scanSubscriber(r.db.QueryRow(`
		UPDATE subscribers
		SET active = false, updated_at = NOW()
		WHERE token = $1
		RETURNING `+subscriberColumns, token))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return s, nil
}

func (r *SubscriberRepo) MarkSent(id string, sentAt time.Time) error {
	_, err := r.db.Exec(`UPDATE subscribers SET last_sent_at = $2, updated_at = NOW() WHERE id = $1`, id, sentAt)
	if err != nil {
		return fmt.Errorf("failed to mark subscriber sent: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
