package database

import (
	"encoding/json"
	"time"
)

type SearchKind string

const (
	SearchKindCountry SearchKind = "country"
	SearchKindSector  SearchKind = "sector"
)

type SearchSource string

const (
	SearchSourceMedia SearchSource = "media"
	SearchSourceRSS   SearchSource = "rss"
)

type Search struct {
	ID              int64        `json:"id"`
	Name            string       `json:"name"`   // Unique; derived from the definition filename
	Kind            SearchKind   `json:"kind"`   // country or sector
	Source          SearchSource `json:"source"` // media API query or RSS/Atom URL
	Query           string       `json:"query,omitempty"`
	URL             string       `json:"url,omitempty"`
	CountryCode     string       `json:"country_code,omitempty"`
	RefreshInterval int          `json:"refresh_interval"` // seconds
	MaxItems        int          `json:"max_items"`
	Enabled         bool         `json:"enabled"`
	LastFetchedAt   *time.Time   `json:"last_fetched_at"`
	NextFetchAt     *time.Time   `json:"next_fetch_at"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type Subscriber struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	CountryID  *int64     `json:"country_id"`
	SectorID   *int64     `json:"sector_id"`
	ScheduleID *int64     `json:"schedule_id"`
	Token      string     `json:"token"` // Unsubscribe token
	Active     bool       `json:"active"`
	LastSentAt *time.Time `json:"last_sent_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

type Schedule struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Frequency Frequency `json:"frequency"`
	Hour      int       `json:"hour"`    // 0-23, local time
	Weekday   int       `json:"weekday"` // 0 = Sunday; weekly schedules only
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultConfig is what anonymous requests are curated with.
type DefaultConfig struct {
	CountryID     int64 `json:"country_id"`
	SectorID      int64 `json:"sector_id"`
	SectorSize    int   `json:"sector_size,omitempty"`
	EditorialSize int   `json:"editorial_size,omitempty"`
	SocialSize    int   `json:"social_size,omitempty"`
}

// Batch is the last fetched result set of a search, stored as the upstream
// documents so normalization always runs on current code.
type Batch struct {
	SearchID  int64
	Documents []json.RawMessage
	FetchedAt time.Time
}

// LastSlot returns the most recent delivery time of the schedule at or
// before now, in now's location.
func (s Schedule) LastSlot(now time.Time) time.Time {
	slot := time.Date(now.Year(), now.Month(), now.Day(), s.Hour, 0, 0, 0, now.Location())

	step := 1
	if s.Frequency == FrequencyWeekly {
		step = 7
		back := (int(now.Weekday()) - s.Weekday + 7) % 7
		slot = slot.AddDate(0, 0, -back)
	}

	if slot.After(now) {
		slot = slot.AddDate(0, 0, -step)
	}
	return slot
}

// Due reports whether a digest should go out: nothing was sent since the
// last slot. Subscribers who never received one are due immediately.
func (s Schedule) Due(now time.Time, lastSent *time.Time) bool {
	if !s.Enabled {
		return false
	}
	if lastSent == nil {
		return true
	}
	return lastSent.Before(s.LastSlot(now))
}
