package database

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type SearchRepository interface {
	ListSearches() ([]Search, error)
	GetSearch(id int64) (*Search, error)
	GetSearchByName(name string) (*Search, error)
	GetSearchCount() (int, error)
	GetSearchesDueForRefresh(now time.Time) ([]Search, error)

	CreateSearch(search Search) (int64, error)
	UpsertSearch(search Search) (int64, error)
	UpdateSearch(search Search) error
	DeleteSearch(id int64) error
	UpdateFetchTimes(id int64, fetchedAt time.Time, nextFetchAt time.Time) error
}

type SubscriberRepository interface {
	ListSubscribers() ([]Subscriber, error)
	ListActiveSubscribers() ([]Subscriber, error)
	GetSubscriber(id string) (*Subscriber, error)
	GetSubscriberByEmail(email string) (*Subscriber, error)
	GetSubscriberCount() (int, error)

	CreateSubscriber(subscriber Subscriber) (*Subscriber, error)
	UpdateSubscriber(subscriber Subscriber) error
	DeleteSubscriber(id string) error
	Unsubscribe(token string) (*Subscriber, error)
	MarkSent(id string, sentAt time.Time) error
}

type ScheduleRepository interface {
	ListSchedules() ([]Schedule, error)
	GetSchedule(id int64) (*Schedule, error)

	CreateSchedule(schedule Schedule) (int64, error)
	UpdateSchedule(schedule Schedule) error
	DeleteSchedule(id int64) error
}

type SettingsRepository interface {
	GetDefaultConfig() (*DefaultConfig, error)
	PutDefaultConfig(config DefaultConfig) error
}

type BatchRepository interface {
	GetBatch(searchID int64) (*Batch, error)
	PutBatch(searchID int64, documents []json.RawMessage, fetchedAt time.Time) error
}
