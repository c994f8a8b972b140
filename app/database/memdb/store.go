// Package memdb keeps every repository in process memory. Tests use it in
// place of PostgreSQL.
package memdb

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/press-digest/app/database"
)

type Store struct {
	mu          sync.Mutex
	nextID      int64
	searches    map[int64]database.Search
	subscribers map[string]database.Subscriber
	schedules   map[int64]database.Schedule
	defaults    *database.DefaultConfig
	batches     map[int64]database.Batch
}

var (
	_ database.SearchRepository     = (*Store)(nil)
	_ database.SubscriberRepository = (*Store)(nil)
	_ database.ScheduleRepository   = (*Store)(nil)
	_ database.SettingsRepository   = (*Store)(nil)
	_ database.BatchRepository      = (*Store)(nil)
)

func New() *Store {
	return &Store{
		searches:    make(map[int64]database.Search),
		subscribers: make(map[string]database.Subscriber),
		schedules:   make(map[int64]database.Schedule),
		batches:     make(map[int64]database.Batch),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Searches

func (s *Store) ListSearches() ([]database.Search, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]database.Search, 0, len(s.searches))
	for _, v := range s.searches {
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Kind != list[j].Kind {
			return list[i].Kind < list[j].Kind
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

func (s *Store) GetSearch(id int64) (*database.Search, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.searches[id]; ok {
		return &v, nil
	}
	return nil, nil
}

func (s *Store) GetSearchByName(name string) (*database.Search, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.searches {
		if v.Name == name {
			return &v, nil
		}
	}
	return nil, nil
}

func (s *Store) GetSearchCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.searches), nil
}

func (s *Store) GetSearchesDueForRefresh(now time.Time) ([]database.Search, error) {
	all, _ := s.ListSearches()

	var due []database.Search
	for _, v := range all {
		if v.Enabled && (v.NextFetchAt == nil || !v.NextFetchAt.After(now)) {
			due = append(due, v)
		}
	}
	return due, nil
}

func (s *Store) CreateSearch(search database.Search) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search.ID = s.id()
	search.CreatedAt = time.Now()
	search.UpdatedAt = search.CreatedAt
	s.searches[search.ID] = search
	return search.ID, nil
}

func (s *Store) UpsertSearch(search database.Search) (int64, error) {
	existing, _ := s.GetSearchByName(search.Name)
	if existing == nil {
		return s.CreateSearch(search)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	search.ID = existing.ID
	search.CreatedAt = existing.CreatedAt
	search.UpdatedAt = time.Now()
	search.LastFetchedAt = existing.LastFetchedAt
	if existing.Query == search.Query && existing.URL == search.URL {
		search.NextFetchAt = existing.NextFetchAt
	}
	s.searches[search.ID] = search
	return search.ID, nil
}

func (s *Store) UpdateSearch(search database.Search) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.searches[search.ID]
	if !ok {
		return database.ErrNotFound
	}
	search.CreatedAt = existing.CreatedAt
	search.LastFetchedAt = existing.LastFetchedAt
	search.NextFetchAt = existing.NextFetchAt
	search.UpdatedAt = time.Now()
	s.searches[search.ID] = search
	return nil
}

func (s *Store) DeleteSearch(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.searches[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.searches, id)
	delete(s.batches, id)
	return nil
}

func (s *Store) UpdateFetchTimes(id int64, fetchedAt time.Time, nextFetchAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.searches[id]
	if !ok {
		return database.ErrNotFound
	}
	v.LastFetchedAt = &fetchedAt
	v.NextFetchAt = &nextFetchAt
	s.searches[id] = v
	return nil
}

// Subscribers

func (s *Store) ListSubscribers() ([]database.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]database.Subscriber, 0, len(s.subscribers))
	for _, v := range s.subscribers {
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Email < list[j].Email })
	return list, nil
}

func (s *Store) ListActiveSubscribers() ([]database.Subscriber, error) {
	all, _ := s.ListSubscribers()

	var active []database.Subscriber
	for _, v := range all {
		if v.Active {
			active = append(active, v)
		}
	}
	return active, nil
}

func (s *Store) GetSubscriber(id string) (*database.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.subscribers[id]; ok {
		return &v, nil
	}
	return nil, nil
}

func (s *Store) GetSubscriberByEmail(email string) (*database.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, v := range s.subscribers {
		if v.Email == email {
			return &v, nil
		}
	}
	return nil, nil
}

func (s *Store) GetSubscriberCount() (int, error) {
	active, _ := s.ListActiveSubscribers()
	return len(active), nil
}

func (s *Store) CreateSubscriber(sub database.Subscriber) (*database.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub.ID = uuid.NewString()
	sub.Token = uuid.NewString()
	sub.Email = strings.ToLower(strings.TrimSpace(sub.Email))
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = sub.CreatedAt
	s.subscribers[sub.ID] = sub
	return &sub, nil
}

func (s *Store) UpdateSubscriber(sub database.Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.subscribers[sub.ID]
	if !ok {
		return database.ErrNotFound
	}
	sub.Token = existing.Token
	sub.LastSentAt = existing.LastSentAt
	sub.CreatedAt = existing.CreatedAt
	sub.UpdatedAt = time.Now()
	sub.Email = strings.ToLower(strings.TrimSpace(sub.Email))
	s.subscribers[sub.ID] = sub
	return nil
}

func (s *Store) DeleteSubscriber(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscribers[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.subscribers, id)
	return nil
}

func (s *Store) Unsubscribe(token string) (*database.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, v := range s.subscribers {
		if v.Token == token {
			v.Active = false
			s.subscribers[id] = v
			return &v, nil
		}
	}
	return nil, nil
}

func (s *Store) MarkSent(id string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.subscribers[id]
	if !ok {
		return nil
	}
	v.LastSentAt = &sentAt
	s.subscribers[id] = v
	return nil
}

// Schedules

func (s *Store) ListSchedules() ([]database.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]database.Schedule, 0, len(s.schedules))
	for _, v := range s.schedules {
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *Store) GetSchedule(id int64) (*database.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.schedules[id]; ok {
		return &v, nil
	}
	return nil, nil
}

func (s *Store) CreateSchedule(schedule database.Schedule) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule.ID = s.id()
	schedule.CreatedAt = time.Now()
	s.schedules[schedule.ID] = schedule
	return schedule.ID, nil
}

func (s *Store) UpdateSchedule(schedule database.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.schedules[schedule.ID]
	if !ok {
		return database.ErrNotFound
	}
	schedule.CreatedAt = existing.CreatedAt
	s.schedules[schedule.ID] = schedule
	return nil
}

func (s *Store) DeleteSchedule(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.schedules, id)
	return nil
}

// Settings

func (s *Store) GetDefaultConfig() (*database.DefaultConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.defaults == nil {
		return nil, nil
	}
	c := *s.defaults
	return &c, nil
}

func (s *Store) PutDefaultConfig(config database.DefaultConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.defaults = &config
	return nil
}

// Batches

func (s *Store) GetBatch(searchID int64) (*database.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.batches[searchID]; ok {
		return &v, nil
	}
	return nil, nil
}

func (s *Store) PutBatch(searchID int64, documents []json.RawMessage, fetchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches[searchID] = database.Batch{SearchID: searchID, Documents: documents, FetchedAt: fetchedAt}
	return nil
}
