package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/press-digest/app/database"
	"github.com/lysyi3m/press-digest/app/digest"
	"github.com/lysyi3m/press-digest/app/search"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Deps struct {
	Definitions    *search.ConfigCache
	SearchRepo     database.SearchRepository
	SubscriberRepo database.SubscriberRepository
	ScheduleRepo   database.ScheduleRepository
	Refresher      Refresher
	Builder        DigestBuilder
	Renderer       *digest.Renderer
	Mailer         digest.Mailer // nil disables digests
}

type Scheduler struct {
	definitions    *search.ConfigCache
	searchRepo     database.SearchRepository
	subscriberRepo database.SubscriberRepository
	scheduleRepo   database.ScheduleRepository
	refresher      Refresher
	builder        DigestBuilder
	renderer       *digest.Renderer
	mailer         digest.Mailer
	interval       time.Duration
	workerCount    int
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	taskQueue      chan TaskInterface
	now            func() time.Time

	// pending holds the keys of queued or running tasks so a slow refresh is
	// not queued again on every tick.
	pendingMu sync.Mutex
	pending   map[string]bool
}

func NewScheduler(deps Deps, interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		definitions:    deps.Definitions,
		searchRepo:     deps.SearchRepo,
		subscriberRepo: deps.SubscriberRepo,
		scheduleRepo:   deps.ScheduleRepo,
		refresher:      deps.Refresher,
		builder:        deps.Builder,
		renderer:       deps.Renderer,
		mailer:         deps.Mailer,
		interval:       interval,
		workerCount:    workerCount,
		ctx:            ctx,
		cancel:         cancel,
		taskQueue:      make(chan TaskInterface, 300),
		now:            time.Now,
		pending:        make(map[string]bool),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

// Stop cancels the workers and waits for them. The queue stays open so that
// late retries fail on the cancelled context instead of a closed channel.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueOnce queues a task unless one with the same type and subject is
// already queued or running.
func (s *Scheduler) enqueueOnce(task TaskInterface) error {
	key := taskKey(task)

	s.pendingMu.Lock()
	if s.pending[key] {
		s.pendingMu.Unlock()
		slog.Debug("Task already pending, skipping", "type", string(task.GetType()), "subject", task.GetSubject())
		return nil
	}
	s.pending[key] = true
	s.pendingMu.Unlock()

	if err := s.EnqueueTask(task); err != nil {
		s.release(task)
		return err
	}
	return nil
}

func (s *Scheduler) release(task TaskInterface) {
	s.pendingMu.Lock()
	delete(s.pending, taskKey(task))
	s.pendingMu.Unlock()
}

func (s *Scheduler) RefreshSearch(search database.Search) error {
	return s.enqueueOnce(NewRefreshSearchTask(search, s.refresher))
}

func (s *Scheduler) SendDigest(subscriber database.Subscriber) error {
	if s.mailer == nil {
		return fmt.Errorf("mail delivery is not configured")
	}
	return s.enqueueOnce(NewSendDigestTask(subscriber, s.builder, s.renderer, s.mailer, s.subscriberRepo))
}

func (s *Scheduler) enqueueStartupTasks() {
	if s.definitions == nil {
		return
	}

	definitions := s.definitions.GetConfigs()
	if len(definitions) == 0 {
		slog.Debug("No search definitions found")
		return
	}

	slog.Debug("Syncing search definitions", "count", len(definitions))

	for _, def := range definitions {
		if err := s.enqueueOnce(NewSyncSearchConfigTask(def, s.searchRepo)); err != nil {
			slog.Warn("Failed to enqueue SyncSearchConfigTask", "search", def.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	now := s.now()
	s.enqueueRefreshes(now)
	s.enqueueDigests(now)
}

func (s *Scheduler) enqueueRefreshes(now time.Time) {
	searches, err := s.searchRepo.GetSearchesDueForRefresh(now)
	if err != nil {
		slog.Error("Failed to get searches due for refresh", "error", err)
		return
	}

	for _, srch := range searches {
		if err := s.RefreshSearch(srch); err != nil {
			slog.Warn("Failed to enqueue RefreshSearchTask", "search", srch.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueDigests(now time.Time) {
	if s.mailer == nil {
		return
	}

	schedules, err := s.scheduleRepo.ListSchedules()
	if err != nil {
		slog.Error("Failed to list schedules", "error", err)
		return
	}

	byID := make(map[int64]database.Schedule, len(schedules))
	for _, schedule := range schedules {
		byID[schedule.ID] = schedule
	}

	subscribers, err := s.subscriberRepo.ListActiveSubscribers()
	if err != nil {
		slog.Error("Failed to list subscribers", "error", err)
		return
	}

	for _, sub := range subscribers {
		if sub.ScheduleID == nil {
			continue
		}
		schedule, ok := byID[*sub.ScheduleID]
		if !ok || !schedule.Due(now, sub.LastSentAt) {
			continue
		}

		if err := s.SendDigest(sub); err != nil {
			slog.Warn("Failed to enqueue SendDigestTask", "subscriber", sub.Email, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		s.release(task)
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		s.release(task)
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			s.release(task)
		case <-time.After(retryDelay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				s.release(task)
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

// retryDelay doubles from one second and is capped at 30 seconds.
func retryDelay(retryCount int) time.Duration {
	if retryCount > 5 {
		return 30 * time.Second
	}
	delay := time.Duration(1<<uint(max(retryCount-1, 0))) * time.Second
	return min(delay, 30*time.Second)
}
