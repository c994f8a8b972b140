package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/press-digest/app/database"
	"github.com/lysyi3m/press-digest/app/search"
)

type SyncSearchConfigTask struct {
	Task
	Definition *search.Definition
	searchRepo database.SearchRepository
}

func NewSyncSearchConfigTask(def *search.Definition, searchRepo database.SearchRepository) *SyncSearchConfigTask {
	return &SyncSearchConfigTask{
		Task:       NewTask(TaskTypeSyncSearchConfig, def.Name),
		Definition: def,
		searchRepo: searchRepo,
	}
}

func (t *SyncSearchConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	id, err := t.searchRepo.UpsertSearch(t.Definition.ToSearch())
	if err != nil {
		return fmt.Errorf("failed to sync search definition to database: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"search", t.Subject,
		"id", id,
		"duration", t.GetDuration())

	return nil
}
