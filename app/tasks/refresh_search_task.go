package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/press-digest/app/database"
)

type RefreshSearchTask struct {
	Task
	Search    database.Search
	refresher Refresher
}

func NewRefreshSearchTask(search database.Search, refresher Refresher) *RefreshSearchTask {
	return &RefreshSearchTask{
		Task:      NewTask(TaskTypeRefreshSearch, search.Name),
		Search:    search,
		refresher: refresher,
	}
}

func (t *RefreshSearchTask) Execute(ctx context.Context) error {
	docs, err := t.refresher.Refresh(ctx, t.Search)
	if err != nil {
		return fmt.Errorf("failed to refresh search %s: %w", t.Search.Name, err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"search", t.Subject,
		"documents", len(docs),
		"duration", t.GetDuration())

	return nil
}
