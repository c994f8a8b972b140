package tasks

import (
	"context"
	"encoding/json"

	"github.com/lysyi3m/press-digest/app/database"
	"github.com/lysyi3m/press-digest/app/news"
)

// TaskSchedulerInterface is what the application and the admin API use to
// drive background work.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	RefreshSearch(search database.Search) error
	SendDigest(subscriber database.Subscriber) error
}

// Refresher fetches a search from its source and stores the batch.
type Refresher interface {
	Refresh(ctx context.Context, search database.Search) ([]json.RawMessage, error)
}

// DigestBuilder curates the panels a subscriber receives.
type DigestBuilder interface {
	BuildFor(ctx context.Context, subscriber database.Subscriber) (*news.Digest, error)
}
