package api

import (
	"context"
	"time"

	"github.com/lysyi3m/press-digest/app/cache"
	"github.com/lysyi3m/press-digest/app/curation"
	"github.com/lysyi3m/press-digest/app/database"
	"github.com/lysyi3m/press-digest/app/digest"
	"github.com/lysyi3m/press-digest/app/news"
	"github.com/lysyi3m/press-digest/app/search"
	"github.com/lysyi3m/press-digest/app/tasks"
)

type NewsService interface {
	Resolve(req news.Request) (*news.Resolved, error)
	FetchResolved(ctx context.Context, resolved news.Resolved) (*news.Result, error)
	Curate(result *news.Result) curation.Panels
}

var _ NewsService = (*news.Service)(nil)

type GeneratorInterface interface {
	Run(panel curation.Panel, identity string, articles []curation.Article) (string, error)
}

var _ GeneratorInterface = (*digest.Generator)(nil)

type Deps struct {
	News           NewsService
	Boards         *BoardRegistry
	Generator      GeneratorInterface
	Definitions    *search.ConfigCache
	SearchRepo     database.SearchRepository
	SubscriberRepo database.SubscriberRepository
	ScheduleRepo   database.ScheduleRepository
	SettingsRepo   database.SettingsRepository
	Cache          cache.BatchCache // optional
	Scheduler      tasks.TaskSchedulerInterface
	FetchTimeout   time.Duration // upper bound of one fetch inside a request
}

type Handler struct {
	news           NewsService
	boards         *BoardRegistry
	generator      GeneratorInterface
	definitions    *search.ConfigCache
	searchRepo     database.SearchRepository
	subscriberRepo database.SubscriberRepository
	scheduleRepo   database.ScheduleRepository
	settingsRepo   database.SettingsRepository
	cache          cache.BatchCache
	scheduler      tasks.TaskSchedulerInterface
	fetchTimeout   time.Duration
}

type subscriberRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Name       string `json:"name"`
	CountryID  *int64 `json:"country_id"`
	SectorID   *int64 `json:"sector_id"`
	ScheduleID *int64 `json:"schedule_id"`
	Active     *bool  `json:"active"`
}

type searchRequest struct {
	Name            string                `json:"name" binding:"required"`
	Kind            database.SearchKind   `json:"kind" binding:"required,oneof=country sector"`
	Source          database.SearchSource `json:"source" binding:"omitempty,oneof=media rss"`
	Query           string                `json:"query"`
	URL             string                `json:"url" binding:"omitempty,url"`
	CountryCode     string                `json:"country_code"`
	RefreshInterval int                   `json:"refresh_interval" binding:"gte=0"`
	MaxItems        int                   `json:"max_items" binding:"gte=0"`
	Enabled         *bool                 `json:"enabled"`
}

type scheduleRequest struct {
	Name      string             `json:"name" binding:"required"`
	Frequency database.Frequency `json:"frequency" binding:"required,oneof=daily weekly"`
	Hour      int                `json:"hour" binding:"gte=0,lte=23"`
	Weekday   int                `json:"weekday" binding:"gte=0,lte=6"`
	Enabled   *bool              `json:"enabled"`
}

type defaultConfigRequest struct {
	CountryID     int64 `json:"country_id" binding:"required,gt=0"`
	SectorID      int64 `json:"sector_id" binding:"required,gt=0"`
	SectorSize    int   `json:"sector_size" binding:"gte=0"`
	EditorialSize int   `json:"editorial_size" binding:"gte=0"`
	SocialSize    int   `json:"social_size" binding:"gte=0"`
}
