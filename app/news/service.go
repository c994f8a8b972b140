package news

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lysyi3m/press-digest/app/cache"
	"github.com/lysyi3m/press-digest/app/curation"
	"github.com/lysyi3m/press-digest/app/database"
	"github.com/lysyi3m/press-digest/app/retry"
	"github.com/lysyi3m/press-digest/app/search"
	"github.com/lysyi3m/press-digest/app/sources"
)

// SourceRegistry picks the upstream for a search.
type SourceRegistry interface {
	For(search database.Search) (sources.Source, error)
}

type Deps struct {
	Searches    database.SearchRepository
	Subscribers database.SubscriberRepository
	Settings    database.SettingsRepository
	Batches     database.BatchRepository
	Cache       cache.BatchCache // optional
	Sources     SourceRegistry
	Definitions *search.ConfigCache // optional; supplies per-search filters
	Curator     *curation.Curator
	CacheTTL    time.Duration
	PanelSize   int
	Retry       retry.Config
}

type Service struct {
	searches    database.SearchRepository
	subscribers database.SubscriberRepository
	settings    database.SettingsRepository
	batches     database.BatchRepository
	cache       cache.BatchCache
	sources     SourceRegistry
	definitions *search.ConfigCache
	filterer    *search.Filterer
	curator     *curation.Curator
	cacheTTL    time.Duration
	panelSize   int
	retry       retry.Config
	now         func() time.Time
}

func NewService(deps Deps) *Service {
	return &Service{
		searches:    deps.Searches,
		subscribers: deps.Subscribers,
		settings:    deps.Settings,
		batches:     deps.Batches,
		cache:       deps.Cache,
		sources:     deps.Sources,
		definitions: deps.Definitions,
		filterer:    search.NewFilterer(),
		curator:     deps.Curator,
		cacheTTL:    deps.CacheTTL,
		panelSize:   cmp.Or(deps.PanelSize, curation.DefaultPanelSize),
		retry:       deps.Retry,
		now:         time.Now,
	}
}

// Resolve settles which searches and panel sizes a request uses. Missing
// ids fall back to the default configuration.
func (s *Service) Resolve(req Request) (*Resolved, error) {
	defaults, err := s.settings.GetDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load default configuration: %w", err)
	}
	if defaults == nil {
		defaults = &database.DefaultConfig{}
	}

	resolved := &Resolved{
		Identity:  "default",
		CountryID: defaults.CountryID,
		SectorID:  defaults.SectorID,
		Sizes: curation.Sizes{
			Sector:    cmp.Or(defaults.SectorSize, s.panelSize),
			Editorial: cmp.Or(defaults.EditorialSize, s.panelSize),
			Social:    cmp.Or(defaults.SocialSize, s.panelSize),
		},
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	switch {
	case email != "":
		sub, err := s.subscribers.GetSubscriberByEmail(email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up subscriber: %w", err)
		}
		if sub == nil {
			return nil, ErrUnknownSubscriber
		}
		resolved.Identity = "email:" + email
		if sub.CountryID != nil {
			resolved.CountryID = *sub.CountryID
		}
		if sub.SectorID != nil {
			resolved.SectorID = *sub.SectorID
		}
	case req.CountryID != 0 || req.SectorID != 0:
		resolved.CountryID = cmp.Or(req.CountryID, resolved.CountryID)
		resolved.SectorID = cmp.Or(req.SectorID, resolved.SectorID)
		resolved.Identity = fmt.Sprintf("ids:%d/%d", resolved.CountryID, resolved.SectorID)
	}

	if resolved.CountryID == 0 || resolved.SectorID == 0 {
		return nil, ErrNoConfiguration
	}

	return resolved, nil
}

// Fetch resolves the request and loads both batches.
func (s *Service) Fetch(ctx context.Context, req Request) (*Result, error) {
	resolved, err := s.Resolve(req)
	if err != nil {
		return nil, err
	}
	return s.FetchResolved(ctx, *resolved)
}

func (s *Service) FetchResolved(ctx context.Context, resolved Resolved) (*Result, error) {
	country, countryDocs, err := s.loadSearch(ctx, resolved.CountryID)
	if err != nil {
		return nil, err
	}
	sector, sectorDocs, err := s.loadSearch(ctx, resolved.SectorID)
	if err != nil {
		return nil, err
	}

	return &Result{
		Resolved: resolved,
		Country:  country,
		Sector:   sector,
		Envelope: Envelope{Success: true, Pais: countryDocs, Sector: sectorDocs},
	}, nil
}

func (s *Service) loadSearch(ctx context.Context, id int64) (*database.Search, []json.RawMessage, error) {
	srch, err := s.searches.GetSearch(id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get search %d: %w", id, err)
	}
	if srch == nil {
		return nil, nil, fmt.Errorf("search %d: %w", id, database.ErrNotFound)
	}

	docs, err := s.LoadBatch(ctx, *srch)
	if err != nil {
		return nil, nil, err
	}
	return srch, docs, nil
}

// LoadBatch returns the latest documents of a search: cache first, then the
// stored batch, then a live fetch.
func (s *Service) LoadBatch(ctx context.Context, srch database.Search) ([]json.RawMessage, error) {
	if s.cache != nil {
		docs, ok, err := s.cache.GetBatch(ctx, srch.ID)
		if err != nil {
			slog.Warn("Batch cache read failed", "search", srch.Name, "error", err)
		} else if ok {
			slog.Debug("Batch cache hit", "search", srch.Name, "documents", len(docs))
			return docs, nil
		}
	}

	batch, err := s.batches.GetBatch(srch.ID)
	if err != nil {
		slog.Warn("Stored batch read failed", "search", srch.Name, "error", err)
	} else if batch != nil {
		s.cacheBatch(ctx, srch, batch.Documents)
		return batch.Documents, nil
	}

	return s.Refresh(ctx, srch)
}

// Refresh fetches a search from its source and stores the result.
func (s *Service) Refresh(ctx context.Context, srch database.Search) ([]json.RawMessage, error) {
	src, err := s.sources.For(srch)
	if err != nil {
		return nil, &FetchError{Search: srch.Name, Err: err}
	}

	var docs []json.RawMessage
	err = retry.Do(ctx, s.retry, func() error {
		var searchErr error
		docs, searchErr = src.Search(ctx, srch)
		if searchErr != nil {
			slog.Warn("Search attempt failed", "search", srch.Name, "error", searchErr)
		}
		return searchErr
	})
	if err != nil {
		return nil, &FetchError{Search: srch.Name, Err: err}
	}

	now := s.now()
	if err := s.batches.PutBatch(srch.ID, docs, now); err != nil {
		slog.Error("Failed to store batch", "search", srch.Name, "error", err)
	}

	interval := time.Duration(cmp.Or(srch.RefreshInterval, search.DefaultRefreshInterval)) * time.Second
	if err := s.searches.UpdateFetchTimes(srch.ID, now, now.Add(interval)); err != nil {
		slog.Error("Failed to update fetch times", "search", srch.Name, "error", err)
	}

	s.cacheBatch(ctx, srch, docs)

	slog.Info("Search refreshed", "search", srch.Name, "documents", len(docs))

	return docs, nil
}

func (s *Service) cacheBatch(ctx context.Context, srch database.Search, docs []json.RawMessage) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetBatch(ctx, srch.ID, docs, s.cacheTTL); err != nil {
		slog.Warn("Batch cache write failed", "search", srch.Name, "error", err)
	}
}

// Curate runs the curation pipeline over a fetched result.
func (s *Service) Curate(result *Result) curation.Panels {
	sector := s.articles(result.Sector, result.Envelope.Sector)
	country := s.articles(result.Country, result.Envelope.Pais)
	return s.curator.Curate(sector, country, result.Sizes)
}

// Build fetches and curates in one step.
func (s *Service) Build(ctx context.Context, req Request) (*Digest, error) {
	result, err := s.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Digest{Identity: result.Identity, Panels: s.Curate(result)}, nil
}

// BuildFor curates the digest of a stored subscriber.
func (s *Service) BuildFor(ctx context.Context, sub database.Subscriber) (*Digest, error) {
	return s.Build(ctx, Request{Email: sub.Email})
}

func (s *Service) articles(srch *database.Search, docs []json.RawMessage) []curation.Article {
	articles := curation.NormalizeAll(curation.DecodeDocuments(docs))
	if srch == nil || s.definitions == nil {
		return articles
	}

	filters := s.definitions.Filters(srch.Name)
	if len(filters) == 0 {
		return articles
	}

	kept := s.filterer.Run(articles, filters)
	slog.Debug("Search filters applied", "search", srch.Name, "before", len(articles), "after", len(kept))
	return kept
}
