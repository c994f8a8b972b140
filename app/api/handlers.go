package api

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lysyi3m/press-digest/app/curation"
	"github.com/lysyi3m/press-digest/app/database"
	"github.com/lysyi3m/press-digest/app/news"
)

const (
	clientIDHeader      = "X-Client-ID"
	DefaultFetchTimeout = 45 * time.Second
)

func NewHandler(deps Deps) *Handler {
	return &Handler{
		news:           deps.News,
		boards:         deps.Boards,
		generator:      deps.Generator,
		definitions:    deps.Definitions,
		searchRepo:     deps.SearchRepo,
		subscriberRepo: deps.SubscriberRepo,
		scheduleRepo:   deps.ScheduleRepo,
		settingsRepo:   deps.SettingsRepo,
		cache:          deps.Cache,
		scheduler:      deps.Scheduler,
		fetchTimeout:   cmp.Or(deps.FetchTimeout, DefaultFetchTimeout),
	}
}

// issueClientID returns the caller's board id. Requests without one get a
// fresh id, echoed in the response header, so they never share a board.
func issueClientID(c *gin.Context) string {
	if id := c.GetHeader(clientIDHeader); id != "" {
		return id
	}
	id := uuid.NewString()
	c.Header(clientIDHeader, id)
	return id
}

func parseNewsRequest(c *gin.Context) (news.Request, bool) {
	req := news.Request{Email: c.Query("email")}

	for param, dst := range map[string]*int64{"countryId": &req.CountryID, "sectorId": &req.SectorID} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, news.FailureEnvelope(errors.New("invalid "+param)))
			return req, false
		}
		*dst = v
	}

	return req, true
}

// resolve maps resolution errors to responses; it reports false when a
// response was written.
func (h *Handler) resolve(c *gin.Context, req news.Request) (*news.Resolved, bool) {
	resolved, err := h.news.Resolve(req)
	switch {
	case err == nil:
		return resolved, true
	case errors.Is(err, news.ErrUnknownSubscriber), errors.Is(err, news.ErrNoConfiguration):
		c.JSON(http.StatusNotFound, news.FailureEnvelope(err))
	default:
		slog.Error("Failed to resolve news request", "email", req.Email, "error", err)
		c.JSON(http.StatusInternalServerError, news.FailureEnvelope(errors.New("internal error")))
	}
	return nil, false
}

// fetch is bounded by fetchTimeout so the answer is written before the
// server's write timeout closes the connection.
func (h *Handler) fetch(c *gin.Context, resolved news.Resolved) (*news.Result, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.fetchTimeout)
	defer cancel()

	result, err := h.news.FetchResolved(ctx, resolved)
	if err == nil {
		return result, true
	}

	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, news.FailureEnvelope(err))
		return nil, false
	}

	slog.Error("Failed to fetch news", "identity", resolved.Identity, "error", err)
	c.Header("Retry-After", "30")
	c.JSON(http.StatusBadGateway, news.FailureEnvelope(err))
	return nil, false
}

// GetNews fetches and curates the requested batches and commits them to the
// caller's board.
func (h *Handler) GetNews(c *gin.Context) {
	req, ok := parseNewsRequest(c)
	if !ok {
		return
	}

	resolved, ok := h.resolve(c, req)
	if !ok {
		return
	}

	board := h.boards.Get(issueClientID(c))
	ticket := board.Begin(resolved.Identity)

	result, ok := h.fetch(c, *resolved)
	if !ok {
		return
	}

	if err := board.Commit(ticket, h.news.Curate(result)); err != nil {
		if errors.Is(err, curation.ErrStaleRequest) {
			c.JSON(http.StatusConflict, news.FailureEnvelope(errors.New("superseded by a newer request")))
			return
		}
		slog.Error("Failed to commit curation", "identity", resolved.Identity, "error", err)
		c.JSON(http.StatusInternalServerError, news.FailureEnvelope(errors.New("internal error")))
		return
	}

	view := board.View()
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"identity": view.Identity,
		"panels":   view.Panels,
	})
}

// GetRawNews serves the fetch envelope without curation.
func (h *Handler) GetRawNews(c *gin.Context) {
	req, ok := parseNewsRequest(c)
	if !ok {
		return
	}

	resolved, ok := h.resolve(c, req)
	if !ok {
		return
	}

	result, ok := h.fetch(c, *resolved)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, result.Envelope)
}

func (h *Handler) LoadMore(c *gin.Context) {
	panel, ok := curation.ParsePanel(c.Param("panel"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": curation.ErrUnknownPanel.Error()})
		return
	}

	clientID := c.GetHeader(clientIDHeader)
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": clientIDHeader + " header required"})
		return
	}

	view, err := h.boards.Get(clientID).LoadMore(panel)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "panel": view})
}

func (h *Handler) GetDefaultConfig(c *gin.Context) {
	config, err := h.settingsRepo.GetDefaultConfig()
	if err != nil {
		slog.Error("Database error", "operation", "get_default_config", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if config == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Default configuration not set"})
		return
	}

	c.JSON(http.StatusOK, config)
}

// GetPanelFeed renders one curated panel as RSS.
func (h *Handler) GetPanelFeed(c *gin.Context) {
	panel, ok := curation.ParsePanel(c.Param("panel"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	req, ok := parseNewsRequest(c)
	if !ok {
		return
	}

	resolved, ok := h.resolve(c, req)
	if !ok {
		return
	}

	result, ok := h.fetch(c, *resolved)
	if !ok {
		return
	}

	articles := h.news.Curate(result).Get(panel).Articles

	rss, err := h.generator.Run(panel, resolved.Identity, articles)
	if err != nil {
		slog.Error("RSS generation error", "panel", panel, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(articles)))
	c.Header("X-Feed-Panel", string(panel))

	c.String(http.StatusOK, rss)
}

func (h *Handler) Unsubscribe(c *gin.Context) {
	sub, err := h.subscriberRepo.Unsubscribe(c.Param("token"))
	if err != nil {
		slog.Error("Database error", "operation", "unsubscribe", "error", err)
		c.String(http.StatusInternalServerError, "No se pudo procesar la solicitud.")
		return
	}
	if sub == nil {
		c.String(http.StatusNotFound, "Enlace de baja no válido.")
		return
	}

	slog.Info("Subscriber unsubscribed", "subscriber", sub.Email)
	c.String(http.StatusOK, "Has cancelado tu suscripción a Press Digest.")
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"boards":    h.boards.Len(),
	}

	if count, err := h.searchRepo.GetSearchCount(); err == nil {
		health["searches"] = count
	} else {
		health["status"] = "degraded"
		health["database_error"] = err.Error()
	}

	if count, err := h.subscriberRepo.GetSubscriberCount(); err == nil {
		health["subscribers"] = count
	}

	if h.definitions != nil {
		health["loaded_definitions"] = h.definitions.GetConfigCount()
	}

	if h.cache != nil {
		cacheHealth := h.cache.Health(c.Request.Context())
		health["cache"] = cacheHealth
		if cacheHealth["status"] != "healthy" {
			health["status"] = "degraded"
		}
	}

	c.JSON(http.StatusOK, health)
}
