package api

import (
	"cmp"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/press-digest/app/database"
	"github.com/lysyi3m/press-digest/app/search"
)

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " parameter"})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return false
	}
	return true
}

// writeError maps repository errors onto responses.
func writeError(c *gin.Context, operation string, err error) {
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	slog.Error("Database error", "operation", operation, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
}

// Subscribers

func (h *Handler) APIListSubscribers(c *gin.Context) {
	subscribers, err := h.subscriberRepo.ListSubscribers()
	if err != nil {
		writeError(c, "list_subscribers", err)
		return
	}
	if subscribers == nil {
		subscribers = []database.Subscriber{}
	}

	c.JSON(http.StatusOK, gin.H{"subscribers": subscribers, "total": len(subscribers)})
}

func (h *Handler) APIGetSubscriber(c *gin.Context) {
	sub, err := h.subscriberRepo.GetSubscriber(c.Param("id"))
	if err != nil {
		writeError(c, "get_subscriber", err)
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscriber not found"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) APICreateSubscriber(c *gin.Context) {
	var req subscriberRequest
	if !bindJSON(c, &req) {
		return
	}

	existing, err := h.subscriberRepo.GetSubscriberByEmail(req.Email)
	if err != nil {
		writeError(c, "get_subscriber_by_email", err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Subscriber already exists", "id": existing.ID})
		return
	}

	sub, err := h.subscriberRepo.CreateSubscriber(database.Subscriber{
		Email:      req.Email,
		Name:       req.Name,
		CountryID:  req.CountryID,
		SectorID:   req.SectorID,
		ScheduleID: req.ScheduleID,
		Active:     req.Active == nil || *req.Active,
	})
	if err != nil {
		writeError(c, "create_subscriber", err)
		return
	}

	slog.Info("Subscriber created", "subscriber", sub.Email)
	c.JSON(http.StatusCreated, sub)
}

func (h *Handler) APIUpdateSubscriber(c *gin.Context) {
	var req subscriberRequest
	if !bindJSON(c, &req) {
		return
	}

	existing, err := h.subscriberRepo.GetSubscriber(c.Param("id"))
	if err != nil {
		writeError(c, "get_subscriber", err)
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscriber not found"})
		return
	}

	existing.Email = req.Email
	existing.Name = req.Name
	existing.CountryID = req.CountryID
	existing.SectorID = req.SectorID
	existing.ScheduleID = req.ScheduleID
	if req.Active != nil {
		existing.Active = *req.Active
	}

	if err := h.subscriberRepo.UpdateSubscriber(*existing); err != nil {
		writeError(c, "update_subscriber", err)
		return
	}
	c.JSON(http.StatusOK, existing)
}

func (h *Handler) APIDeleteSubscriber(c *gin.Context) {
	if err := h.subscriberRepo.DeleteSubscriber(c.Param("id")); err != nil {
		writeError(c, "delete_subscriber", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) APISendDigest(c *gin.Context) {
	sub, err := h.subscriberRepo.GetSubscriber(c.Param("id"))
	if err != nil {
		writeError(c, "get_subscriber", err)
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscriber not found"})
		return
	}

	if err := h.scheduler.SendDigest(*sub); err != nil {
		slog.Warn("Failed to enqueue digest", "subscriber", sub.Email, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to enqueue digest", "message": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Digest queued", "subscriber": sub.Email})
}

// Searches

func (h *Handler) APIListSearches(c *gin.Context) {
	searches, err := h.searchRepo.ListSearches()
	if err != nil {
		writeError(c, "list_searches", err)
		return
	}

	items := make([]map[string]interface{}, 0, len(searches))
	for _, s := range searches {
		item := map[string]interface{}{
			"search":  s,
			"managed": false,
		}
		if h.definitions != nil {
			if def, err := h.definitions.GetConfig(s.Name); err == nil {
				item["managed"] = true
				item["filters"] = len(def.Filters)
			}
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{"searches": items, "total": len(items)})
}

func (h *Handler) APIGetSearch(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	s, err := h.searchRepo.GetSearch(id)
	if err != nil {
		writeError(c, "get_search", err)
		return
	}
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Search not found"})
		return
	}
	c.JSON(http.StatusOK, s)
}

func (req searchRequest) toSearch() (database.Search, error) {
	s := database.Search{
		Name:            strings.TrimSpace(req.Name),
		Kind:            req.Kind,
		Source:          cmp.Or(req.Source, database.SearchSourceMedia),
		Query:           req.Query,
		URL:             req.URL,
		CountryCode:     strings.ToUpper(strings.TrimSpace(req.CountryCode)),
		RefreshInterval: cmp.Or(req.RefreshInterval, search.DefaultRefreshInterval),
		MaxItems:        cmp.Or(req.MaxItems, search.DefaultMaxItems),
		Enabled:         req.Enabled == nil || *req.Enabled,
	}

	if s.Source == database.SearchSourceMedia && s.Query == "" {
		return s, errors.New("query is required for media searches")
	}
	if s.Source == database.SearchSourceRSS && s.URL == "" {
		return s, errors.New("url is required for rss searches")
	}
	return s, nil
}

func (h *Handler) APICreateSearch(c *gin.Context) {
	var req searchRequest
	if !bindJSON(c, &req) {
		return
	}

	s, err := req.toSearch()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search", "message": err.Error()})
		return
	}

	existing, err := h.searchRepo.GetSearchByName(s.Name)
	if err != nil {
		writeError(c, "get_search_by_name", err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Search already exists", "id": existing.ID})
		return
	}

	id, err := h.searchRepo.CreateSearch(s)
	if err != nil {
		writeError(c, "create_search", err)
		return
	}
	s.ID = id

	c.JSON(http.StatusCreated, s)
}

func (h *Handler) APIUpdateSearch(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	var req searchRequest
	if !bindJSON(c, &req) {
		return
	}

	s, err := req.toSearch()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search", "message": err.Error()})
		return
	}
	s.ID = id

	if err := h.searchRepo.UpdateSearch(s); err != nil {
		writeError(c, "update_search", err)
		return
	}

	h.dropCachedBatch(c, id)

	c.JSON(http.StatusOK, s)
}

func (h *Handler) APIDeleteSearch(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	if err := h.searchRepo.DeleteSearch(id); err != nil {
		writeError(c, "delete_search", err)
		return
	}

	h.dropCachedBatch(c, id)

	c.Status(http.StatusNoContent)
}

func (h *Handler) APIRefreshSearch(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	s, err := h.searchRepo.GetSearch(id)
	if err != nil {
		writeError(c, "get_search", err)
		return
	}
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Search not found"})
		return
	}

	if err := h.scheduler.RefreshSearch(*s); err != nil {
		slog.Warn("Failed to enqueue refresh", "search", s.Name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to enqueue refresh", "message": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Refresh queued", "search": s.Name})
}

func (h *Handler) dropCachedBatch(c *gin.Context, id int64) {
	if h.cache == nil {
		return
	}
	if err := h.cache.DeleteBatch(c.Request.Context(), id); err != nil {
		slog.Warn("Failed to drop cached batch", "search_id", id, "error", err)
	}
}

// Schedules

func (h *Handler) APIListSchedules(c *gin.Context) {
	schedules, err := h.scheduleRepo.ListSchedules()
	if err != nil {
		writeError(c, "list_schedules", err)
		return
	}
	if schedules == nil {
		schedules = []database.Schedule{}
	}

	c.JSON(http.StatusOK, gin.H{"schedules": schedules, "total": len(schedules)})
}

func (req scheduleRequest) toSchedule() database.Schedule {
	return database.Schedule{
		Name:      strings.TrimSpace(req.Name),
		Frequency: req.Frequency,
		Hour:      req.Hour,
		Weekday:   req.Weekday,
		Enabled:   req.Enabled == nil || *req.Enabled,
	}
}

func (h *Handler) APICreateSchedule(c *gin.Context) {
	var req scheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	schedule := req.toSchedule()
	id, err := h.scheduleRepo.CreateSchedule(schedule)
	if err != nil {
		writeError(c, "create_schedule", err)
		return
	}
	schedule.ID = id

	c.JSON(http.StatusCreated, schedule)
}

func (h *Handler) APIUpdateSchedule(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	var req scheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	schedule := req.toSchedule()
	schedule.ID = id

	if err := h.scheduleRepo.UpdateSchedule(schedule); err != nil {
		writeError(c, "update_schedule", err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *Handler) APIDeleteSchedule(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	if err := h.scheduleRepo.DeleteSchedule(id); err != nil {
		writeError(c, "delete_schedule", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Default configuration

func (h *Handler) APIPutDefaultConfig(c *gin.Context) {
	var req defaultConfigRequest
	if !bindJSON(c, &req) {
		return
	}

	for _, id := range []int64{req.CountryID, req.SectorID} {
		s, err := h.searchRepo.GetSearch(id)
		if err != nil {
			writeError(c, "get_search", err)
			return
		}
		if s == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown search", "id": id})
			return
		}
	}

	config := database.DefaultConfig{
		CountryID:     req.CountryID,
		SectorID:      req.SectorID,
		SectorSize:    req.SectorSize,
		EditorialSize: req.EditorialSize,
		SocialSize:    req.SocialSize,
	}
	if err := h.settingsRepo.PutDefaultConfig(config); err != nil {
		writeError(c, "put_default_config", err)
		return
	}

	c.JSON(http.StatusOK, config)
}
