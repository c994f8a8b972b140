package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SetMode puts gin in release mode unless debug logging is on.
func SetMode(debug bool) {
	if debug {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key, X-Client-ID")
		c.Header("Access-Control-Expose-Headers", "X-Client-ID, Retry-After")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.GetHealth)
	r.GET("/feeds/:panel", handler.GetPanelFeed)
	r.GET("/unsubscribe/:token", handler.Unsubscribe)

	public := r.Group("/api")
	{
		public.GET("/news", handler.GetNews)
		public.GET("/news/raw", handler.GetRawNews)
		public.POST("/news/:panel/more", handler.LoadMore)
		public.GET("/config/default", handler.GetDefaultConfig)
	}

	if apiAccessKey != "" {
		admin := r.Group("/api/admin")
		admin.Use(authMiddleware(apiAccessKey))
		{
			admin.GET("/subscribers", handler.APIListSubscribers)
			admin.GET("/subscribers/:id", handler.APIGetSubscriber)
			admin.POST("/subscribers", handler.APICreateSubscriber)
			admin.PUT("/subscribers/:id", handler.APIUpdateSubscriber)
			admin.DELETE("/subscribers/:id", handler.APIDeleteSubscriber)
			admin.POST("/subscribers/:id/send", handler.APISendDigest)

			admin.GET("/searches", handler.APIListSearches)
			admin.GET("/searches/:id", handler.APIGetSearch)
			admin.POST("/searches", handler.APICreateSearch)
			admin.PUT("/searches/:id", handler.APIUpdateSearch)
			admin.DELETE("/searches/:id", handler.APIDeleteSearch)
			admin.POST("/searches/:id/refresh", handler.APIRefreshSearch)

			admin.GET("/schedules", handler.APIListSchedules)
			admin.POST("/schedules", handler.APICreateSchedule)
			admin.PUT("/schedules/:id", handler.APIUpdateSchedule)
			admin.DELETE("/schedules/:id", handler.APIDeleteSchedule)

			admin.PUT("/config/default", handler.APIPutDefaultConfig)
		}
		slog.Info("Admin API endpoints enabled with authentication")
	} else {
		slog.Info("Admin API endpoints disabled (API_ACCESS_KEY not set)")
	}

	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"news":        "/api/news?email=&countryId=&sectorId=",
			"load_more":   "/api/news/<panel>/more (POST)",
			"raw":         "/api/news/raw",
			"default":     "/api/config/default",
			"feed":        "/feeds/<panel>",
			"health":      "/health",
			"unsubscribe": "/unsubscribe/<token>",
		}

		if apiAccessKey != "" {
			endpoints["admin"] = "/api/admin/{subscribers,searches,schedules,config/default} (requires X-API-Key header)"
		}

		c.JSON(http.StatusOK, gin.H{
			"service":     "Press Digest",
			"description": "Curated newsletter panels from media monitoring searches",
			"endpoints":   endpoints,
			"api_status": map[string]interface{}{
				"enabled":       apiAccessKey != "",
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// authMiddleware accepts the key in X-API-Key or as a bearer token.
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			return
		}

		if providedKey != apiAccessKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			return
		}

		c.Next()
	}
}
