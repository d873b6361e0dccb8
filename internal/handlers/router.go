package handlers

import (
	"net/http"
	"strings"
	"time"

	"skystream/internal/logging"
	"skystream/internal/middleware"
	"skystream/internal/response"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type RouterConfig struct {
	Debug       bool
	FrontendURL string
	// RateLimit <= 0 отключает ограничение по IP, GlobalRate <= 0 - общее
	RateLimit   int
	Burst       int
	GlobalRate  int
	GlobalBurst int
}

type Handlers struct {
	Mood    *MoodHandler
	Impact  *ImpactHandler
	Mars    *MarsHandler
	System  *SystemHandler
	Refresh *RefreshHandler
}

func NewRouter(config RouterConfig, h Handlers) *gin.Engine {
	registerFieldNames()

	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.Recovery())

	// CORS для фронтенда
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(config.FrontendURL),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Rate limiting (только для продакшена)
	if !config.Debug {
		if config.GlobalRate > 0 {
			r.Use(middleware.RateLimitMiddleware(rate.NewLimiter(rate.Limit(config.GlobalRate), config.GlobalBurst)))
		}
		if config.RateLimit > 0 {
			limiter := middleware.NewIPRateLimiter(rate.Limit(config.RateLimit), config.Burst)
			r.Use(middleware.IPRateLimitMiddleware(limiter))
		}
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "Not found.")
	})

	api := r.Group("/api")

	api.GET("/mood/:date", h.Mood.GetMood)
	api.GET("/capsule/birthday", h.Mood.GetCapsule)
	api.GET("/impact/nearby", h.Impact.GetNearby)
	api.GET("/impact/export", h.Impact.ExportNearby)
	api.GET("/mars/photos", h.Mars.GetPhotos)

	if h.System != nil {
		api.GET("/health", h.System.HealthCheck)
		api.GET("/system/stats", h.System.GetStats)
	}

	// Force refresh endpoints (для дебага)
	if config.Debug && h.Refresh != nil {
		api.POST("/refresh/apod", h.Refresh.RefreshAPOD)
		api.POST("/refresh/neo", h.Refresh.RefreshNEO)
		api.POST("/refresh/mars", h.Refresh.RefreshMars)
	}

	return r
}

const defaultFrontendOrigin = "http://localhost:3000"

// allowedOrigins добавляет FRONTEND_URL к локальному фронтенду. cors паникует
// на origin без схемы, поэтому такой адрес отбрасывается с предупреждением.
func allowedOrigins(frontendURL string) []string {
	origins := []string{defaultFrontendOrigin}

	frontendURL = strings.TrimRight(strings.TrimSpace(frontendURL), "/")
	switch {
	case frontendURL == "" || frontendURL == defaultFrontendOrigin:
	case strings.HasPrefix(frontendURL, "http://"), strings.HasPrefix(frontendURL, "https://"):
		origins = append(origins, frontendURL)
	default:
		logging.Warn().Str("frontend_url", frontendURL).Msg("FRONTEND_URL has no http:// or https:// scheme, ignoring it for CORS")
	}
	return origins
}
