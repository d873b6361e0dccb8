package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"skystream/internal/logging"
	"skystream/internal/response"
	"skystream/internal/service"
	redispkg "skystream/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// WorkerFlags - какие фоновые задачи включены, для /system/stats.
type WorkerFlags struct {
	APOD bool `json:"apod_enabled"`
	NEO  bool `json:"neo_enabled"`
	Mars bool `json:"mars_enabled"`
}

type SystemHandler struct {
	db           *gorm.DB
	redisClient  *redis.Client
	statsService service.StatsService
	workers      WorkerFlags
	startedAt    time.Time
}

// NewSystemHandler - redisClient может быть nil, если кэш не в Redis.
func NewSystemHandler(db *gorm.DB, redisClient *redis.Client, statsService service.StatsService, workers WorkerFlags) *SystemHandler {
	return &SystemHandler{
		db:           db,
		redisClient:  redisClient,
		statsService: statsService,
		workers:      workers,
		startedAt:    time.Now().UTC(),
	}
}

// HealthCheck godoc
// @Summary Проверка здоровья сервиса
// @Description Проверяет доступность базы данных и Redis
// @Tags System
// @Produce json
// @Router /health [get]
func (h *SystemHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	services := gin.H{"database": "connected"}
	healthy := true

	if err := h.pingDB(ctx); err != nil {
		logging.Warn().Err(err).Msg("Health check: database unavailable")
		services["database"] = "unavailable"
		healthy = false
	}

	if h.redisClient == nil {
		services["redis"] = "disabled"
	} else if err := h.redisClient.Ping(ctx).Err(); err != nil {
		logging.Warn().Err(err).Msg("Health check: redis unavailable")
		services["redis"] = "unavailable"
		healthy = false
	} else {
		services["redis"] = "connected"
	}

	data := gin.H{
		"services":  services,
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, response.Response{Status: response.StatusError, Message: "Service is degraded.", Data: data})
		return
	}
	response.OK(c, data)
}

func (h *SystemHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// GetStats godoc
// @Summary Системная статистика
// @Tags System
// @Produce json
// @Router /system/stats [get]
func (h *SystemHandler) GetStats(c *gin.Context) {
	stats, err := h.statsService.Stats(c.Request.Context())
	if err != nil {
		logging.Error().Err(err).Msg("Failed to collect stats")
		response.Error(c, http.StatusInternalServerError, response.MsgInternalError)
		return
	}

	data := gin.H{
		"database": stats,
		"workers":  h.workers,
	}

	if h.redisClient != nil {
		// Статистика из Redis
		redisStats, err := redispkg.GetStats(h.redisClient)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to get redis stats")
		} else {
			data["redis"] = redisStats
		}
	}

	response.OK(c, data)
}

// RefreshHandler - ручной запуск загрузок (только в DEBUG), удобно для бэкфилла.
type RefreshHandler struct {
	apodService service.APODService
	neoService  service.NEOService
	marsService service.MarsService
	enqueueMars service.EnqueueFunc
}

func NewRefreshHandler(apodService service.APODService, neoService service.NEOService, marsService service.MarsService, enqueueMars service.EnqueueFunc) *RefreshHandler {
	return &RefreshHandler{
		apodService: apodService,
		neoService:  neoService,
		marsService: marsService,
		enqueueMars: enqueueMars,
	}
}

func (h *RefreshHandler) RefreshAPOD(c *gin.Context) {
	date := c.Query("date")
	if date != "" && !validDate(date) {
		response.Error(c, http.StatusUnprocessableEntity, ValidationErrors{"date": {"The date field must match the format Y-m-d."}})
		return
	}

	summary, err := h.apodService.Ingest(c.Request.Context(), date)
	h.respondSummary(c, summary, err)
}

func (h *RefreshHandler) RefreshNEO(c *gin.Context) {
	summary, err := h.neoService.Ingest(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if errors.Is(err, service.ErrInvalidWindow) {
		response.Error(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.respondSummary(c, summary, err)
}

// RefreshMars без параметров ставит задачи по манифестам, с rover и sol
// загружает указанный sol сразу.
func (h *RefreshHandler) RefreshMars(c *gin.Context) {
	rover := c.Query("rover")
	solRaw := c.Query("sol")

	if rover == "" && solRaw == "" {
		dispatched, err := h.marsService.DispatchAll(c.Request.Context(), h.enqueueMars)
		if err != nil {
			logging.Error().Err(err).Msg("Manual Mars dispatch failed")
			response.Error(c, http.StatusInternalServerError, response.MsgInternalError)
			return
		}
		response.OK(c, gin.H{"dispatched": dispatched})
		return
	}

	sol, err := strconv.Atoi(solRaw)
	if rover == "" || err != nil || sol < 0 {
		response.Error(c, http.StatusUnprocessableEntity, "Both rover and a non-negative integer sol are required.")
		return
	}

	summary, err := h.marsService.Ingest(c.Request.Context(), rover, sol)
	h.respondSummary(c, summary, err)
}

func (h *RefreshHandler) respondSummary(c *gin.Context, summary service.Summary, err error) {
	if err != nil {
		logging.Error().Err(err).Str("job", summary.Job).Str("target", summary.Target).Msg("Manual refresh failed")
		response.Error(c, http.StatusInternalServerError, response.MsgInternalError)
		return
	}
	response.OK(c, summary)
}
