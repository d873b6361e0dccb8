package handlers

import (
	"errors"
	"net/http"
	"time"

	"skystream/internal/logging"
	"skystream/internal/repository"
	"skystream/internal/response"
	"skystream/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	msgAPODNotFound    = "APOD data not found for the specified date."
	msgCapsuleNotFound = "Capsule data not found for the specified date. It may not have been processed yet."
	msgCapsuleInternal = "An internal server error occurred while generating the capsule."
)

// MoodHandler отдаёт сохранённые картинки дня: /mood/:date и капсулу дня рождения.
type MoodHandler struct {
	apodService service.APODService
	now         func() time.Time
}

func NewMoodHandler(apodService service.APODService) *MoodHandler {
	return &MoodHandler{apodService: apodService, now: time.Now}
}

// GetMood godoc
// @Summary Настроение картинки дня
// @Description date - "today" или YYYY-MM-DD
// @Tags Mood
// @Produce json
// @Router /mood/{date} [get]
func (h *MoodHandler) GetMood(c *gin.Context) {
	date := c.Param("date")
	if date == "today" {
		date = h.now().UTC().Format(dateLayout)
	} else if !validDate(date) {
		response.Error(c, http.StatusUnprocessableEntity, "The date field must match the format Y-m-d.")
		return
	}

	record, err := h.apodService.GetByDate(c.Request.Context(), date)
	if errors.Is(err, repository.ErrNotFound) {
		response.Error(c, http.StatusNotFound, msgAPODNotFound)
		return
	}
	if err != nil {
		logging.Error().Err(err).Str("date", date).Msg("Failed to load APOD mood")
		response.Error(c, http.StatusInternalServerError, response.MsgInternalError)
		return
	}

	response.OK(c, record)
}

type capsuleQuery struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

// GetCapsule godoc
// @Summary Космическая капсула на дату
// @Tags Capsule
// @Produce json
// @Router /capsule/birthday [get]
func (h *MoodHandler) GetCapsule(c *gin.Context) {
	var query capsuleQuery
	if errs := bindQuery(c, &query); errs != nil {
		response.Error(c, http.StatusUnprocessableEntity, errs)
		return
	}

	record, err := h.apodService.GetByDate(c.Request.Context(), query.Date)
	if errors.Is(err, repository.ErrNotFound) {
		response.Error(c, http.StatusNotFound, msgCapsuleNotFound)
		return
	}
	if err != nil {
		logging.Error().Err(err).Str("date", query.Date).Msg("Failed to build capsule")
		response.Error(c, http.StatusInternalServerError, msgCapsuleInternal)
		return
	}

	response.OK(c, gin.H{"apod": record})
}
