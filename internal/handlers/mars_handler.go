package handlers

import (
	"net/http"

	"skystream/internal/logging"
	"skystream/internal/repository"
	"skystream/internal/response"
	"skystream/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultPhotosLimit = 25
	msgMarsInternal    = "An internal server error occurred while fetching Mars photos."
)

type MarsHandler struct {
	marsService service.MarsService
}

func NewMarsHandler(marsService service.MarsService) *MarsHandler {
	return &MarsHandler{marsService: marsService}
}

type photosQuery struct {
	Rover  string `form:"rover" binding:"omitempty,oneof=curiosity opportunity spirit perseverance"`
	Camera string `form:"camera" binding:"omitempty,max=50"`
	Sol    *int   `form:"sol" binding:"omitnil,min=0"`
	Limit  *int   `form:"limit" binding:"omitnil,min=1,max=100"`
	Page   *int   `form:"page" binding:"omitnil,min=1,max=100000"`
}

// GetPhotos godoc
// @Summary Снимки марсоходов
// @Description Все фильтры необязательны, сортировка по earth_date desc
// @Tags Mars
// @Produce json
// @Router /mars/photos [get]
func (h *MarsHandler) GetPhotos(c *gin.Context) {
	var query photosQuery
	if errs := bindQuery(c, &query, "sol", "limit", "page"); errs != nil {
		response.Error(c, http.StatusUnprocessableEntity, errs)
		return
	}

	filter := repository.MarsImageFilter{
		Rover:  query.Rover,
		Camera: query.Camera,
		Sol:    query.Sol,
	}
	page := repository.PageRequest{Page: intOr(query.Page, 1), Limit: intOr(query.Limit, defaultPhotosLimit)}

	items, total, err := h.marsService.ListPhotos(c.Request.Context(), filter, page)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to list Mars photos")
		response.Error(c, http.StatusInternalServerError, msgMarsInternal)
		return
	}

	response.OK(c, newPage(items, page.Page, page.Limit, total))
}
