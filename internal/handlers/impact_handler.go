package handlers

import (
	"fmt"
	"net/http"

	"skystream/internal/logging"
	"skystream/internal/repository"
	"skystream/internal/response"
	"skystream/internal/service"
	"skystream/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultNearbyLimit = 15
	msgImpactInternal  = "An internal server error occurred while fetching NEO data."
)

type ImpactHandler struct {
	neoService service.NEOService
}

func NewImpactHandler(neoService service.NEOService) *ImpactHandler {
	return &ImpactHandler{neoService: neoService}
}

type nearbyQuery struct {
	DateFrom string `form:"date_from" binding:"required,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
	Limit    *int   `form:"limit" binding:"omitnil,min=1,max=100"`
	Page     *int   `form:"page" binding:"omitnil,min=1,max=100000"`
}

// window возвращает окно дат; date_to по умолчанию равен date_from.
func (q nearbyQuery) window() (string, string, ValidationErrors) {
	to := q.DateTo
	if to == "" {
		to = q.DateFrom
	}
	// формат уже проверен, YYYY-MM-DD сравнивается как строка
	if to < q.DateFrom {
		errs := ValidationErrors{}
		errs.add("date_to", "The date to field must be a date after or equal to date from.")
		return "", "", errs
	}
	return q.DateFrom, to, nil
}

// GetNearby godoc
// @Summary Околоземные объекты в окне дат
// @Description Сортировка по расстоянию промаха, ближайшие первыми
// @Tags Impact
// @Produce json
// @Router /impact/nearby [get]
func (h *ImpactHandler) GetNearby(c *gin.Context) {
	var query nearbyQuery
	if errs := bindQuery(c, &query, "limit", "page"); errs != nil {
		response.Error(c, http.StatusUnprocessableEntity, errs)
		return
	}
	from, to, errs := query.window()
	if errs != nil {
		response.Error(c, http.StatusUnprocessableEntity, errs)
		return
	}

	page := repository.PageRequest{Page: intOr(query.Page, 1), Limit: intOr(query.Limit, defaultNearbyLimit)}
	items, total, err := h.neoService.ListNearby(c.Request.Context(), from, to, page)
	if err != nil {
		logging.Error().Err(err).Str("date_from", from).Str("date_to", to).Msg("Failed to list nearby objects")
		response.Error(c, http.StatusInternalServerError, msgImpactInternal)
		return
	}

	response.OK(c, newPage(items, page.Page, page.Limit, total))
}

// ExportNearby godoc
// @Summary XLSX-выгрузка околоземных объектов за окно дат
// @Tags Impact
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /impact/export [get]
func (h *ImpactHandler) ExportNearby(c *gin.Context) {
	var query nearbyQuery
	if errs := bindQuery(c, &query, "limit", "page"); errs != nil {
		response.Error(c, http.StatusUnprocessableEntity, errs)
		return
	}
	from, to, errs := query.window()
	if errs != nil {
		response.Error(c, http.StatusUnprocessableEntity, errs)
		return
	}

	items, err := h.neoService.ExportNearby(c.Request.Context(), from, to)
	if err != nil {
		logging.Error().Err(err).Str("date_from", from).Str("date_to", to).Msg("Failed to export nearby objects")
		response.Error(c, http.StatusInternalServerError, msgImpactInternal)
		return
	}

	c.Header("Content-Type", utils.XLSXContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="nearby_%s_%s.xlsx"`, from, to))
	if err := utils.WriteNEOWorkbook(c.Writer, items, from, to); err != nil {
		// заголовки уже могли уйти клиенту
		logging.Error().Err(err).Msg("Failed to write NEO workbook")
		c.Abort()
	}
}
