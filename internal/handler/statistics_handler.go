package handler

import (
	"net/http"
	"strconv"

	"lab-sample-intake/internal/service"
	"lab-sample-intake/pkg/utils"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService *service.StatisticsService
}

func NewStatisticsHandler(statisticsService *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

// statisticsQuery reads period, from, to and department_id
func statisticsQuery(c *gin.Context) (service.StatisticsQuery, bool) {
	q := service.StatisticsQuery{
		Period: c.Query("period"),
		From:   c.Query("from"),
		To:     c.Query("to"),
	}
	if v := c.Query("department_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid department_id")
			return q, false
		}
		q.DepartmentID = uint(id)
	}
	return q, true
}

// GetSampleStatistics reports samples received per interval
func (h *StatisticsHandler) GetSampleStatistics(c *gin.Context) {
	q, ok := statisticsQuery(c)
	if !ok {
		return
	}
	stats, err := h.statisticsService.Samples(q)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, stats)
}

// GetUnitStatistics reports per-department workload
func (h *StatisticsHandler) GetUnitStatistics(c *gin.Context) {
	q, ok := statisticsQuery(c)
	if !ok {
		return
	}
	stats, err := h.statisticsService.Units(q)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, stats)
}
