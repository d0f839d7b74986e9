package handler

import (
	"net/http"
	"strconv"

	"lab-sample-intake/internal/repository"
	"lab-sample-intake/internal/service"
	"lab-sample-intake/pkg/utils"

	"github.com/gin-gonic/gin"
)

type SampleHandler struct {
	sampleService      *service.SampleService
	reservationService *service.ReservationService
}

func NewSampleHandler(sampleService *service.SampleService, reservationService *service.ReservationService) *SampleHandler {
	return &SampleHandler{
		sampleService:      sampleService,
		reservationService: reservationService,
	}
}

// PreviewCodes reserves the caller's next sample code and previews unit numbers
func (h *SampleHandler) PreviewCodes(c *gin.Context) {
	preview, err := h.reservationService.Preview(c.GetUint("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, preview)
}

// CreateSample validates and saves a sample with all its units
func (h *SampleHandler) CreateSample(c *gin.Context) {
	var req service.SampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sample, err := h.sampleService.Create(req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, sample)
}

// UpdateSample replaces the fields and units of a saved sample
func (h *SampleHandler) UpdateSample(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.SampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sample, err := h.sampleService.Update(id, req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, sample)
}

func (h *SampleHandler) GetSample(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	sample, err := h.sampleService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, sample)
}

// ListSamples supports department_id, year, search, limit and offset
func (h *SampleHandler) ListSamples(c *gin.Context) {
	filter := repository.SampleFilter{Search: c.Query("search")}
	for name, dst := range map[string]*int{"year": &filter.Year, "limit": &filter.Limit, "offset": &filter.Offset} {
		if v := c.Query(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				utils.ErrorResponse(c, http.StatusBadRequest, "Invalid "+name)
				return
			}
			*dst = n
		}
	}
	if v := c.Query("department_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid department_id")
			return
		}
		filter.DepartmentID = uint(id)
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}

	list, err := h.sampleService.List(filter)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, list)
}

func (h *SampleHandler) GetHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	history, err := h.sampleService.History(id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"history": history,
		"count":   len(history),
	})
}

func (h *SampleHandler) GetYears(c *gin.Context) {
	years, err := h.sampleService.Years()
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"years": years})
}
