package handler

import (
	"net/http"
	"strconv"
	"strings"

	"lab-sample-intake/internal/service"
	"lab-sample-intake/pkg/utils"

	"github.com/gin-gonic/gin"
)

type COAHandler struct {
	coaService *service.COAService
}

func NewCOAHandler(coaService *service.COAService) *COAHandler {
	return &COAHandler{coaService: coaService}
}

func (h *COAHandler) GetCOA(c *gin.Context) {
	unitID, ok := parseID(c, "id")
	if !ok {
		return
	}
	coa, err := h.coaService.Get(unitID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, coa)
}

// GetBatch returns the COAs of ?unit_ids=1,2,3
func (h *COAHandler) GetBatch(c *gin.Context) {
	var ids []uint
	for _, part := range strings.Split(c.Query("unit_ids"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid unit_ids")
			return
		}
		ids = append(ids, uint(id))
	}

	coas, err := h.coaService.GetBatch(ids)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, coas)
}

func (h *COAHandler) CreateCOA(c *gin.Context) {
	unitID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.COARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	coa, err := h.coaService.Create(unitID, req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, coa)
}

func (h *COAHandler) UpdateCOA(c *gin.Context) {
	unitID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.COARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	coa, err := h.coaService.Update(unitID, req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, coa)
}

// ReopenCOA moves a finalized COA back to draft (admin only)
func (h *COAHandler) ReopenCOA(c *gin.Context) {
	unitID, ok := parseID(c, "id")
	if !ok {
		return
	}
	coa, err := h.coaService.Reopen(unitID, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, coa)
}

func (h *COAHandler) DeleteCOA(c *gin.Context) {
	unitID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.coaService.Delete(unitID, actor(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, "COA deleted")
}
