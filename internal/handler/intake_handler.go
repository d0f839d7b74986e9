package handler

import (
	"net/http"

	"lab-sample-intake/internal/intake"
	"lab-sample-intake/internal/service"
	"lab-sample-intake/pkg/utils"

	"github.com/gin-gonic/gin"
)

// IntakeHandler drives the caller's intake form session
type IntakeHandler struct {
	intakeService *service.IntakeService
}

func NewIntakeHandler(intakeService *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{
		intakeService: intakeService,
	}
}

type AddUnitRequest struct {
	DepartmentID uint `json:"department_id" binding:"required"`
}

type DiseaseRequest struct {
	Disease string `json:"disease" binding:"required"`
}

type DiseaseCountRequest struct {
	Disease string `json:"disease" binding:"required"`
	Delta   int    `json:"delta"`
}

type DiseaseKitRequest struct {
	Disease string `json:"disease" binding:"required"`
	KitType string `json:"kit_type"`
}

type ImportLocationsRequest struct {
	Text string `json:"text"`
}

type ReorderRequest struct {
	From *int `json:"from" binding:"required"`
	To   *int `json:"to" binding:"required"`
}

type RemoveLocationRequest struct {
	Index *int `json:"index" binding:"required"`
}

type TechnicianRequest struct {
	PIN string `json:"pin" binding:"required"`
}

func reply(c *gin.Context, view *service.SessionView, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, view)
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *IntakeHandler) Open(c *gin.Context) {
	view, err := h.intakeService.Open(actor(c), purpose(c))
	reply(c, view, err)
}

func (h *IntakeHandler) Discard(c *gin.Context) {
	if err := h.intakeService.Discard(actor(c), purpose(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, "Draft discarded")
}

func (h *IntakeHandler) Edit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	view, err := h.intakeService.Edit(actor(c), purpose(c), id)
	reply(c, view, err)
}

func (h *IntakeHandler) SetSample(c *gin.Context) {
	var req intake.SampleInfo
	if !bind(c, &req) {
		return
	}
	view, err := h.intakeService.SetSample(actor(c), purpose(c), req)
	reply(c, view, err)
}

func (h *IntakeHandler) AddUnit(c *gin.Context) {
	var req AddUnitRequest
	if !bind(c, &req) {
		return
	}
	view, err := h.intakeService.AddUnit(actor(c), purpose(c), req.DepartmentID)
	reply(c, view, err)
}

func (h *IntakeHandler) DuplicateUnit(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	view, err := h.intakeService.DuplicateUnit(actor(c), purpose(c), index)
	reply(c, view, err)
}

func (h *IntakeHandler) UpdateUnit(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	var patch intake.UnitPatch
	if !bind(c, &patch) {
		return
	}
	view, err := h.intakeService.UpdateUnit(actor(c), purpose(c), index, patch)
	reply(c, view, err)
}

func (h *IntakeHandler) RemoveUnit(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	view, err := h.intakeService.RemoveUnit(actor(c), purpose(c), index)
	reply(c, view, err)
}

func (h *IntakeHandler) ToggleDisease(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	var req DiseaseRequest
	if !bind(c, &req) {
		return
	}
	view, err := h.intakeService.ToggleDisease(actor(c), purpose(c), index, req.Disease)
	reply(c, view, err)
}

func (h *IntakeHandler) SetDiseaseTestCount(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	var req DiseaseCountRequest
	if !bind(c, &req) {
		return
	}
	view, err := h.intakeService.SetDiseaseTestCount(actor(c), purpose(c), index, req.Disease, req.Delta)
	reply(c, view, err)
}

func (h *IntakeHandler) SetDiseaseKitType(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	var req DiseaseKitRequest
	if !bind(c, &req) {
		return
	}
	view, err := h.intakeService.SetDiseaseKitType(actor(c), purpose(c), index, req.Disease, req.KitType)
	reply(c, view, err)
}

func (h *IntakeHandler) ImportLocations(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	var req ImportLocationsRequest
	if !bind(c, &req) {
		return
	}
	view, err := h.intakeService.ImportLocations(actor(c), purpose(c), index, req.Text)
	reply(c, view, err)
}

func (h *IntakeHandler) ReorderLocations(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	var req ReorderRequest
	if !bind(c, &req) {
		return
	}
	view, err := h.intakeService.ReorderLocations(actor(c), purpose(c), index, *req.From, *req.To)
	reply(c, view, err)
}

func (h *IntakeHandler) RemoveLocation(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	var req RemoveLocationRequest
	if !bind(c, &req) {
		return
	}
	view, err := h.intakeService.RemoveLocation(actor(c), purpose(c), index, *req.Index)
	reply(c, view, err)
}

func (h *IntakeHandler) StampTechnician(c *gin.Context) {
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	var req TechnicianRequest
	if !bind(c, &req) {
		return
	}
	view, err := h.intakeService.StampTechnician(actor(c), purpose(c), index, req.PIN)
	reply(c, view, err)
}

// Submit saves the session as a sample; on validation failure every
// problem is reported with status 422
func (h *IntakeHandler) Submit(c *gin.Context) {
	result, err := h.intakeService.Submit(actor(c), purpose(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, result)
}
