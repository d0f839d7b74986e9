package handler

import (
	"lab-sample-intake/internal/service"
	"lab-sample-intake/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// GetDepartments lists all active departments
func (h *CatalogHandler) GetDepartments(c *gin.Context) {
	departments, err := h.catalogService.GetDepartments()
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"departments": departments,
		"count":       len(departments),
	})
}

func (h *CatalogHandler) GetDiseases(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	diseases, err := h.catalogService.GetDiseases(id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, diseases)
}

func (h *CatalogHandler) GetKitTypes(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	kits, err := h.catalogService.GetKitTypes(id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, kits)
}

func (h *CatalogHandler) GetSampleTypes(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	types, err := h.catalogService.GetSampleTypes(id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, types)
}

// GetCatalog returns the dropdown data of every department in one response
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	catalog, err := h.catalogService.FormCatalog(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"departments": catalog})
}
