package handler

import (
	"net/http"

	"lab-sample-intake/internal/service"
	"lab-sample-intake/pkg/utils"

	"github.com/gin-gonic/gin"
)

type SignatureHandler struct {
	signatureService *service.SignatureService
}

func NewSignatureHandler(signatureService *service.SignatureService) *SignatureHandler {
	return &SignatureHandler{
		signatureService: signatureService,
	}
}

type VerifyPINRequest struct {
	PIN string `json:"pin" binding:"required"`
}

type CreateSignatureRequest struct {
	Name           string `json:"name" binding:"required,max=100"`
	PIN            string `json:"pin" binding:"required"`
	SignatureImage string `json:"signature_image"`
}

// VerifyPIN reports whose signature a PIN belongs to
func (h *SignatureHandler) VerifyPIN(c *gin.Context) {
	var req VerifyPINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.signatureService.VerifyPIN(req.PIN)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// CreateSignature registers a technician signature (admin only)
func (h *SignatureHandler) CreateSignature(c *gin.Context) {
	var req CreateSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	sig, err := h.signatureService.CreateSignature(c.GetUint("userID"), req.Name, req.PIN, req.SignatureImage)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, sig)
}
