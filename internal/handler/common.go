package handler

import (
	"errors"
	"net/http"
	"strconv"

	"lab-sample-intake/internal/intake"
	"lab-sample-intake/internal/repository"
	"lab-sample-intake/internal/service"
	"lab-sample-intake/pkg/utils"

	"github.com/gin-gonic/gin"
)

// actor reads the identity injected by AuthMiddleware
func actor(c *gin.Context) service.Actor {
	return service.Actor{
		UserID:   c.GetUint("userID"),
		Username: c.GetString("username"),
	}
}

func purpose(c *gin.Context) string {
	return c.DefaultQuery("purpose", service.DefaultPurpose)
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func parseIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid unit index")
		return 0, false
	}
	return index, true
}

// respondError maps service and domain errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var verr *intake.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.ValidationErrorResponse(c, verr.Messages)
	case errors.Is(err, intake.ErrIndexOutOfRange),
		errors.Is(err, intake.ErrInvalidDepartment),
		errors.Is(err, intake.ErrPayloadMismatch),
		errors.Is(err, intake.ErrDiseaseNotFound),
		errors.Is(err, intake.ErrDuplicateDisease),
		errors.Is(err, service.ErrInvalidPINFormat),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrUnitNotInSample),
		errors.Is(err, service.ErrDuplicateUnit),
		errors.Is(err, service.ErrDepartmentChanged),
		errors.Is(err, service.ErrInvalidCOA),
		errors.Is(err, service.ErrInvalidPeriod):
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		utils.ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrPINRejected):
		utils.ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrSampleNotFound),
		errors.Is(err, repository.ErrDepartmentNotFound),
		errors.Is(err, repository.ErrUnitNotFound),
		errors.Is(err, repository.ErrCOANotFound):
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, intake.ErrFieldLocked),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrSignatureExists),
		errors.Is(err, service.ErrPINInUse),
		errors.Is(err, service.ErrCOAExists),
		errors.Is(err, service.ErrCOAFinalized),
		errors.Is(err, service.ErrCOANotFinalized):
		utils.ErrorResponse(c, http.StatusConflict, err.Error())
	default:
		_ = c.Error(err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}
