package handler

import (
	"net/http"

	"lab-sample-intake/internal/middleware"
	"lab-sample-intake/internal/models"
	"lab-sample-intake/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the service exposes
type Handlers struct {
	Auth       *AuthHandler
	Catalog    *CatalogHandler
	Sample     *SampleHandler
	Signature  *SignatureHandler
	Intake     *IntakeHandler
	COA        *COAHandler
	Statistics *StatisticsHandler
}

// RegisterRoutes mounts all routes on r. metrics may be nil.
func RegisterRoutes(r *gin.Engine, h Handlers, metrics http.Handler) {
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":  "healthy",
			"service": "lab-sample-intake",
		})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	// Auth routes (public)
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", h.Auth.Logout)
	}

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware())

	api.POST("/users", middleware.RequireAdmin(), h.Auth.CreateUser)

	api.GET("/catalog", h.Catalog.GetCatalog)
	departments := api.Group("/departments")
	{
		departments.GET("", h.Catalog.GetDepartments)
		departments.GET("/:id/diseases", h.Catalog.GetDiseases)
		departments.GET("/:id/kit-types", h.Catalog.GetKitTypes)
		departments.GET("/:id/sample-types", h.Catalog.GetSampleTypes)
	}

	signatures := api.Group("/signatures")
	{
		signatures.POST("/verify-pin", h.Signature.VerifyPIN)
		signatures.POST("", middleware.RequireAdmin(), h.Signature.CreateSignature)
	}

	samples := api.Group("/samples")
	{
		samples.GET("", h.Sample.ListSamples)
		samples.GET("/preview-codes", h.Sample.PreviewCodes)
		samples.GET("/years", h.Sample.GetYears)
		samples.GET("/:id", h.Sample.GetSample)
		samples.GET("/:id/history", h.Sample.GetHistory)
		samples.POST("", h.Sample.CreateSample)
		samples.PUT("/:id", middleware.RequireRole(models.RoleAdmin, models.RoleTechnician), h.Sample.UpdateSample)
	}

	editors := middleware.RequireRole(models.RoleAdmin, models.RoleTechnician)
	api.GET("/coa", h.COA.GetBatch)
	coa := api.Group("/units/:id/coa")
	{
		coa.GET("", h.COA.GetCOA)
		coa.POST("", editors, h.COA.CreateCOA)
		coa.PUT("", editors, h.COA.UpdateCOA)
		coa.DELETE("", editors, h.COA.DeleteCOA)
		coa.POST("/reopen", middleware.RequireAdmin(), h.COA.ReopenCOA)
	}

	statistics := api.Group("/statistics")
	{
		statistics.GET("/samples", h.Statistics.GetSampleStatistics)
		statistics.GET("/units", h.Statistics.GetUnitStatistics)
	}

	form := api.Group("/intake")
	{
		form.GET("", h.Intake.Open)
		form.DELETE("", h.Intake.Discard)
		form.POST("/edit/:id", middleware.RequireRole(models.RoleAdmin, models.RoleTechnician), h.Intake.Edit)
		form.PUT("/sample", h.Intake.SetSample)
		form.POST("/units", h.Intake.AddUnit)
		form.POST("/units/:index/duplicate", h.Intake.DuplicateUnit)
		form.PATCH("/units/:index", h.Intake.UpdateUnit)
		form.DELETE("/units/:index", h.Intake.RemoveUnit)
		form.POST("/units/:index/diseases/toggle", h.Intake.ToggleDisease)
		form.POST("/units/:index/diseases/count", h.Intake.SetDiseaseTestCount)
		form.POST("/units/:index/diseases/kit", h.Intake.SetDiseaseKitType)
		form.POST("/units/:index/locations/import", h.Intake.ImportLocations)
		form.POST("/units/:index/locations/reorder", h.Intake.ReorderLocations)
		form.POST("/units/:index/locations/remove", h.Intake.RemoveLocation)
		form.POST("/units/:index/technician", h.Intake.StampTechnician)
		form.POST("/submit", h.Intake.Submit)
	}
}
