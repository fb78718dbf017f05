package router

import (
	"github.com/gin-gonic/gin"

	"planforge.app/forge/internal/http/handler"
)

func PlanRouter(rg *gin.RouterGroup, h *handler.PlanHandler) {
	rg.POST("", h.Create)
	rg.GET("/:sessionID", h.Get)
	rg.POST("/:sessionID/generate", h.Generate)
	rg.POST("/:sessionID/cases", h.AddCase)
	rg.PUT("/:sessionID/cases/:caseID", h.EditCase)
	rg.GET("/:sessionID/coverage", h.Coverage)
	rg.POST("/:sessionID/export", h.Export)
	rg.POST("/:sessionID/requirements", h.AttachRequirements)
	rg.GET("/:sessionID/audit", h.AuditLog)
}
