package router

import (
	"github.com/gin-gonic/gin"

	"planforge.app/forge/internal/http/handler"
	"planforge.app/forge/internal/service"
)

func SetupRoutes(router *gin.Engine, planService service.PlanService) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		planHandler := handler.NewPlanHandler(planService)
		PlanRouter(v1.Group("/sessions"), planHandler)

		searchHandler := handler.NewSearchHandler(planService)
		SearchRouter(v1.Group("/search"), searchHandler)
	}
}
