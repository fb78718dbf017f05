package router

import (
	"github.com/gin-gonic/gin"

	"planforge.app/forge/internal/http/handler"
)

func SearchRouter(rg *gin.RouterGroup, h *handler.SearchHandler) {
	rg.GET("", h.Search)
}
