package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"planforge.app/forge/internal/service"
)

type SearchHandler struct {
	planService service.PlanService
}

func NewSearchHandler(planService service.PlanService) *SearchHandler {
	return &SearchHandler{planService: planService}
}

// Search queries the requirements index. q is required; max_results is
// optional and clamped by the backend.
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	maxResults := 10
	if raw := c.Query("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_results must be an integer"})
			return
		}
		maxResults = n
	}

	hits, err := h.planService.Search(c.Request.Context(), query, maxResults)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"hits": hits, "count": len(hits)})
}
