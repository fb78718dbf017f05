package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"planforge.app/forge/internal/plan"
	"planforge.app/forge/internal/service"
	"planforge.app/forge/internal/store"
)

// respondError maps the service error taxonomy onto HTTP statuses:
// validation failures are 400, missing aggregates 404, collaborator
// failures 502 with a retryable hint, storage failures 500 retryable.
func respondError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var validationErr *plan.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	case errors.Is(err, plan.ErrCaseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "test case not found"})
		return
	case errors.Is(err, plan.ErrIterationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "iteration not found"})
		return
	case errors.Is(err, service.ErrRetrievalDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "requirements search is not configured"})
		return
	}

	var upstreamErr *service.UpstreamError
	if errors.As(err, &upstreamErr) {
		slog.ErrorContext(ctx, "upstream collaborator failed",
			"op", upstreamErr.Op,
			"retryable", upstreamErr.Retryable,
			"error", upstreamErr.Err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     "upstream service failed: " + upstreamErr.Op,
			"retryable": upstreamErr.Retryable,
		})
		return
	}

	var storageErr *service.StorageError
	if errors.As(err, &storageErr) {
		slog.ErrorContext(ctx, "storage operation failed",
			"op", storageErr.Op,
			"error", storageErr.Err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "storage failure, safe to retry",
			"retryable": true,
		})
		return
	}

	slog.ErrorContext(ctx, "unhandled error", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
