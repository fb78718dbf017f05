package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"planforge.app/forge/internal/export"
	"planforge.app/forge/internal/model"
	"planforge.app/forge/internal/plan"
	"planforge.app/forge/internal/service"
)

type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

type createSessionRequest struct {
	TesterID           string  `json:"tester_id" binding:"required,min=1,max=255"`
	PlanTitle          string  `json:"plan_title" binding:"required,min=1,max=255"`
	PlanType           string  `json:"plan_type" binding:"required"`
	CoveragePercentage float64 `json:"coverage_percentage" binding:"required"`
	MinTestCases       int     `json:"min_test_cases" binding:"required"`
	MaxTestCases       int     `json:"max_test_cases" binding:"required"`
	ProjectContext     string  `json:"project_context"`
}

// Create starts a new plan session from an immutable configuration.
func (h *PlanHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := model.PlanConfiguration{
		PlanTitle:          req.PlanTitle,
		PlanType:           model.PlanType(req.PlanType),
		CoveragePercentage: req.CoveragePercentage,
		MinTestCases:       req.MinTestCases,
		MaxTestCases:       req.MaxTestCases,
		ProjectContext:     req.ProjectContext,
	}

	session, err := h.planService.CreateSession(ctx, req.TesterID, cfg)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// Get returns the full session document.
func (h *PlanHandler) Get(c *gin.Context) {
	session, err := h.planService.GetSession(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type generateRequest struct {
	UserInput string `json:"user_input" binding:"required,min=1"`
}

// Generate runs one generation pass and appends the result as a new
// iteration.
func (h *PlanHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.planService.GenerateCases(ctx, c.Param("sessionID"), req.UserInput)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type addCaseRequest struct {
	plan.CaseInput
	IterationNumber *int `json:"iteration_number,omitempty"`
}

// AddCase attaches a hand-written case and returns it with improvement
// suggestions.
func (h *PlanHandler) AddCase(c *gin.Context) {
	ctx := c.Request.Context()

	var req addCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.planService.AddManualCase(ctx, c.Param("sessionID"), req.CaseInput, req.IterationNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// EditCase replaces a case in place, preserving its identity fields.
func (h *PlanHandler) EditCase(c *gin.Context) {
	ctx := c.Request.Context()

	var req plan.CaseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.planService.EditCase(ctx, c.Param("sessionID"), c.Param("caseID"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Coverage serves the derived coverage report.
func (h *PlanHandler) Coverage(c *gin.Context) {
	report, err := h.planService.GetCoverage(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type exportRequest struct {
	Format         string  `json:"format" binding:"required"`
	IncludeMetrics bool    `json:"include_metrics"`
	Priority       *string `json:"priority,omitempty"`
	Category       *string `json:"category,omitempty"`
}

// Export renders the plan as a downloadable artifact.
func (h *PlanHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()

	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	format, err := export.ParseFormat(req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := export.Options{IncludeMetrics: req.IncludeMetrics}
	if req.Priority != nil {
		p := model.Priority(*req.Priority)
		if !p.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid priority filter"})
			return
		}
		opts.FilterByPriority = &p
	}
	if req.Category != nil {
		cat := model.Category(*req.Category)
		if !cat.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category filter"})
			return
		}
		opts.FilterByCategory = &cat
	}

	result, err := h.planService.ExportPlan(ctx, c.Param("sessionID"), format, opts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type attachRequirementsRequest struct {
	Filename string `json:"filename" binding:"required,min=1,max=255"`
	Content  string `json:"content" binding:"required,min=1"`
}

// AttachRequirements indexes a requirements document for the session.
func (h *PlanHandler) AttachRequirements(c *gin.Context) {
	ctx := c.Request.Context()

	var req attachRequirementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.planService.AttachRequirements(ctx, c.Param("sessionID"), req.Filename, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

type auditEntryResponse struct {
	SessionID string    `json:"session_id"`
	CaseID    string    `json:"case_id,omitempty"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	At        time.Time `json:"at"`
}

// AuditLog lists the session's recent mutation records, newest first.
func (h *PlanHandler) AuditLog(c *gin.Context) {
	entries, err := h.planService.GetAuditLog(c.Request.Context(), c.Param("sessionID"), 100)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			SessionID: e.SessionID,
			CaseID:    e.CaseID,
			Action:    string(e.Action),
			Actor:     e.Actor,
			At:        e.At,
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}
