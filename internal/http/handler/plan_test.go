package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"planforge.app/forge/internal/export"
	"planforge.app/forge/internal/http/handler"
	"planforge.app/forge/internal/model"
	"planforge.app/forge/internal/plan"
	"planforge.app/forge/internal/retriever"
	"planforge.app/forge/internal/service"
	"planforge.app/forge/internal/store"
)

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var _ = Describe("PlanHandler", func() {
	var (
		router *gin.Engine
		svc    *mockPlanService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockPlanService{}
		h := handler.NewPlanHandler(svc)
		router.POST("/sessions", h.Create)
		router.GET("/sessions/:sessionID", h.Get)
		router.POST("/sessions/:sessionID/generate", h.Generate)
		router.POST("/sessions/:sessionID/cases", h.AddCase)
		router.PUT("/sessions/:sessionID/cases/:caseID", h.EditCase)
		router.GET("/sessions/:sessionID/coverage", h.Coverage)
		router.POST("/sessions/:sessionID/export", h.Export)
		router.POST("/sessions/:sessionID/requirements", h.AttachRequirements)
		router.GET("/sessions/:sessionID/audit", h.AuditLog)
	})

	Describe("Create", func() {
		validBody := map[string]any{
			"tester_id":           "tester-1",
			"plan_title":          "Checkout Regression",
			"plan_type":           "REGRESSION",
			"coverage_percentage": 80,
			"min_test_cases":      1,
			"max_test_cases":      20,
		}

		It("returns 201 with the created session", func() {
			svc.createSessionFn = func(_ context.Context, testerID string, cfg model.PlanConfiguration) (*model.Session, error) {
				Expect(testerID).To(Equal("tester-1"))
				Expect(cfg.PlanType).To(Equal(model.PlanTypeRegression))
				return &model.Session{ID: "s-1", TesterID: testerID, PlanConfiguration: cfg, Status: model.SessionStatusActive}, nil
			}

			w := doJSON(router, http.MethodPost, "/sessions", validBody)

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["id"]).To(Equal("s-1"))
		})

		It("returns 400 on a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewBufferString(`{`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 with the field name on a validation error", func() {
			svc.createSessionFn = func(_ context.Context, _ string, _ model.PlanConfiguration) (*model.Session, error) {
				return nil, &plan.ValidationError{Field: "coverage_percentage", Reason: "must be between 10 and 100"}
			}

			w := doJSON(router, http.MethodPost, "/sessions", validBody)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["field"]).To(Equal("coverage_percentage"))
		})
	})

	Describe("Get", func() {
		It("returns 404 for an unknown session", func() {
			svc.getSessionFn = func(_ context.Context, _ string) (*model.Session, error) {
				return nil, store.ErrNotFound
			}

			w := doJSON(router, http.MethodGet, "/sessions/missing", nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 200 with the session document", func() {
			svc.getSessionFn = func(_ context.Context, sessionID string) (*model.Session, error) {
				return &model.Session{ID: sessionID}, nil
			}

			w := doJSON(router, http.MethodGet, "/sessions/s-1", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("Generate", func() {
		It("returns 200 with the generation result", func() {
			svc.generateCasesFn = func(_ context.Context, sessionID, userInput string) (*service.GenerateResult, error) {
				Expect(sessionID).To(Equal("s-1"))
				Expect(userInput).To(Equal("cover refunds"))
				return &service.GenerateResult{IterationNumber: 2, NewCases: []model.TestCase{{ID: "c-1"}}}, nil
			}

			w := doJSON(router, http.MethodPost, "/sessions/s-1/generate", map[string]string{"user_input": "cover refunds"})

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["iteration_number"]).To(Equal(float64(2)))
		})

		It("returns 400 when user_input is missing", func() {
			w := doJSON(router, http.MethodPost, "/sessions/s-1/generate", map[string]string{})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 502 with a retryable hint when generation fails", func() {
			svc.generateCasesFn = func(_ context.Context, _, _ string) (*service.GenerateResult, error) {
				return nil, &service.UpstreamError{Op: "generate test cases", Retryable: true, Err: errors.New("rate limited")}
			}

			w := doJSON(router, http.MethodPost, "/sessions/s-1/generate", map[string]string{"user_input": "go"})

			Expect(w.Code).To(Equal(http.StatusBadGateway))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["retryable"]).To(BeTrue())
		})
	})

	Describe("AddCase", func() {
		caseBody := map[string]any{
			"title":           "Pay with gift card",
			"description":     "d",
			"preconditions":   "p",
			"steps":           []string{"pay"},
			"expected_result": "ok",
		}

		It("returns 201 with the case and suggestions", func() {
			svc.addManualCaseFn = func(_ context.Context, _ string, in plan.CaseInput, iterationNumber *int) (*service.ManualCaseResult, error) {
				Expect(in.Title).To(Equal("Pay with gift card"))
				Expect(iterationNumber).To(BeNil())
				return &service.ManualCaseResult{
					Case:            model.TestCase{ID: "c-2", Title: in.Title},
					IterationNumber: 1,
					Suggestions:     []string{"Consider adding tags to make filtering and organizing cases easier."},
				}, nil
			}

			w := doJSON(router, http.MethodPost, "/sessions/s-1/cases", caseBody)

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["suggestions"]).To(HaveLen(1))
		})

		It("passes an explicit iteration number through", func() {
			var got *int
			svc.addManualCaseFn = func(_ context.Context, _ string, _ plan.CaseInput, iterationNumber *int) (*service.ManualCaseResult, error) {
				got = iterationNumber
				return &service.ManualCaseResult{}, nil
			}

			body := map[string]any{}
			for k, v := range caseBody {
				body[k] = v
			}
			body["iteration_number"] = 2
			doJSON(router, http.MethodPost, "/sessions/s-1/cases", body)

			Expect(got).NotTo(BeNil())
			Expect(*got).To(Equal(2))
		})

		It("returns 404 when the iteration does not exist", func() {
			svc.addManualCaseFn = func(_ context.Context, _ string, _ plan.CaseInput, _ *int) (*service.ManualCaseResult, error) {
				return nil, plan.ErrIterationNotFound
			}

			w := doJSON(router, http.MethodPost, "/sessions/s-1/cases", caseBody)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("EditCase", func() {
		It("returns 200 with the updated case and coverage", func() {
			svc.editCaseFn = func(_ context.Context, _, caseID string, in plan.CaseInput) (*service.CaseResult, error) {
				return &service.CaseResult{
					Case:     model.TestCase{ID: caseID, Title: in.Title},
					Coverage: &model.CoverageReport{Summary: model.CoverageSummary{TotalTestCases: 1}},
				}, nil
			}

			w := doJSON(router, http.MethodPut, "/sessions/s-1/cases/case-1", map[string]any{
				"title": "x", "description": "d", "preconditions": "p",
				"steps": []string{"s"}, "expected_result": "r",
			})

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["test_case"]).NotTo(BeNil())
			Expect(resp["coverage_report"]).NotTo(BeNil())
		})

		It("returns 404 for an unknown case", func() {
			svc.editCaseFn = func(_ context.Context, _, _ string, _ plan.CaseInput) (*service.CaseResult, error) {
				return nil, plan.ErrCaseNotFound
			}

			w := doJSON(router, http.MethodPut, "/sessions/s-1/cases/missing", map[string]any{
				"title": "x", "description": "d", "preconditions": "p",
				"steps": []string{"s"}, "expected_result": "r",
			})
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Coverage", func() {
		It("returns 200 with the report", func() {
			svc.getCoverageFn = func(_ context.Context, _ string) (*model.CoverageReport, error) {
				return &model.CoverageReport{Summary: model.CoverageSummary{TotalTestCases: 3}}, nil
			}

			w := doJSON(router, http.MethodGet, "/sessions/s-1/coverage", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp model.CoverageReport
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Summary.TotalTestCases).To(Equal(3))
		})

		It("returns 500 retryable on a storage failure", func() {
			svc.getCoverageFn = func(_ context.Context, _ string) (*model.CoverageReport, error) {
				return nil, &service.StorageError{Op: "get session", Err: errors.New("arangodb down")}
			}

			w := doJSON(router, http.MethodGet, "/sessions/s-1/coverage", nil)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["retryable"]).To(BeTrue())
		})
	})

	Describe("Export", func() {
		It("returns 200 with the artifact reference", func() {
			svc.exportPlanFn = func(_ context.Context, _ string, format export.Format, opts export.Options) (*service.ExportResult, error) {
				Expect(format).To(Equal(export.FormatCSV))
				Expect(opts.IncludeMetrics).To(BeTrue())
				Expect(opts.FilterByPriority).NotTo(BeNil())
				Expect(*opts.FilterByPriority).To(Equal(model.PriorityHigh))
				return &service.ExportResult{Filename: "plan.csv", URL: "/exports/s-1/plan.csv"}, nil
			}

			w := doJSON(router, http.MethodPost, "/sessions/s-1/export", map[string]any{
				"format":          "csv",
				"include_metrics": true,
				"priority":        "HIGH",
			})

			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("returns 400 for an unknown format", func() {
			w := doJSON(router, http.MethodPost, "/sessions/s-1/export", map[string]any{"format": "pdf"})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 for an invalid priority filter", func() {
			w := doJSON(router, http.MethodPost, "/sessions/s-1/export", map[string]any{
				"format":   "json",
				"priority": "URGENT",
			})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("AttachRequirements", func() {
		It("returns 201 with the document reference", func() {
			svc.attachRequirementsFn = func(_ context.Context, _, filename, content string) (*model.RequirementsDocument, error) {
				Expect(filename).To(Equal("requirements.md"))
				Expect(content).To(Equal("REQ-1"))
				return &model.RequirementsDocument{DocumentID: "d-1", Filename: filename, IndexedChunks: 1}, nil
			}

			w := doJSON(router, http.MethodPost, "/sessions/s-1/requirements", map[string]string{
				"filename": "requirements.md",
				"content":  "REQ-1",
			})

			Expect(w.Code).To(Equal(http.StatusCreated))
		})

		It("returns 503 when search is not configured", func() {
			svc.attachRequirementsFn = func(_ context.Context, _, _, _ string) (*model.RequirementsDocument, error) {
				return nil, service.ErrRetrievalDisabled
			}

			w := doJSON(router, http.MethodPost, "/sessions/s-1/requirements", map[string]string{
				"filename": "requirements.md",
				"content":  "REQ-1",
			})
			Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Describe("AuditLog", func() {
		It("returns 200 with the entries", func() {
			svc.getAuditLogFn = func(_ context.Context, sessionID string, limit int32) ([]store.AuditEntry, error) {
				return []store.AuditEntry{{SessionID: sessionID, Action: store.AuditActionGenerate, Actor: "tester-1"}}, nil
			}

			w := doJSON(router, http.MethodGet, "/sessions/s-1/audit", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string][]map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["entries"]).To(HaveLen(1))
			Expect(resp["entries"][0]["action"]).To(Equal("generate"))
		})
	})
})

var _ = Describe("SearchHandler", func() {
	var (
		router *gin.Engine
		svc    *mockPlanService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockPlanService{}
		h := handler.NewSearchHandler(svc)
		router.GET("/search", h.Search)
	})

	It("returns 200 with hits", func() {
		svc.searchFn = func(_ context.Context, query string, maxResults int) ([]retriever.Hit, error) {
			Expect(query).To(Equal("refunds"))
			Expect(maxResults).To(Equal(3))
			return []retriever.Hit{{Content: "REQ-7", Score: 1}}, nil
		}

		w := doJSON(router, http.MethodGet, "/search?q=refunds&max_results=3", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["count"]).To(Equal(float64(1)))
	})

	It("returns 400 when q is missing", func() {
		w := doJSON(router, http.MethodGet, "/search", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 400 when max_results is not an integer", func() {
		w := doJSON(router, http.MethodGet, "/search?q=x&max_results=lots", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 502 when the backend fails", func() {
		svc.searchFn = func(_ context.Context, _ string, _ int) ([]retriever.Hit, error) {
			return nil, &service.UpstreamError{Op: "search requirements", Retryable: true, Err: errors.New("boom")}
		}

		w := doJSON(router, http.MethodGet, "/search?q=x", nil)
		Expect(w.Code).To(Equal(http.StatusBadGateway))
	})
})
