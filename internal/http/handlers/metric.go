package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/http/response"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/services"
)

// MetricHandler serves form and metric definition reads plus template reloads.
type MetricHandler struct {
	forms       repos.FormRepo
	metrics     repos.MetricDefinitionRepo
	assignments repos.AssignmentRepo
	templates   services.TemplateLoader
	templateDir string
}

func NewMetricHandler(
	forms repos.FormRepo,
	metrics repos.MetricDefinitionRepo,
	assignments repos.AssignmentRepo,
	templates services.TemplateLoader,
	templateDir string,
) *MetricHandler {
	return &MetricHandler{
		forms:       forms,
		metrics:     metrics,
		assignments: assignments,
		templates:   templates,
		templateDir: templateDir,
	}
}

// GET /api/forms
func (h *MetricHandler) ListForms(c *gin.Context) {
	forms, err := h.forms.List(c.Request.Context(), nil)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"forms": forms})
}

// GET /api/forms/:code/metrics
func (h *MetricHandler) ListFormMetrics(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	form, err := h.forms.GetByCode(c.Request.Context(), nil, code)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if form == nil {
		response.RespondError(c, http.StatusNotFound, "form_not_found", errors.New("form not found: "+code))
		return
	}
	metrics, err := h.metrics.ListByForm(c.Request.Context(), nil, form.ID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"form": form, "metrics": metrics})
}

// GET /api/forms/:code/assignments
func (h *MetricHandler) ListFormAssignments(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	form, err := h.forms.GetByCode(c.Request.Context(), nil, code)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if form == nil {
		response.RespondError(c, http.StatusNotFound, "form_not_found", errors.New("form not found: "+code))
		return
	}
	assignments, err := h.assignments.ListByForm(c.Request.Context(), nil, form.ID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assignments": assignments})
}

// GET /api/metrics/:id
func (h *MetricHandler) GetMetric(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_metric_id", err)
		return
	}
	metric, err := h.metrics.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if metric == nil {
		response.RespondError(c, http.StatusNotFound, "metric_not_found", errors.New("metric definition not found"))
		return
	}
	response.RespondOK(c, gin.H{"metric": metric})
}

// POST /api/templates/reload
func (h *MetricHandler) ReloadTemplates(c *gin.Context) {
	if h.templates == nil || h.templateDir == "" {
		response.RespondError(c, http.StatusPreconditionFailed, "templates_not_configured", errors.New("no template directory configured"))
		return
	}
	n, err := h.templates.LoadDir(c.Request.Context(), h.templateDir)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"metrics_loaded": n})
}
