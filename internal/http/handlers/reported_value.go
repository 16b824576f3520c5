package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos/reporting"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/http/response"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/services"
)

type ReportedValueHandler struct {
	reported repos.ReportedValueRepo
	recalc   services.RecalcScheduler
}

func NewReportedValueHandler(reported repos.ReportedValueRepo, recalc services.RecalcScheduler) *ReportedValueHandler {
	return &ReportedValueHandler{reported: reported, recalc: recalc}
}

type recomputeRequest struct {
	AssignmentID    uuid.UUID    `json:"assignment_id" binding:"required"`
	MetricID        uuid.UUID    `json:"metric_id" binding:"required"`
	LayerID         uuid.UUID    `json:"layer_id" binding:"required"`
	ReportingPeriod time.Time    `json:"reporting_period" binding:"required"`
	Level           domain.Level `json:"level" binding:"required"`
}

// GET /api/reported-values/:id
func (h *ReportedValueHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_reported_value_id", err)
		return
	}
	rv, err := h.reported.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if rv == nil {
		response.RespondError(c, http.StatusNotFound, "reported_value_not_found", errors.New("reported value not found"))
		return
	}
	response.RespondOK(c, gin.H{"reported_value": rv})
}

// GET /api/assignments/:id/reported-values
func (h *ReportedValueHandler) ListByAssignment(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_assignment_id", err)
		return
	}
	rows, err := h.reported.ListByAssignment(c.Request.Context(), nil, assignmentID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reported_values": rows})
}

// GET /api/reported-values?assignment_id=&metric_id=&layer_id=
func (h *ReportedValueHandler) ListByMetric(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Query("assignment_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_assignment_id", err)
		return
	}
	metricID, err := uuid.Parse(c.Query("metric_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_metric_id", err)
		return
	}
	layerID, err := uuid.Parse(c.Query("layer_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_layer_id", err)
		return
	}
	rows, err := h.reported.ListByMetric(c.Request.Context(), nil, assignmentID, metricID, layerID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reported_values": rows})
}

// POST /api/reported-values/recompute
//
// Synchronous recomputation of one key, for operators repairing drift.
func (h *ReportedValueHandler) Recompute(c *gin.Context) {
	var req recomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	if req.Level != domain.LevelMonthly && req.Level != domain.LevelAnnual {
		response.RespondError(c, http.StatusBadRequest, "invalid_level", errors.New("level must be monthly or annual"))
		return
	}
	rv, err := h.recalc.RecomputeKey(c.Request.Context(), reporting.Key{
		AssignmentID:    req.AssignmentID,
		MetricID:        req.MetricID,
		LayerID:         req.LayerID,
		ReportingPeriod: domain.Day(req.ReportingPeriod),
		Level:           req.Level,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if rv == nil {
		response.RespondOK(c, gin.H{"reported_value": nil, "deleted": true})
		return
	}
	response.RespondOK(c, gin.H{"reported_value": rv})
}
