package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/http/response"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/services"
)

type SubmissionHandler struct {
	submissions services.SubmissionService
	headers     repos.HeaderRepo
}

func NewSubmissionHandler(submissions services.SubmissionService, headers repos.HeaderRepo) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, headers: headers}
}

type submitRequest struct {
	AssignmentID     uuid.UUID           `json:"assignment_id" binding:"required"`
	MetricID         uuid.UUID           `json:"metric_id" binding:"required"`
	LayerID          uuid.UUID           `json:"layer_id" binding:"required"`
	ReportingPeriod  *time.Time          `json:"reporting_period,omitempty"`
	SourceIdentifier *string             `json:"source_identifier,omitempty"`
	SubmittedBy      string              `json:"submitted_by"`
	SubmittedAt      *time.Time          `json:"submitted_at,omitempty"`
	Notes            string              `json:"notes"`
	Payload          domain.PayloadInput `json:"payload"`
}

type updateRequest struct {
	Notes   *string              `json:"notes,omitempty"`
	Payload *domain.PayloadInput `json:"payload,omitempty"`
}

type verifyRequest struct {
	VerifiedBy string `json:"verified_by" binding:"required"`
}

// POST /api/submissions
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	header, err := h.submissions.Submit(c.Request.Context(), services.SubmitInput{
		AssignmentID:     req.AssignmentID,
		MetricID:         req.MetricID,
		LayerID:          req.LayerID,
		ReportingPeriod:  req.ReportingPeriod,
		SourceIdentifier: req.SourceIdentifier,
		SubmittedBy:      req.SubmittedBy,
		SubmittedAt:      req.SubmittedAt,
		Notes:            req.Notes,
		Payload:          req.Payload,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"submission": header})
}

// GET /api/submissions?assignment_id=&metric_id=&layer_id=
func (h *SubmissionHandler) List(c *gin.Context) {
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
	headers, err := h.headers.ListByScope(c.Request.Context(), nil, assignmentID, metricID, layerID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submissions": headers})
}

// GET /api/submissions/:id
func (h *SubmissionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_submission_id", err)
		return
	}
	detail, err := h.submissions.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

// PUT /api/submissions/:id
func (h *SubmissionHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_submission_id", err)
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	header, err := h.submissions.Update(c.Request.Context(), id, services.UpdateInput{
		Notes:   req.Notes,
		Payload: req.Payload,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submission": header})
}

// DELETE /api/submissions/:id
func (h *SubmissionHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_submission_id", err)
		return
	}
	if err := h.submissions.Delete(c.Request.Context(), id); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/submissions/:id/verify
func (h *SubmissionHandler) Verify(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_submission_id", err)
		return
	}
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	header, err := h.submissions.Verify(c.Request.Context(), id, req.VerifiedBy)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submission": header})
}
