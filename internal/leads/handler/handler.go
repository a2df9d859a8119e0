// Package handler exposes the lead scoring HTTP endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gymflow_backend/internal/leads/repository"
	"gymflow_backend/internal/leads/scoring"
	"gymflow_backend/internal/leads/service"
	"gymflow_backend/internal/leads/transport"
	"gymflow_backend/platform/httpkit"
	"gymflow_backend/platform/validator"
)

// Handler handles HTTP requests for lead scoring.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest = "invalid request"
	msgInvalidLeadID  = "invalid lead ID"
)

// New creates a new lead scoring handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GetScore returns a lead's current factor breakdown without persisting.
// GET /api/v1/leads/:id/score
func (h *Handler) GetScore(c *gin.Context) {
	orgID, leadID, ok := tenantAndLead(c)
	if !ok {
		return
	}

	breakdown, err := h.svc.CalculateScore(c.Request.Context(), orgID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ScoreResponse{
		LeadID:      leadID.String(),
		Score:       breakdown.Total,
		Temperature: string(scoring.TemperatureFor(breakdown.Total)),
		Breakdown:   breakdown,
	})
}

// RecalculateScore recomputes and persists a lead's score.
// POST /api/v1/leads/:id/score/recalculate
func (h *Handler) RecalculateScore(c *gin.Context) {
	orgID, leadID, ok := tenantAndLead(c)
	if !ok {
		return
	}

	var req transport.RecalculateScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var reason *string
	if req.Reason != "" {
		reason = &req.Reason
	}

	update, err := h.svc.UpdateLeadScore(c.Request.Context(), orgID, leadID, repository.TriggeredByManual, reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, update)
}

// RecordActivity ingests one lead activity and re-scores the lead.
// POST /api/v1/activities
func (h *Handler) RecordActivity(c *gin.Context) {
	orgID, ok := tenantID(c)
	if !ok {
		return
	}

	var req transport.RecordActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	leadID, err := uuid.Parse(req.LeadID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}

	result, err := h.svc.RecordActivity(c.Request.Context(), orgID, service.ActivityInput{
		LeadID:       leadID,
		ActivityType: req.ActivityType,
		Value:        req.Value,
		Metadata:     req.Metadata,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// RecordActivitiesBatch ingests a batch of activities; each distinct lead is
// re-scored once.
// POST /api/v1/activities/batch
func (h *Handler) RecordActivitiesBatch(c *gin.Context) {
	orgID, ok := tenantID(c)
	if !ok {
		return
	}

	var req transport.BatchActivitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	inputs := make([]service.ActivityInput, 0, len(req.Activities))
	for _, a := range req.Activities {
		leadID, err := uuid.Parse(a.LeadID)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
			return
		}
		inputs = append(inputs, service.ActivityInput{
			LeadID:       leadID,
			ActivityType: a.ActivityType,
			Value:        a.Value,
			Metadata:     a.Metadata,
		})
	}

	result, err := h.svc.RecordActivities(c.Request.Context(), orgID, inputs)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// BulkUpdateScores re-scores many leads (admin only).
// POST /api/v1/admin/scoring/bulk-update
func (h *Handler) BulkUpdateScores(c *gin.Context) {
	orgID, ok := tenantID(c)
	if !ok {
		return
	}

	var req transport.BulkUpdateScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	leadIDs := make([]uuid.UUID, 0, len(req.LeadIDs))
	for _, raw := range req.LeadIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
			return
		}
		leadIDs = append(leadIDs, id)
	}

	triggeredBy := req.TriggeredBy
	if triggeredBy == "" {
		triggeredBy = repository.TriggeredByManual
	}

	result, err := h.svc.BulkUpdateScores(c.Request.Context(), orgID, leadIDs, triggeredBy)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetConfiguration returns the organization's resolved scoring configuration.
// GET /api/v1/scoring/configuration
func (h *Handler) GetConfiguration(c *gin.Context) {
	orgID, ok := tenantID(c)
	if !ok {
		return
	}

	cfg, err := h.svc.GetConfiguration(c.Request.Context(), orgID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ConfigurationResponse{Configuration: cfg})
}

// UpdateConfiguration applies a partial configuration update (admin only).
// PUT /api/v1/admin/scoring/configuration
func (h *Handler) UpdateConfiguration(c *gin.Context) {
	orgID, ok := tenantID(c)
	if !ok {
		return
	}

	var req transport.UpdateConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	merged, err := h.svc.UpdateConfiguration(c.Request.Context(), orgID, req.Patch())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ConfigurationResponse{Configuration: merged})
}

// LeadsByTemperature lists leads in a temperature band, hottest first.
// GET /api/v1/leads/by-temperature/:temperature
func (h *Handler) LeadsByTemperature(c *gin.Context) {
	orgID, ok := tenantID(c)
	if !ok {
		return
	}

	leads, err := h.svc.LeadsByTemperature(c.Request.Context(), orgID, c.Param("temperature"))
	if httpkit.HandleError(c, err) {
		return
	}

	summaries := make([]transport.LeadSummary, 0, len(leads))
	for _, lead := range leads {
		summaries = append(summaries, transport.NewLeadSummary(lead))
	}
	httpkit.OK(c, transport.LeadListResponse{Leads: summaries, Total: len(summaries)})
}

// GetAnalytics returns the scoring dashboard aggregates.
// GET /api/v1/scoring/analytics
func (h *Handler) GetAnalytics(c *gin.Context) {
	orgID, ok := tenantID(c)
	if !ok {
		return
	}

	analytics, err := h.svc.GetAnalytics(c.Request.Context(), orgID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.AnalyticsResponse{Analytics: analytics})
}

// tenantID resolves the caller's organization or writes the error response.
func tenantID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.Nil, false
	}
	orgID := identity.OrganizationID()
	if orgID == nil {
		httpkit.Error(c, http.StatusForbidden, "no organization context", nil)
		return uuid.Nil, false
	}
	return *orgID, true
}

// tenantAndLead resolves the tenant plus the :id path parameter.
func tenantAndLead(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	orgID, ok := tenantID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return uuid.Nil, uuid.Nil, false
	}
	return orgID, leadID, true
}
