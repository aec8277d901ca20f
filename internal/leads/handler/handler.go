package handler

import (
	"errors"
	"net/http"

	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/internal/leads/scoring"
	"chatlead_backend/internal/leads/service"
	"chatlead_backend/internal/leads/transport"
	"chatlead_backend/platform/httpkit"
	"chatlead_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc     *service.Service
	scoring *scoring.Service
	val     *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *service.Service, scoringSvc *scoring.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, scoring: scoringSvc, val: val}
}

// RegisterRoutes mounts the authenticated lead management routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/metrics", h.Metrics)
	rg.GET("/:id", h.GetByID)
	rg.DELETE("/:id", h.Delete)
	rg.PATCH("/:id/qualification", h.UpdateQualification)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.PUT("/:id/assign", h.Assign)
	rg.PATCH("/:id/metadata", h.UpdateMetadata)
	rg.POST("/:id/rescore", h.Rescore)
	rg.GET("/:id/recommendations", h.Recommendations)
	rg.GET("/:id/next-statuses", h.NextStatuses)
}

// RegisterCaptureRoutes mounts the public capture endpoint used by chatbot
// widgets. It sits behind its own rate limiter instead of JWT auth.
func (h *Handler) RegisterCaptureRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Capture)
}

func (h *Handler) Capture(c *gin.Context) {
	var req transport.CaptureLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Capture(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) List(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), id.OrganizationID(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GetByID(c *gin.Context) {
	identity, leadID, ok := h.leadScope(c)
	if !ok {
		return
	}

	lead, err := h.svc.GetByID(c.Request.Context(), leadID, identity.OrganizationID())
	if err != nil {
		h.respondError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) UpdateQualification(c *gin.Context) {
	identity, leadID, ok := h.leadScope(c)
	if !ok {
		return
	}

	var req transport.UpdateQualificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.UpdateQualification(c.Request.Context(), leadID, identity.OrganizationID(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	identity, leadID, ok := h.leadScope(c)
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.ChangeStatus(c.Request.Context(), leadID, identity.OrganizationID(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Assign(c *gin.Context) {
	identity, leadID, ok := h.leadScope(c)
	if !ok {
		return
	}

	var req transport.AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.Assign(c.Request.Context(), leadID, identity.OrganizationID(), req.AssigneeID.Value)
	if err != nil {
		h.respondError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) UpdateMetadata(c *gin.Context) {
	identity, leadID, ok := h.leadScope(c)
	if !ok {
		return
	}

	var req transport.UpdateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.UpdateMetadata(c.Request.Context(), leadID, identity.OrganizationID(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Delete(c *gin.Context) {
	identity, leadID, ok := h.leadScope(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), leadID, identity.OrganizationID()); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Rescore(c *gin.Context) {
	identity, leadID, ok := h.leadScope(c)
	if !ok {
		return
	}

	result, err := h.scoring.Recalculate(c.Request.Context(), leadID, identity.OrganizationID())
	if err != nil {
		h.respondError(c, err)
		return
	}

	httpkit.OK(c, transport.RescoreResponse{
		LeadID:        leadID,
		Score:         result.Score,
		PreviousScore: result.PreviousScore,
		Tier:          transport.QualificationTier(result.Tier),
		Version:       result.Version,
	})
}

func (h *Handler) Recommendations(c *gin.Context) {
	identity, leadID, ok := h.leadScope(c)
	if !ok {
		return
	}

	result, err := h.svc.Recommendations(c.Request.Context(), leadID, identity.OrganizationID())
	if err != nil {
		h.respondError(c, err)
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) NextStatuses(c *gin.Context) {
	identity, leadID, ok := h.leadScope(c)
	if !ok {
		return
	}

	statuses, err := h.svc.NextStatuses(c.Request.Context(), leadID, identity.OrganizationID())
	if err != nil {
		h.respondError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"nextStatuses": statuses})
}

func (h *Handler) Metrics(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	metrics, err := h.svc.Metrics(c.Request.Context(), id.OrganizationID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, metrics)
}

// leadScope extracts the authenticated identity and the lead ID path param.
func (h *Handler) leadScope(c *gin.Context) (httpkit.Identity, uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return nil, uuid.Nil, false
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return nil, uuid.Nil, false
	}

	return identity, leadID, true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrLeadNotFound) || errors.Is(err, repository.ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, "lead not found", nil)
		return
	}
	httpkit.HandleError(c, err)
}
