package handler

import (
	"net/http"

	"autoparts_quotes_backend/internal/whatsapp/service"
	"autoparts_quotes_backend/internal/whatsapp/transport"
	"autoparts_quotes_backend/platform/httpkit"
	"autoparts_quotes_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for gateway settings.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new whatsapp handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers whatsapp routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/config", h.GetConfig)
	rg.PUT("/config", h.SaveConfig)
	rg.DELETE("/config", h.DeleteConfig)
	rg.GET("/connection", h.Connection)
}

func (h *Handler) GetConfig(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.GetConfig(c.Request.Context(), identity.Scope())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SaveConfig(c *gin.Context) {
	var req transport.UpsertConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.SaveConfig(c.Request.Context(), identity.Scope(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) DeleteConfig(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.DeleteConfig(c.Request.Context(), identity.Scope()); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Connection(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Connection(c.Request.Context(), identity.Scope())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
