package handler

import (
	"net/http"

	"autoparts_quotes_backend/internal/counteroffers/service"
	"autoparts_quotes_backend/internal/counteroffers/transport"
	"autoparts_quotes_backend/platform/httpkit"
	"autoparts_quotes_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for counter offers.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new counter offers handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers counter offer routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/calculate", h.Calculate)
	rg.GET("/:id", h.Get)
}

// RegisterRequestRoutes registers routes nested under a quotation request.
func (h *Handler) RegisterRequestRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/counter-offers", h.Create)
	rg.GET("/:id/counter-offers", h.ListByRequest)
}

// RegisterQuotationRoutes registers routes nested under a quotation.
func (h *Handler) RegisterQuotationRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/counter-offers", h.ListByQuotation)
}

func (h *Handler) Calculate(c *gin.Context) {
	var req transport.CalculateRequest
	if !bindJSON(c, h.val, &req) {
		return
	}
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	result, err := h.svc.Calculate(req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Create(c *gin.Context) {
	requestID, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.CreateCounterOfferRequest
	if !bindJSON(c, h.val, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), identity.Scope(), requestID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), identity.Scope(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ListByRequest(c *gin.Context) {
	requestID, ok := parseID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListByRequest(c.Request.Context(), identity.Scope(), requestID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ListByQuotation(c *gin.Context) {
	quotationID, ok := parseID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListByQuotation(c.Request.Context(), identity.Scope(), quotationID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func bindJSON(c *gin.Context, val *validator.Validator, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}
