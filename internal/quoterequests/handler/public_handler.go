package handler

import (
	"net/http"

	"autoparts_quotes_backend/internal/quoterequests/service"
	"autoparts_quotes_backend/internal/quoterequests/transport"
	"autoparts_quotes_backend/platform/httpkit"
	"autoparts_quotes_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PublicHandler serves the supplier response form. No authentication; the
// quotation and request ids in the link are the credential.
type PublicHandler struct {
	svc *service.Service
	val *validator.Validator
}

// NewPublicHandler creates the public supplier response handler.
func NewPublicHandler(svc *service.Service, val *validator.Validator) *PublicHandler {
	return &PublicHandler{svc: svc, val: val}
}

// RegisterRoutes registers supplier response routes.
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:quotationID/:requestID", h.GetForm)
	rg.POST("/:quotationID/:requestID", h.Submit)
}

func (h *PublicHandler) GetForm(c *gin.Context) {
	quotationID, requestID, ok := linkIDs(c)
	if !ok {
		return
	}

	result, err := h.svc.GetPublicForm(c.Request.Context(), quotationID, requestID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *PublicHandler) Submit(c *gin.Context) {
	quotationID, requestID, ok := linkIDs(c)
	if !ok {
		return
	}
	var req transport.SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SubmitResponse(c.Request.Context(), quotationID, requestID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func linkIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	quotationID, err := uuid.Parse(c.Param("quotationID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, uuid.UUID{}, false
	}
	requestID, err := uuid.Parse(c.Param("requestID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, uuid.UUID{}, false
	}
	return quotationID, requestID, true
}
