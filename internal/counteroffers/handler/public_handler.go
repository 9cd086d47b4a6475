package handler

import (
	"autoparts_quotes_backend/internal/counteroffers/service"
	"autoparts_quotes_backend/internal/counteroffers/transport"
	"autoparts_quotes_backend/platform/httpkit"
	"autoparts_quotes_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves the supplier's counter offer page. The counter
// offer id in the link is the credential.
type PublicHandler struct {
	svc *service.Service
	val *validator.Validator
}

// NewPublicHandler creates the public counter offer handler.
func NewPublicHandler(svc *service.Service, val *validator.Validator) *PublicHandler {
	return &PublicHandler{svc: svc, val: val}
}

// RegisterRoutes registers public counter offer routes.
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id", h.Get)
	rg.POST("/:id", h.Respond)
}

func (h *PublicHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetPublic(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *PublicHandler) Respond(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.RespondCounterOfferRequest
	if !bindJSON(c, h.val, &req) {
		return
	}

	result, err := h.svc.Respond(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
