package handler

import (
	"fmt"
	"net/http"

	"autoparts_quotes_backend/internal/purchasing/service"
	"autoparts_quotes_backend/internal/purchasing/transport"
	"autoparts_quotes_backend/platform/httpkit"
	"autoparts_quotes_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler handles HTTP requests for best prices and purchase orders.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new purchasing handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterQuotationRoutes registers routes nested under /quotations/:id.
func (h *Handler) RegisterQuotationRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/best-prices", h.BestPrices)
	rg.GET("/:id/comparison", h.Comparison)
	rg.POST("/:id/purchase-orders", h.GenerateFromSelections)
	rg.POST("/:id/purchase-orders/best-prices", h.GenerateFromBestPrices)
}

// RegisterRoutes registers /purchase-orders routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.UpdateDetails)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/send", h.Send)
	rg.GET("/:id/pdf", h.DownloadPDF)
}

func (h *Handler) BestPrices(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.BestPrices(c.Request.Context(), identity.Scope(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Comparison(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	fileName, body, err := h.svc.ComparisonXLSX(c.Request.Context(), identity.Scope(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	serveFile(c, contentTypeXLSX, fileName, body)
}

func (h *Handler) GenerateFromSelections(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.GenerateFromSelectionsRequest
	if !bindJSON(c, h.val, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.GenerateFromSelections(c.Request.Context(), identity.Scope(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

func (h *Handler) GenerateFromBestPrices(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.GenerateFromBestPricesRequest
	if !bindJSON(c, h.val, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.GenerateFromBestPrices(c.Request.Context(), identity.Scope(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListPurchaseOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
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

	result, err := h.svc.List(c.Request.Context(), identity.Scope(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
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

func (h *Handler) UpdateDetails(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateDetailsRequest
	if !bindJSON(c, h.val, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.UpdateDetails(c.Request.Context(), identity.Scope(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), identity.Scope(), id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Send(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.SendPurchaseOrderRequest
	if !bindJSON(c, h.val, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Send(c.Request.Context(), identity.Scope(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) DownloadPDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	fileName, body, err := h.svc.PDF(c.Request.Context(), identity.Scope(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	serveFile(c, contentTypePDF, fileName, body)
}

func serveFile(c *gin.Context, contentType, fileName string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Data(http.StatusOK, contentType, body)
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
