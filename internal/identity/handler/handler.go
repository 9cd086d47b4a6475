package handler

import (
	"net/http"

	"autoparts_quotes_backend/internal/identity/service"
	"autoparts_quotes_backend/internal/identity/transport"
	"autoparts_quotes_backend/platform/httpkit"
	"autoparts_quotes_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers routes open to every authenticated user.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/companies", h.CreateCompany)
	rg.GET("/companies/me", h.GetCompany)
	rg.GET("/workshop", h.GetWorkshop)
	rg.PUT("/workshop", h.UpsertWorkshop)
}

// RegisterAdminRoutes registers company administration routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.PATCH("", h.UpdateCompany)
	rg.GET("/members", h.ListMembers)
	rg.POST("/members", h.AddMember)
	rg.PATCH("/members/:userID", h.UpdateMemberRole)
	rg.DELETE("/members/:userID", h.RemoveMember)
}

func (h *Handler) CreateCompany(c *gin.Context) {
	var req transport.CreateCompanyRequest
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

	result, err := h.svc.CreateCompany(c.Request.Context(), identity.Scope(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

func (h *Handler) GetCompany(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.GetCompany(c.Request.Context(), identity.Scope(), identity.CompanyRole())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) UpdateCompany(c *gin.Context) {
	var req transport.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	companyID, ok := mustCompanyID(c)
	if !ok {
		return
	}

	result, err := h.svc.UpdateCompany(c.Request.Context(), companyID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ListMembers(c *gin.Context) {
	companyID, ok := mustCompanyID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListMembers(c.Request.Context(), companyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) AddMember(c *gin.Context) {
	var req transport.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	companyID, ok := mustCompanyID(c)
	if !ok {
		return
	}

	result, err := h.svc.AddMember(c.Request.Context(), companyID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

func (h *Handler) UpdateMemberRole(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	var req transport.UpdateMemberRoleRequest
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
	companyID, ok := mustCompanyID(c)
	if !ok {
		return
	}

	if err := h.svc.UpdateMemberRole(c.Request.Context(), companyID, identity.UserID(), userID, req); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RemoveMember(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	companyID, ok := mustCompanyID(c)
	if !ok {
		return
	}

	if err := h.svc.RemoveMember(c.Request.Context(), companyID, identity.UserID(), userID); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetWorkshop(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.GetWorkshop(c.Request.Context(), identity.Scope())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) UpsertWorkshop(c *gin.Context) {
	var req transport.UpsertWorkshopRequest
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

	result, err := h.svc.UpsertWorkshop(c.Request.Context(), identity.Scope(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func mustCompanyID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.UUID{}, false
	}
	companyID := identity.CompanyID()
	if companyID == nil {
		httpkit.Error(c, http.StatusForbidden, "company not set", nil)
		return uuid.UUID{}, false
	}
	return *companyID, true
}
