// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"autoparts_quotes_backend/platform/tenancy"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Company roles stored in company_users.
const (
	CompanyRoleAdmin  = "admin"
	CompanyRoleMember = "member"
)

// Identity represents the authenticated user's identity.
// Handlers read the caller through this interface instead of raw gin keys.
type Identity interface {
	// UserID returns the authenticated user's ID.
	UserID() uuid.UUID
	// CompanyID returns the company resolved for the user, if any.
	CompanyID() *uuid.UUID
	// CompanyRole returns the user's role inside CompanyID, or "".
	CompanyRole() string
	// IsAuthenticated returns true if the user is authenticated.
	IsAuthenticated() bool
	// Scope returns the ownership boundary used by repositories.
	Scope() tenancy.Scope
}

type identity struct {
	userID        uuid.UUID
	companyID     *uuid.UUID
	companyRole   string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID     { return i.userID }
func (i *identity) CompanyID() *uuid.UUID { return i.companyID }
func (i *identity) CompanyRole() string   { return i.companyRole }
func (i *identity) IsAuthenticated() bool { return i.authenticated }
func (i *identity) Scope() tenancy.Scope {
	return tenancy.Scope{UserID: i.userID, CompanyID: i.companyID}
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	userID, userOK := c.Get(ContextUserIDKey)
	if !userOK {
		return &identity{authenticated: false}
	}

	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	id := &identity{userID: uid, authenticated: true}
	if raw, ok := c.Get(ContextCompanyIDKey); ok {
		if companyID, ok := raw.(uuid.UUID); ok {
			id.companyID = &companyID
		}
	}
	if raw, ok := c.Get(ContextCompanyRoleKey); ok {
		id.companyRole, _ = raw.(string)
	}
	return id
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the user is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
