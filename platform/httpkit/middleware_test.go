package httpkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"autoparts_quotes_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type testJWTConfig struct{}

func (testJWTConfig) GetJWTAccessSecret() string { return "test-secret" }

type testResolver struct {
	membership CompanyMembership
	found      bool
}

func (r testResolver) ResolveCompany(context.Context, uuid.UUID) (CompanyMembership, bool, error) {
	return r.membership, r.found, nil
}

func signedToken(t *testing.T, userID uuid.UUID, tokenType string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"type": tokenType,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestEngine(resolver CompanyResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(AuthRequired(testJWTConfig{}), ResolveCompany(resolver, logger.Nop()))
	engine.GET("/me", func(c *gin.Context) {
		id := MustGetIdentity(c)
		if id == nil {
			return
		}
		company := ""
		if id.CompanyID() != nil {
			company = id.CompanyID().String()
		}
		c.JSON(http.StatusOK, gin.H{"user": id.UserID().String(), "company": company, "role": id.CompanyRole()})
	})
	return engine
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	engine := newTestEngine(testResolver{})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRequiredRejectsNonAccessToken(t *testing.T) {
	engine := newTestEngine(testResolver{})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, uuid.New(), "refresh"))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestResolveCompanyAttachesMembership(t *testing.T) {
	companyID := uuid.New()
	engine := newTestEngine(testResolver{
		membership: CompanyMembership{CompanyID: companyID, Role: CompanyRoleAdmin},
		found:      true,
	})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, uuid.New(), "access"))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := rec.Body.String(); !strings.Contains(body, companyID.String()) || !strings.Contains(body, CompanyRoleAdmin) {
		t.Fatalf("expected company and role in body, got %s", body)
	}
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	limiter := NewIPRateLimiter(0, 1, logger.Nop())
	engine.Use(limiter.RateLimit())
	engine.GET("/public", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	engine.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/public", nil))
	second := httptest.NewRecorder()
	engine.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/public", nil))

	if first.Code != http.StatusOK || second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 200 then 429, got %d then %d", first.Code, second.Code)
	}
}
