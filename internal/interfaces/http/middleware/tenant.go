package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/ledgercore/internal/domain/tenancy"
	"github.com/erp/ledgercore/internal/infrastructure/auth"
	"github.com/erp/ledgercore/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context and header keys
const (
	TenantKey       = "tenant"
	CompanyIDHeader = "X-Company-ID"
	BranchIDHeader  = "X-Branch-ID"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
)

// TenantMiddlewareConfig holds configuration for tenant identity extraction
type TenantMiddlewareConfig struct {
	// Tokens verifies bearer tokens. When nil only headers are consulted.
	Tokens *auth.TokenService
	// Directory validates that a requested branch belongs to the company
	Directory tenancy.BranchDirectory
	// SkipPaths are paths that don't require a tenant identity
	SkipPaths []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultTenantConfig returns the default tenant middleware configuration
func DefaultTenantConfig(tokens *auth.TokenService, directory tenancy.BranchDirectory) TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		Tokens:    tokens,
		Directory: directory,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/api/v1/health",
		},
	}
}

// TenantMiddleware creates middleware that establishes the tenant identity
// for each request
func TenantMiddleware(tokens *auth.TokenService, directory tenancy.BranchDirectory) gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig(tokens, directory))
}

// TenantMiddlewareWithConfig creates tenant middleware with custom config.
//
// The identity is taken from bearer token claims when an Authorization
// header is present, otherwise from the X-Company-ID and X-Branch-ID
// headers. A branch is accepted only after the directory confirms it
// belongs to the company. Scope bypass is granted solely from the
// super_admin token claim, never from a header.
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}

		companyID, branchID, superAdmin, ok := extractIdentity(c, cfg)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		tenant, err := tenancy.NewTenant(ctx, companyID, branchID, cfg.Directory)
		if err != nil {
			var assignErr *tenancy.InvalidTenantAssignmentError
			if errors.As(err, &assignErr) {
				respondError(c, http.StatusForbidden, "TENANT_MISMATCH", "Branch does not belong to the company")
				return
			}
			if cfg.Logger != nil {
				cfg.Logger.Error("Tenant resolution failed",
					zap.String("company_id", companyID.String()),
					zap.Error(err))
			}
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve tenant")
			return
		}

		if superAdmin {
			tenant = tenant.WithBypass(true)
		}

		c.Set(TenantKey, tenant)
		ctx = tenancy.WithTenant(ctx, tenant)
		c.Request = c.Request.WithContext(ctx)

		logger.L(ctx).Debug("Tenant identity established",
			zap.String("company_id", companyID.String()),
			zap.Bool("bypass", superAdmin))

		c.Next()
	}
}

// extractIdentity resolves the requested identity from token claims or
// headers. On failure it writes the error response and returns ok=false.
func extractIdentity(c *gin.Context, cfg TenantMiddlewareConfig) (uuid.UUID, *uuid.UUID, bool, bool) {
	authHeader := c.GetHeader(AuthHeaderKey)
	if authHeader != "" && cfg.Tokens != nil {
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			respondError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid authorization header format")
			return uuid.Nil, nil, false, false
		}

		claims, err := cfg.Tokens.Validate(strings.TrimPrefix(authHeader, BearerPrefix))
		if err != nil {
			code, message := "INVALID_TOKEN", "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				code, message = "TOKEN_EXPIRED", "Token has expired"
			}
			respondError(c, http.StatusUnauthorized, code, message)
			return uuid.Nil, nil, false, false
		}

		companyID, err := claims.GetCompanyUUID()
		if err != nil {
			respondError(c, http.StatusUnauthorized, "INVALID_COMPANY_ID", "Company ID in token is not a valid UUID")
			return uuid.Nil, nil, false, false
		}

		branchID, err := claims.GetBranchUUID()
		if err != nil {
			respondError(c, http.StatusUnauthorized, "INVALID_BRANCH_ID", "Branch ID in token is not a valid UUID")
			return uuid.Nil, nil, false, false
		}

		return companyID, branchID, claims.SuperAdmin, true
	}

	companyHeader := c.GetHeader(CompanyIDHeader)
	if companyHeader == "" {
		respondError(c, http.StatusUnauthorized, "MISSING_TENANT", "Tenant identity is required")
		return uuid.Nil, nil, false, false
	}

	companyID, err := uuid.Parse(companyHeader)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "INVALID_COMPANY_ID", "Company ID must be a valid UUID")
		return uuid.Nil, nil, false, false
	}

	var branchID *uuid.UUID
	if branchHeader := c.GetHeader(BranchIDHeader); branchHeader != "" {
		id, err := uuid.Parse(branchHeader)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "INVALID_BRANCH_ID", "Branch ID must be a valid UUID")
			return uuid.Nil, nil, false, false
		}
		branchID = &id
	}

	return companyID, branchID, false, true
}

// respondError writes a standard error response and aborts the request
func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// GetTenant retrieves the tenant identity from gin.Context
func GetTenant(c *gin.Context) (tenancy.Tenant, bool) {
	if value, exists := c.Get(TenantKey); exists {
		if tenant, ok := value.(tenancy.Tenant); ok {
			return tenant, true
		}
	}
	return tenancy.Tenant{}, false
}

// MustGetTenant retrieves the tenant identity or panics if not established
func MustGetTenant(c *gin.Context) tenancy.Tenant {
	tenant, ok := GetTenant(c)
	if !ok {
		panic("tenant identity not found in context")
	}
	return tenant
}
