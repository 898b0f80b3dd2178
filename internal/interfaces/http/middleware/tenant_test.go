package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/ledgercore/internal/domain/tenancy"
	"github.com/erp/ledgercore/internal/infrastructure/auth"
	"github.com/erp/ledgercore/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeBranchDirectory maps company ID to its branch IDs
type fakeBranchDirectory struct {
	branches map[uuid.UUID][]uuid.UUID
	err      error
}

func (d *fakeBranchDirectory) BranchBelongsToCompany(_ context.Context, companyID, branchID uuid.UUID) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	for _, id := range d.branches[companyID] {
		if id == branchID {
			return true, nil
		}
	}
	return false, nil
}

func newTestTokens() *auth.TokenService {
	return auth.NewTokenService(config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars",
		Issuer:     "test-issuer",
		Expiration: 15 * time.Minute,
	})
}

func tenantTestRouter(tokens *auth.TokenService, directory tenancy.BranchDirectory, captured *tenancy.Tenant) *gin.Engine {
	router := gin.New()
	router.Use(TenantMiddleware(tokens, directory))
	router.GET("/test", func(c *gin.Context) {
		if tenant, ok := tenantFromRequest(c); ok {
			*captured = tenant
		}
		c.Status(http.StatusOK)
	})
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func tenantFromRequest(c *gin.Context) (tenancy.Tenant, bool) {
	return tenancy.FromContext(c.Request.Context())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error.Code
}

func TestTenantMiddleware_HeaderExtraction(t *testing.T) {
	companyID := uuid.New()
	branchID := uuid.New()
	directory := &fakeBranchDirectory{branches: map[uuid.UUID][]uuid.UUID{
		companyID: {branchID},
	}}

	tests := []struct {
		name           string
		companyHeader  string
		branchHeader   string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "company only",
			companyHeader:  companyID.String(),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "company and branch",
			companyHeader:  companyID.String(),
			branchHeader:   branchID.String(),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing company",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "MISSING_TENANT",
		},
		{
			name:           "malformed company ID",
			companyHeader:  "not-a-uuid",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "INVALID_COMPANY_ID",
		},
		{
			name:           "malformed branch ID",
			companyHeader:  companyID.String(),
			branchHeader:   "not-a-uuid",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "INVALID_BRANCH_ID",
		},
		{
			name:           "branch of another company",
			companyHeader:  uuid.New().String(),
			branchHeader:   branchID.String(),
			expectedStatus: http.StatusForbidden,
			expectedCode:   "TENANT_MISMATCH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured tenancy.Tenant
			router := tenantTestRouter(newTestTokens(), directory, &captured)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.companyHeader != "" {
				req.Header.Set(CompanyIDHeader, tt.companyHeader)
			}
			if tt.branchHeader != "" {
				req.Header.Set(BranchIDHeader, tt.branchHeader)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				require.True(t, captured.IsSet())
				assert.Equal(t, tt.companyHeader, captured.CompanyID().String())
				assert.False(t, captured.ShouldBypassScopes())
			} else {
				assert.Equal(t, tt.expectedCode, errorCode(t, w))
				assert.False(t, captured.IsSet())
			}
		})
	}
}

func TestTenantMiddleware_TokenExtraction(t *testing.T) {
	companyID := uuid.New()
	branchID := uuid.New()
	directory := &fakeBranchDirectory{branches: map[uuid.UUID][]uuid.UUID{
		companyID: {branchID},
	}}
	tokens := newTestTokens()

	t.Run("claims establish company and branch", func(t *testing.T) {
		token, err := tokens.Generate(auth.GenerateTokenInput{
			CompanyID: companyID,
			BranchID:  &branchID,
			UserID:    uuid.New(),
		})
		require.NoError(t, err)

		var captured tenancy.Tenant
		router := tenantTestRouter(tokens, directory, &captured)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.True(t, captured.IsSet())
		assert.Equal(t, companyID, captured.CompanyID())
		require.NotNil(t, captured.BranchID())
		assert.Equal(t, branchID, *captured.BranchID())
		assert.False(t, captured.ShouldBypassScopes())
	})

	t.Run("super admin claim grants bypass", func(t *testing.T) {
		token, err := tokens.Generate(auth.GenerateTokenInput{
			CompanyID:  companyID,
			UserID:     uuid.New(),
			SuperAdmin: true,
		})
		require.NoError(t, err)

		var captured tenancy.Tenant
		router := tenantTestRouter(tokens, directory, &captured)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, captured.ShouldBypassScopes())
	})

	t.Run("claims take priority over headers", func(t *testing.T) {
		token, err := tokens.Generate(auth.GenerateTokenInput{
			CompanyID: companyID,
			UserID:    uuid.New(),
		})
		require.NoError(t, err)

		var captured tenancy.Tenant
		router := tenantTestRouter(tokens, directory, &captured)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		req.Header.Set(CompanyIDHeader, uuid.New().String())
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, companyID, captured.CompanyID())
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		var captured tenancy.Tenant
		router := tenantTestRouter(tokens, directory, &captured)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+"garbage")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "INVALID_TOKEN", errorCode(t, w))
	})

	t.Run("expired token rejected", func(t *testing.T) {
		expired := auth.NewTokenService(config.JWTConfig{
			Secret:     "test-secret-key-at-least-32-chars",
			Issuer:     "test-issuer",
			Expiration: -time.Hour,
		})
		token, err := expired.Generate(auth.GenerateTokenInput{
			CompanyID: companyID,
			UserID:    uuid.New(),
		})
		require.NoError(t, err)

		var captured tenancy.Tenant
		router := tenantTestRouter(tokens, directory, &captured)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, w))
	})

	t.Run("missing bearer prefix rejected", func(t *testing.T) {
		var captured tenancy.Tenant
		router := tenantTestRouter(tokens, directory, &captured)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(AuthHeaderKey, "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestTenantMiddleware_SkipPaths(t *testing.T) {
	var captured tenancy.Tenant
	router := tenantTestRouter(newTestTokens(), &fakeBranchDirectory{}, &captured)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, captured.IsSet())
}

func TestGetTenant(t *testing.T) {
	companyID := uuid.New()
	router := gin.New()
	router.Use(TenantMiddleware(nil, &fakeBranchDirectory{}))

	var fromHelper tenancy.Tenant
	var helperOK bool
	router.GET("/test", func(c *gin.Context) {
		fromHelper, helperOK = GetTenant(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(CompanyIDHeader, companyID.String())
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.True(t, helperOK)
	assert.Equal(t, companyID, fromHelper.CompanyID())
}
