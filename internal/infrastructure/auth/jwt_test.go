package auth

import (
	"testing"
	"time"

	"github.com/erp/ledgercore/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *TokenService {
	cfg := config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars",
		Issuer:     "test-issuer",
		Expiration: 15 * time.Minute,
	}
	return NewTokenService(cfg)
}

func newTestInput() GenerateTokenInput {
	return GenerateTokenInput{
		CompanyID: uuid.New(),
		UserID:    uuid.New(),
		Username:  "testuser",
	}
}

func TestValidate_Success(t *testing.T) {
	svc := newTestTokenService()
	input := newTestInput()

	token, err := svc.Generate(input)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)

	require.NoError(t, err)
	assert.Equal(t, input.CompanyID.String(), claims.CompanyID)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, input.Username, claims.Username)
	assert.Empty(t, claims.BranchID)
	assert.False(t, claims.SuperAdmin)
}

func TestValidate_BranchAndSuperAdmin(t *testing.T) {
	svc := newTestTokenService()
	branchID := uuid.New()
	input := GenerateTokenInput{
		CompanyID:  uuid.New(),
		BranchID:   &branchID,
		UserID:     uuid.New(),
		SuperAdmin: true,
	}

	token, err := svc.Generate(input)
	require.NoError(t, err)

	claims, err := svc.Validate(token)

	require.NoError(t, err)
	assert.Equal(t, branchID.String(), claims.BranchID)
	assert.True(t, claims.SuperAdmin)

	parsedBranch, err := claims.GetBranchUUID()
	require.NoError(t, err)
	require.NotNil(t, parsedBranch)
	assert.Equal(t, branchID, *parsedBranch)
}

func TestValidate_ExpiredToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars",
		Issuer:     "test-issuer",
		Expiration: -1 * time.Hour, // Already expired
	}
	svc := NewTokenService(cfg)

	token, err := svc.Generate(newTestInput())
	require.NoError(t, err)

	_, err = svc.Validate(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidate_InvalidToken(t *testing.T) {
	svc := newTestTokenService()

	_, err := svc.Validate("invalid-token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_WrongSecret(t *testing.T) {
	svc := newTestTokenService()
	other := NewTokenService(config.JWTConfig{
		Secret:     "a-completely-different-secret-key",
		Issuer:     "test-issuer",
		Expiration: 15 * time.Minute,
	})

	token, err := other.Generate(newTestInput())
	require.NoError(t, err)

	_, err = svc.Validate(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGetCompanyUUID(t *testing.T) {
	svc := newTestTokenService()
	input := newTestInput()

	token, err := svc.Generate(input)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)

	companyID, err := claims.GetCompanyUUID()
	require.NoError(t, err)
	assert.Equal(t, input.CompanyID, companyID)
}

func TestGetBranchUUID_NilWhenAbsent(t *testing.T) {
	claims := &Claims{CompanyID: uuid.New().String()}

	branchID, err := claims.GetBranchUUID()

	require.NoError(t, err)
	assert.Nil(t, branchID)
}
