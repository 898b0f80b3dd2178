package auth

import (
	"errors"
	"time"

	"github.com/erp/ledgercore/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingCompanyID = errors.New("missing company_id in claims")
)

// Claims carries the tenant identity inside a signed token. CompanyID is
// mandatory; BranchID narrows the identity to one branch. SuperAdmin marks
// administrative principals that may operate across companies.
type Claims struct {
	jwt.RegisteredClaims
	CompanyID  string `json:"company_id"`
	BranchID   string `json:"branch_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	Username   string `json:"username,omitempty"`
	SuperAdmin bool   `json:"super_admin,omitempty"`
}

// GetCompanyUUID parses the company ID from claims.
func (c *Claims) GetCompanyUUID() (uuid.UUID, error) {
	return uuid.Parse(c.CompanyID)
}

// GetBranchUUID parses the branch ID from claims, nil when the token carries
// a company-wide identity.
func (c *Claims) GetBranchUUID() (*uuid.UUID, error) {
	if c.BranchID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(c.BranchID)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// TokenService signs and verifies tenant identity tokens
type TokenService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
}

// NewTokenService creates a token service from JWT configuration
func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: cfg.Expiration,
	}
}

// GenerateTokenInput contains input for token generation
type GenerateTokenInput struct {
	CompanyID  uuid.UUID
	BranchID   *uuid.UUID
	UserID     uuid.UUID
	Username   string
	SuperAdmin bool
}

// Generate signs a token carrying the given tenant identity
func (s *TokenService) Generate(input GenerateTokenInput) (string, error) {
	now := time.Now()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		CompanyID:  input.CompanyID.String(),
		UserID:     input.UserID.String(),
		Username:   input.Username,
		SuperAdmin: input.SuperAdmin,
	}
	if input.BranchID != nil {
		claims.BranchID = input.BranchID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate verifies a token and returns its claims
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	if claims.CompanyID == "" {
		return nil, ErrMissingCompanyID
	}

	return claims, nil
}
