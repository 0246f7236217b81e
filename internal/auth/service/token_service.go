package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/insightboard/auth-service/internal/auth/service TokenGenerator

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	autherror "github.com/insightboard/auth-service/internal/errors"
	"github.com/insightboard/auth-service/pkg/constant"
)

// clockLeeway absorbs small clock skew at the expiry boundary.
const clockLeeway = 30 * time.Second

type TokenGenerator interface {
	IssueAccessToken(userID int64, email, role string) (string, time.Time, error)
	IssueRefreshToken(sessionID string) (string, time.Time, error)
	VerifyAccessToken(tokenString string) (*AccessClaims, error)
	VerifyRefreshToken(tokenString string) (*RefreshClaims, error)
	DecodeUnsafe(tokenString string) (jwt.MapClaims, error)
	AccessTokenExpiry() time.Duration
	RefreshTokenExpiry() time.Duration
}

// TokenService signs and verifies tokens with an explicitly injected
// Ed25519 key pair. It is stateless and safe for concurrent use.
type TokenService struct {
	privateKey    ed25519.PrivateKey
	publicKey     ed25519.PublicKey
	issuer        string
	audience      string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

type AccessClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
}

type RefreshClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
}

// NewTokenService derives the key pair from a base64-encoded ed25519 seed.
func NewTokenService(seedBase64, issuer, audience string, accessMinutes, refreshMinutes int) (*TokenService, error) {
	seed, err := base64.StdEncoding.DecodeString(seedBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid token private key encoding: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("token private key must be a %d-byte ed25519 seed", ed25519.SeedSize)
	}

	privateKey := ed25519.NewKeyFromSeed(seed)

	return &TokenService{
		privateKey:    privateKey,
		publicKey:     privateKey.Public().(ed25519.PublicKey),
		issuer:        issuer,
		audience:      audience,
		accessExpiry:  time.Duration(accessMinutes) * time.Minute,
		refreshExpiry: time.Duration(refreshMinutes) * time.Minute,
	}, nil
}

func (ts *TokenService) IssueAccessToken(userID int64, email, role string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ts.accessExpiry)

	claims := AccessClaims{
		Email:     email,
		Role:      role,
		TokenType: constant.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    ts.issuer,
			Audience:  jwt.ClaimStrings{ts.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(ts.privateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, expiresAt, nil
}

func (ts *TokenService) IssueRefreshToken(sessionID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ts.refreshExpiry)

	claims := RefreshClaims{
		TokenType: constant.TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			Issuer:    ts.issuer,
			Audience:  jwt.ClaimStrings{ts.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(ts.privateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return signed, expiresAt, nil
}

// VerifyAccessToken checks signature, issuer, audience and expiry.
// Expired tokens surface as ErrTokenExpired so callers can attempt a
// refresh instead of forcing re-authentication.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := ts.verify(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.TokenType != constant.TokenTypeAccess {
		return nil, fmt.Errorf("%w: not an access token", autherror.ErrTokenInvalid)
	}

	return claims, nil
}

func (ts *TokenService) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := ts.verify(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.TokenType != constant.TokenTypeRefresh {
		return nil, fmt.Errorf("%w: not a refresh token", autherror.ErrTokenInvalid)
	}

	return claims, nil
}

func (ts *TokenService) verify(tokenString string, claims jwt.Claims) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(ts.issuer),
		jwt.WithAudience(ts.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockLeeway),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return ts.publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return autherror.ErrTokenExpired
		}
		return fmt.Errorf("%w: %v", autherror.ErrTokenInvalid, err)
	}

	if !token.Valid {
		return autherror.ErrTokenInvalid
	}

	return nil
}

// DecodeUnsafe decodes a token payload without verifying the signature.
// Diagnostics and logging only, never authorization.
func (ts *TokenService) DecodeUnsafe(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", autherror.ErrTokenInvalid, err)
	}

	return claims, nil
}

func (ts *TokenService) AccessTokenExpiry() time.Duration {
	return ts.accessExpiry
}

func (ts *TokenService) RefreshTokenExpiry() time.Duration {
	return ts.refreshExpiry
}
