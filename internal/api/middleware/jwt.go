package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"eventfin.io/eventfin/internal/domain"
	apperrors "eventfin.io/eventfin/internal/pkg/errors"
)

// JWTClaims carries the caller's identity. Tokens are issued by the
// platform's authentication service; GenerateToken exists for seeding and
// tests.
type JWTClaims struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
	jwt.RegisteredClaims
}

// JWTConfig holds token signing and verification settings.
type JWTConfig struct {
	SigningKey []byte
	// VerificationKeys are accepted in addition to SigningKey during key rotation.
	VerificationKeys [][]byte
	Issuer           string
	ExpiresIn        time.Duration
}

// GenerateToken creates a signed JWT for p.
func GenerateToken(cfg JWTConfig, p domain.Principal) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(cfg.ExpiresIn)
	jti, err := uuid.NewV7()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token id: %w", err)
	}

	claims := JWTClaims{
		UserID:         p.UserID.String(),
		OrganizationID: p.OrganizationID.String(),
		Role:           string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			Issuer:    cfg.Issuer,
			Subject:   p.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(cfg.SigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ValidateToken verifies tokenString against every configured key.
func (cfg JWTConfig) ValidateToken(_ context.Context, tokenString string) (*JWTClaims, error) {
	keys := append([][]byte{cfg.SigningKey}, cfg.VerificationKeys...)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	var lastErr error
	for _, key := range keys {
		if len(key) == 0 {
			continue
		}
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		}, opts...)
		if err == nil && token.Valid {
			return claims, nil
		}
		lastErr = err
		if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			break
		}
	}
	if lastErr == nil {
		lastErr = jwt.ErrTokenUnverifiable
	}
	return nil, lastErr
}

// Principal converts verified claims into the typed caller.
func (c *JWTClaims) Principal() (domain.Principal, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("user_id: %w", err)
	}
	orgID, err := uuid.Parse(c.OrganizationID)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("organization_id: %w", err)
	}
	role, err := domain.ParseRole(c.Role)
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{UserID: userID, OrganizationID: orgID, Role: role}, nil
}

// JWTAuth validates Bearer tokens and stores the caller's Principal in the
// request context.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithAppError(c, apperrors.Unauthorized(apperrors.CodeUnauthorized, "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithAppError(c, apperrors.Unauthorized(apperrors.CodeUnauthorized, "invalid authorization header format"))
			return
		}

		claims, err := cfg.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithAppError(c, apperrors.Unauthorized(apperrors.CodeTokenExpired, "token expired"))
				return
			}
			abortWithAppError(c, apperrors.Unauthorized(apperrors.CodeTokenInvalid, "invalid token"))
			return
		}

		p, err := claims.Principal()
		if err != nil {
			abortWithAppError(c, apperrors.Unauthorized(apperrors.CodeTokenInvalid, "invalid token claims"))
			return
		}

		c.Set(string(ctxKeyPrincipal), p)
		c.Request = c.Request.WithContext(SetPrincipal(c.Request.Context(), p))
		c.Next()
	}
}
