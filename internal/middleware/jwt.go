package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jay1247sjh/smartmall-governance-api/internal/models"
	appErrors "github.com/jay1247sjh/smartmall-governance-api/pkg/errors"
	"github.com/jay1247sjh/smartmall-governance-api/pkg/response"
)

// ContextIdentityKey is the gin context key storing the authenticated actor.
const ContextIdentityKey = "currentIdentity"

// identityClaims is the expected shape of externally issued tokens. The
// engine validates the signature but never mints tokens itself.
type identityClaims struct {
	jwt.RegisteredClaims
	Role       string `json:"role"`
	MerchantID string `json:"merchantId,omitempty"`
}

// Auth protects routes by requiring a valid externally issued bearer token.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		identity, err := parseIdentity(parts[1], secret)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token"))
			c.Abort()
			return
		}

		c.Set(ContextIdentityKey, identity)
		c.Next()
	}
}

func parseIdentity(token, secret string) (*models.Identity, error) {
	claims := &identityClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("token invalid")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	role := models.UserRole(claims.Role)
	switch role {
	case models.RoleAdmin, models.RoleMerchant, models.RoleUser:
	default:
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}
	return &models.Identity{
		UserID:     claims.Subject,
		Role:       role,
		MerchantID: claims.MerchantID,
	}, nil
}
