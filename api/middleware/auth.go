package middleware

import (
	"fmt"
	"strings"
	"time"

	"marketplace/api/ctxutil"
	"marketplace/api/response"
	apporder "marketplace/application/order"
	"marketplace/config"
	"marketplace/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims JWT 载荷：sub 为用户 ID，role 为 USER 或 ADMIN
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken 签发 HS256 令牌
func IssueToken(cfg *config.AuthConfig, userID string, role apporder.Role, now time.Time) (string, error) {
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

// ParseToken 校验签名、签发方与过期时间
func ParseToken(cfg *config.AuthConfig, tokenString string) (apporder.Caller, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return apporder.Caller{}, err
	}
	if claims.Subject == "" {
		return apporder.Caller{}, fmt.Errorf("token has no subject")
	}

	role := apporder.Role(claims.Role)
	switch role {
	case apporder.RoleUser, apporder.RoleAdmin:
	case "":
		role = apporder.RoleUser
	default:
		return apporder.Caller{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	return apporder.Caller{ID: claims.Subject, Role: role}, nil
}

// Auth JWT 认证中间件
func Auth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, errors.Unauthorized("missing bearer token"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Abort(c, errors.Unauthorized("malformed authorization header"))
			return
		}

		caller, err := ParseToken(cfg, parts[1])
		if err != nil {
			response.Abort(c, errors.Unauthorized("invalid token"))
			return
		}

		ctxutil.SetCaller(c, caller)
		c.Next()
	}
}

// RequireAdmin 只放行管理员
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := ctxutil.CallerFrom(c)
		if !ok {
			response.Abort(c, errors.Unauthorized("authentication required"))
			return
		}
		if !caller.IsAdmin() {
			response.Abort(c, errors.Forbidden("admin role required"))
			return
		}
		c.Next()
	}
}
