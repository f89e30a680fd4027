package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/mall/internal/domain/user"
	apperrors "github.com/xiebiao/mall/pkg/errors"
	"github.com/xiebiao/mall/pkg/jwt"
	"github.com/xiebiao/mall/pkg/response"
)

// Context中的用户信息key
const (
	ctxUserID   = "user_id"
	ctxEmail    = "email"
	ctxNickname = "nickname"
	ctxRole     = "role"
	ctxToken    = "access_token"
	ctxExpires  = "token_expires_at"
)

// Blacklist Token黑名单(*redis.SessionStore实现了该接口)
type Blacklist interface {
	IsInBlacklist(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware JWT认证中间件
// 先验签再查黑名单，伪造的Token不会打到Redis
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	blacklist  Blacklist
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, blacklist Blacklist) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		blacklist:  blacklist,
	}
}

// RequireAuth 要求携带有效的Access Token（Authorization: Bearer <token>）
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abort(c, err)
			return
		}

		claims, err := m.jwtManager.ParseAccessToken(tokenString)
		if err != nil {
			abort(c, err)
			return
		}

		revoked, err := m.blacklist.IsInBlacklist(c.Request.Context(), tokenString)
		if err != nil {
			abort(c, apperrors.WithCode(apperrors.ErrCodeInternal, err, "验证Token失败"))
			return
		}
		if revoked {
			abort(c, apperrors.New(apperrors.ErrCodeTokenExpired, "Token已失效，请重新登录"))
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxNickname, claims.Nickname)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxToken, tokenString)
		if claims.ExpiresAt != nil {
			c.Set(ctxExpires, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperrors.New(apperrors.ErrCodeUnauthorized, "请先登录")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", apperrors.New(apperrors.ErrCodeInvalidToken, "Token格式错误")
	}
	return token, nil
}

func abort(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}

// RequireAdmin 要求管理员角色
// 必须放在RequireAuth之后
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != user.RoleAdmin {
			abort(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// GetUserID 从Context获取当前登录用户ID，未登录返回0
func GetUserID(c *gin.Context) uint {
	if userID, exists := c.Get(ctxUserID); exists {
		if uid, ok := userID.(uint); ok {
			return uid
		}
	}
	return 0
}

// GetRole 当前用户角色
func GetRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

// GetAccessToken 当前请求的Access Token（登出时加入黑名单）
func GetAccessToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}

// GetTokenExpiresAt 当前Access Token的过期时间，未知时为零值
func GetTokenExpiresAt(c *gin.Context) time.Time {
	if v, ok := c.Get(ctxExpires); ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}
