package middleware

import (
	"strings"

	"samiti/internal/access"
	"samiti/internal/services"
	"samiti/pkg/jwt"
	"samiti/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// 上下文键
const (
	ContextKeyPrincipal = "principal"
)

// AuthMiddleware 认证中间件。只负责把JWT换成登录身份（principal），
// 不做任何组织角色判断——角色检查属于访问门禁，必须每次实时查询。
type AuthMiddleware struct {
	userService *services.UserService
	jwtManager  *jwt.Manager
}

func NewAuthMiddleware(db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		userService: services.NewUserService(db),
		jwtManager:  jwt.GetManager(),
	}
}

// RequireLogin 要求登录
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c, "认证头格式错误")
			c.Abort()
			return
		}

		tokenString := authHeader[7:]
		claims, err := m.jwtManager.VerifyToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Token无效或已过期")
			c.Abort()
			return
		}

		// 确认账号仍然有效
		user, err := m.userService.GetByID(claims.UserID)
		if err != nil || user.Status != "active" {
			response.Unauthorized(c, "账号不存在或已被禁用")
			c.Abort()
			return
		}

		c.Set(ContextKeyPrincipal, &access.Principal{
			ID:    user.ID,
			Email: user.Email,
		})

		c.Next()
	}
}

// CurrentPrincipal 从gin上下文取当前登录身份，未登录返回nil
func CurrentPrincipal(c *gin.Context) *access.Principal {
	value, exists := c.Get(ContextKeyPrincipal)
	if !exists {
		return nil
	}
	principal, ok := value.(*access.Principal)
	if !ok {
		return nil
	}
	return principal
}

// GinResolver 基于gin上下文的身份解析器，按请求构造
type GinResolver struct {
	c *gin.Context
}

func NewGinResolver(c *gin.Context) GinResolver {
	return GinResolver{c: c}
}

func (r GinResolver) CurrentPrincipal() (*access.Principal, bool) {
	principal := CurrentPrincipal(r.c)
	if principal == nil {
		return nil, false
	}
	return principal, true
}
