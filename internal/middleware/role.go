package middleware

import (
	"ai-lawyer-go/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole 检查当前用户是否具有指定角色，admin 角色始终放行。
// 此中间件必须在 AuthMiddleware 之后使用。
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从 AuthMiddleware 设置的上下文中获取 user 对象
		user, exists := c.Get("user")
		if !exists {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		profile, ok := user.(*model.Profile)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		if profile.Role != role && profile.Role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "you do not have permission to perform this action"})
			return
		}

		c.Next()
	}
}
