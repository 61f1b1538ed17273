// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"ai-lawyer-go/internal/apperr"
	"ai-lawyer-go/internal/model"
	"strconv"

	"github.com/gin-gonic/gin"
)

// currentUser 从上下文中取出 AuthMiddleware 存入的用户资料。
func currentUser(c *gin.Context) *model.Profile {
	user, exists := c.Get("user")
	if !exists {
		return nil
	}
	profile, ok := user.(*model.Profile)
	if !ok {
		return nil
	}
	return profile
}

// abortWithError 根据错误类别写出对应的状态码与响应体。
func abortWithError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.Message(err)})
}

// queryInt 解析整型查询参数，缺失或非法时返回默认值。
func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
