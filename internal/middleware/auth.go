package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

// AdminTokenHeader 不便设置 Authorization 时使用的备用请求头
const AdminTokenHeader = "X-Admin-Token"

// AdminAuthMiddleware 管理接口校验，接受 Authorization: Bearer <token> 或 X-Admin-Token
func AdminAuthMiddleware(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		got := c.GetHeader(AdminTokenHeader)
		if bearer, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
			got = strings.TrimSpace(bearer)
		}
		if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
			klog.V(6).Infof("[AdminAuth] 拒绝请求: %s %s", c.Request.Method, c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
