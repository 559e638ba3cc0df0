package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// IngestAuth 校验采集方的 Bearer token。未配置哈希时放行。
func (a *API) IngestAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.ingestTokenHash == "" {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "缺少访问令牌"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(a.ingestTokenHash), []byte(token)); err != nil {
			a.logFor(c.Request.Context()).Warn("ingest token rejected", "remote", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "访问令牌无效"})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	trimmed := strings.TrimSpace(header)
	if len(trimmed) <= len(prefix) || !strings.EqualFold(trimmed[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(trimmed[len(prefix):])
	return token, token != ""
}
