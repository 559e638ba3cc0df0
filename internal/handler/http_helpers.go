package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// groupParams 读取路径中的群与用户标识，群标识缺失时直接返回 400。
func groupParams(c *gin.Context) (string, string, bool) {
	groupID := strings.TrimSpace(c.Param("group"))
	if groupID == "" {
		respondError(c, http.StatusBadRequest, "缺少群标识")
		return "", "", false
	}
	return groupID, strings.TrimSpace(c.Param("user")), true
}
