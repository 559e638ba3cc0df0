package router

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/groupfun/internal/handler"
)

const requestIDHeader = "X-Request-ID"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API) *gin.Engine {
	r := gin.Default()
	r.Use(RequestID())
	r.Use(api.LocaleMiddleware())

	r.GET("/ping", handler.Ping)
	r.GET("/healthz", api.HealthCheck)

	// 采集方接口
	ingest := r.Group("/api")
	ingest.Use(api.IngestAuth())
	{
		ingest.POST("/messages", api.IngestMessage)
		ingest.POST("/commands", api.HandleCommand)
	}

	// 只读查询
	groups := r.Group("/api/groups/:group")
	{
		groups.GET("/leaderboard", api.GetLeaderboard)
		groups.GET("/memes", api.GetMemeRanking)
		groups.GET("/users/:user/progress", api.GetUserProgress)
	}

	r.GET("/groups/:group/board", api.ShowBoard)

	return r
}

// RequestID 为每个请求附加 X-Request-ID，已有时沿用。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(handler.WithRequestID(c.Request.Context(), id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
