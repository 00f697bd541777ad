package handlers

import (
	"github.com/gin-gonic/gin"
)

// handleSSE 告警通知的 SSE 订阅，?userId=&group= 可加入行政区组
func (h *Handlers) handleSSE(c *gin.Context) {
	uid := c.Query("userId")
	if uid == "" {
		c.AbortWithStatusJSON(400, gin.H{"error": "userId is required"})
		return
	}
	h.sseHub.Serve(c, uid)
}

// handleWS 仪表盘的 WebSocket 连接
func (h *Handlers) handleWS(c *gin.Context) {
	uid := c.Query("userId")
	if uid == "" {
		c.AbortWithStatusJSON(400, gin.H{"error": "userId is required"})
		return
	}
	h.wsHub.Serve(c.Writer, c.Request, uid)
}
