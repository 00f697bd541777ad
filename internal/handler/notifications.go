package handlers

import (
	"strconv"

	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/response"

	"github.com/gin-gonic/gin"
)

func currentUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Query("userId"), 10, 32)
	if err != nil || id == 0 {
		response.Fail(c, "userId is required", nil)
		return 0, false
	}
	return uint(id), true
}

func (h *Handlers) handleListNotifications(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	q := h.db.Where("user_id = ?", uid)
	if c.Query("unread") == "true" {
		q = q.Where("read = ?", false)
	}
	var ns []models.InAppNotification
	if err := q.Order("id desc").Limit(200).Find(&ns).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Success(c, "success", gin.H{"notifications": ns})
}

func (h *Handlers) handleUnreadNotificationCount(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var n int64
	err := h.db.Model(&models.InAppNotification{}).
		Where("user_id = ? AND read = ?", uid, false).Count(&n).Error
	if err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Success(c, "success", gin.H{"count": n})
}

func (h *Handlers) handleMarkNotificationRead(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	res := h.db.Model(&models.InAppNotification{}).
		Where("id = ? AND user_id = ?", c.Param("id"), uid).
		Update("read", true)
	if res.Error != nil {
		response.Fail(c, "error", gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		response.NotFound(c, "notification not found")
		return
	}
	response.Success(c, "marked read", nil)
}

func (h *Handlers) handleReadAllNotifications(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	err := h.db.Model(&models.InAppNotification{}).
		Where("user_id = ? AND read = ?", uid, false).
		Update("read", true).Error
	if err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Success(c, "all read", nil)
}
