package handlers

import (
	"net/http"
	"strconv"

	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/response"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) handleCreateUser(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if user.Role == "" {
		user.Role = models.RoleVillager
	}
	user.Active = true
	if err := h.db.Create(&user).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Created(c, "user created", user)
}

func (h *Handlers) handleListUsers(c *gin.Context) {
	q := h.db.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if v := c.Query("villageId"); v != "" {
		q = q.Where("village_id = ?", v)
	}
	if active := c.Query("active"); active != "" {
		q = q.Where("active = ?", active == "true")
	}
	var users []models.User
	if err := q.Order("id").Limit(500).Find(&users).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Success(c, "success", gin.H{"users": users})
}

func (h *Handlers) handleGetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.Fail(c, "invalid user id", nil)
		return
	}
	var user models.User
	if err := h.db.First(&user, uint(id)).Error; err != nil {
		response.NotFound(c, "user not found")
		return
	}
	response.Success(c, "success", user)
}

func (h *Handlers) handleUpdateUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.Fail(c, "invalid user id", nil)
		return
	}
	var user models.User
	if err := h.db.First(&user, uint(id)).Error; err != nil {
		response.NotFound(c, "user not found")
		return
	}
	var in models.User
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.ID = user.ID
	if err := h.db.Model(&user).Updates(&in).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Success(c, "user updated", user)
}

type preferencesRequest struct {
	PreferredChannel models.Channel `json:"preferredChannel"`
	DNDStart         string         `json:"dndStart"`
	DNDEnd           string         `json:"dndEnd"`
	BatchFrequency   string         `json:"batchFrequency"`
}

// handleUpdateUserPreferences 只改投递偏好；已建告警的接收人快照不受影响
func (h *Handlers) handleUpdateUserPreferences(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.Fail(c, "invalid user id", nil)
		return
	}
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PreferredChannel != "" && !req.PreferredChannel.Valid() {
		response.Fail(c, "unknown channel", nil)
		return
	}
	err = h.db.Model(&models.User{}).Where("id = ?", uint(id)).Updates(map[string]interface{}{
		"preferred_channel": req.PreferredChannel,
		"dnd_start":         req.DNDStart,
		"dnd_end":           req.DNDEnd,
		"batch_frequency":   req.BatchFrequency,
	}).Error
	if err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Success(c, "preferences updated", nil)
}

// handleDeleteUser 软停用而非删除，历史告警仍引用该用户
func (h *Handlers) handleDeleteUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.Fail(c, "invalid user id", nil)
		return
	}
	res := h.db.Model(&models.User{}).Where("id = ?", uint(id)).Update("active", false)
	if res.Error != nil {
		response.Fail(c, "error", gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		response.NotFound(c, "user not found")
		return
	}
	response.Success(c, "user deactivated", nil)
}
