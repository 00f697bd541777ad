package handlers

import (
	"net/http"
	"time"

	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (h *Handlers) handleCreateDistrict(c *gin.Context) {
	var d models.District
	if err := c.ShouldBindJSON(&d); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.db.Create(&d).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Created(c, "district created", d)
}

func (h *Handlers) handleListDistricts(c *gin.Context) {
	var ds []models.District
	if err := h.db.Order("id").Find(&ds).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Success(c, "success", gin.H{"districts": ds})
}

func (h *Handlers) handleCreateBlock(c *gin.Context) {
	var b models.Block
	if err := c.ShouldBindJSON(&b); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if b.DistrictID == 0 {
		response.Fail(c, "districtId is required", nil)
		return
	}
	if err := h.db.Create(&b).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Created(c, "block created", b)
}

func (h *Handlers) handleListBlocks(c *gin.Context) {
	q := h.db.Model(&models.Block{})
	if d := c.Query("districtId"); d != "" {
		q = q.Where("district_id = ?", d)
	}
	var bs []models.Block
	if err := q.Order("id").Find(&bs).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Success(c, "success", gin.H{"blocks": bs})
}

func (h *Handlers) handleCreateVillage(c *gin.Context) {
	var v models.Village
	if err := c.ShouldBindJSON(&v); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if v.BlockID == 0 {
		response.Fail(c, "blockId is required", nil)
		return
	}
	if err := h.db.Create(&v).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Created(c, "village created", v)
}

func (h *Handlers) handleListVillages(c *gin.Context) {
	q := h.db.Model(&models.Village{})
	if b := c.Query("blockId"); b != "" {
		q = q.Where("block_id = ?", b)
	}
	var vs []models.Village
	if err := q.Order("id").Find(&vs).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Success(c, "success", gin.H{"villages": vs})
}

type issueTokenRequest struct {
	Role      models.Role `json:"role" binding:"required"`
	VillageID *uint       `json:"villageId"`
	TTLHours  int         `json:"ttlHours"`
}

// handleIssueToken 签发基层工作者注册令牌
func (h *Handlers) handleIssueToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TTLHours <= 0 {
		req.TTLHours = 72
	}
	tok := models.RegistrationToken{
		Token:     uuid.NewString(),
		Role:      req.Role,
		VillageID: req.VillageID,
		ExpiresAt: time.Now().Add(time.Duration(req.TTLHours) * time.Hour),
	}
	if err := h.db.Create(&tok).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Created(c, "token issued", tok)
}

type redeemTokenRequest struct {
	Token string      `json:"token" binding:"required"`
	User  models.User `json:"user" binding:"required"`
}

// handleRedeemToken 令牌换注册：创建对应角色与村的目录用户，令牌一次性
func (h *Handlers) handleRedeemToken(c *gin.Context) {
	var req redeemTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var tok models.RegistrationToken
	if err := h.db.Where("token = ?", req.Token).First(&tok).Error; err != nil {
		response.NotFound(c, "token not found")
		return
	}
	if tok.UsedBy != nil {
		response.FailWithStatus(c, http.StatusConflict, "token already used")
		return
	}
	if time.Now().After(tok.ExpiresAt) {
		response.FailWithStatus(c, http.StatusGone, "token expired")
		return
	}

	user := req.User
	user.Role = tok.Role
	user.VillageID = tok.VillageID
	user.Active = true
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Model(&tok).Update("used_by", user.ID).Error
	})
	if err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Created(c, "registered", user)
}
