package handlers

import (
	"net/http"
	"time"

	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/response"
	"SwasthyaWatch/pkg/util"

	"github.com/gin-gonic/gin"
)

// handleCreateWaterTest 录入水质检测；判定污染时发水污染信号
func (h *Handlers) handleCreateWaterTest(c *gin.Context) {
	var t models.WaterQualityTest
	if err := c.ShouldBindJSON(&t); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if t.VillageID == 0 {
		response.Fail(c, "villageId is required", nil)
		return
	}
	if t.TestedAt.IsZero() {
		t.TestedAt = time.Now()
	}
	if t.IsContaminated() {
		t.Result = "contaminated"
	} else {
		t.Result = "safe"
	}
	if err := h.db.Create(&t).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}

	if t.Result == "contaminated" {
		util.Sig().Emit(models.SigWaterContaminated, models.ContaminationEvent{
			Test:       t,
			ReportedBy: t.TestedBy,
		})
	}
	response.Created(c, "test recorded", t)
}

func (h *Handlers) handleListWaterTests(c *gin.Context) {
	q := h.db.Model(&models.WaterQualityTest{})
	if v := c.Query("villageId"); v != "" {
		q = q.Where("village_id = ?", v)
	}
	if r := c.Query("result"); r != "" {
		q = q.Where("result = ?", r)
	}
	var tests []models.WaterQualityTest
	if err := q.Order("id desc").Limit(500).Find(&tests).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Success(c, "success", gin.H{"tests": tests})
}
