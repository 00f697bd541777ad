package handlers

import (
	"net/http"
	"time"

	"SwasthyaWatch/internal/models"
	"SwasthyaWatch/pkg/response"
	"SwasthyaWatch/pkg/util"

	"github.com/gin-gonic/gin"
)

// 同村同病 14 天内确诊数达到该值判定为疫情
const outbreakCaseThreshold = 3

func (h *Handlers) handleCreatePatient(c *gin.Context) {
	var p models.Patient
	if err := c.ShouldBindJSON(&p); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.db.Create(&p).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Created(c, "patient created", p)
}

func (h *Handlers) handleListPatients(c *gin.Context) {
	q := h.db.Model(&models.Patient{})
	if v := c.Query("villageId"); v != "" {
		q = q.Where("village_id = ?", v)
	}
	if f := c.Query("familyId"); f != "" {
		q = q.Where("family_id = ?", f)
	}
	var ps []models.Patient
	if err := q.Order("id").Limit(500).Find(&ps).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Success(c, "success", gin.H{"patients": ps})
}

func (h *Handlers) handleCreateVaccination(c *gin.Context) {
	var v models.VaccinationRecord
	if err := c.ShouldBindJSON(&v); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if v.PatientID == 0 {
		response.Fail(c, "patientId is required", nil)
		return
	}
	if err := h.db.Create(&v).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Created(c, "vaccination recorded", v)
}

// handleListDueVaccinations 七天内到期且未接种的记录
func (h *Handlers) handleListDueVaccinations(c *gin.Context) {
	cutoff := time.Now().AddDate(0, 0, 7)
	var due []models.VaccinationRecord
	err := h.db.
		Where("given_at IS NULL AND due_at < ?", cutoff).
		Order("due_at").Limit(500).Find(&due).Error
	if err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Success(c, "success", gin.H{"due": due})
}

// handleReportCase 病例上报；确诊数达阈值时发疫情信号
func (h *Handlers) handleReportCase(c *gin.Context) {
	var dc models.DiseaseCase
	if err := c.ShouldBindJSON(&dc); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if dc.Disease == "" || dc.VillageID == 0 {
		response.Fail(c, "disease and villageId are required", nil)
		return
	}
	if dc.ReportedAt.IsZero() {
		dc.ReportedAt = time.Now()
	}
	if dc.Status == "" {
		dc.Status = "suspected"
	}
	if err := h.db.Create(&dc).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}

	if dc.Status == "confirmed" {
		var n int64
		since := time.Now().AddDate(0, 0, -14)
		err := h.db.Model(&models.DiseaseCase{}).
			Where("village_id = ? AND disease = ? AND status = ? AND reported_at > ?",
				dc.VillageID, dc.Disease, "confirmed", since).
			Count(&n).Error
		if err == nil && n >= outbreakCaseThreshold {
			util.Sig().Emit(models.SigOutbreakDetected, models.OutbreakEvent{
				Disease:    dc.Disease,
				VillageID:  dc.VillageID,
				CaseCount:  int(n),
				ReportedBy: dc.ReportedBy,
			})
		}
	}
	response.Created(c, "case reported", dc)
}

func (h *Handlers) handleListCases(c *gin.Context) {
	q := h.db.Model(&models.DiseaseCase{})
	if v := c.Query("villageId"); v != "" {
		q = q.Where("village_id = ?", v)
	}
	if d := c.Query("disease"); d != "" {
		q = q.Where("disease = ?", d)
	}
	if s := c.Query("status"); s != "" {
		q = q.Where("status = ?", s)
	}
	var cases []models.DiseaseCase
	if err := q.Order("id desc").Limit(500).Find(&cases).Error; err != nil {
		response.Fail(c, "error", gin.H{"error": err.Error()})
		return
	}
	response.Success(c, "success", gin.H{"cases": cases})
}
