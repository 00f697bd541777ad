package models

import "time"

// Patient 患者档案
type Patient struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:128"`
	Age       int
	Gender    string `gorm:"size:16"`
	Phone     string `gorm:"size:20"`
	VillageID uint   `gorm:"index"`
	FamilyID  string `gorm:"size:32;index"` // 家庭户编号
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VaccinationRecord 疫苗接种记录
type VaccinationRecord struct {
	ID        uint   `gorm:"primaryKey"`
	PatientID uint   `gorm:"index"`
	Vaccine   string `gorm:"size:64"`
	Dose      int
	GivenAt   *time.Time
	DueAt     time.Time `gorm:"index"` // 到期未接种可触发提醒告警
	GivenBy   *uint
	CreatedAt time.Time
}

// DiseaseCase 病例上报；同村确诊数达到阈值触发疫情告警
type DiseaseCase struct {
	ID         uint   `gorm:"primaryKey"`
	PatientID  uint   `gorm:"index"`
	Disease    string `gorm:"size:64;index"`
	Status     string `gorm:"size:16"` // suspected / confirmed / recovered
	VillageID  uint   `gorm:"index"`
	ReportedBy uint
	ReportedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
