package models

import "time"

// WaterQualityTest 水质检测记录；判定污染时触发水污染告警
type WaterQualityTest struct {
	ID           uint   `gorm:"primaryKey"`
	VillageID    uint   `gorm:"index"`
	SourceType   string `gorm:"size:32"` // handpump / well / tap / pond
	PH           float64
	TurbidityNTU float64
	TDS          float64
	EColi        bool
	Result       string `gorm:"size:16;index"` // safe / contaminated
	TestedBy     uint
	TestedAt     time.Time
	CreatedAt    time.Time
}

// IsContaminated 按检测值判定是否污染
func (w *WaterQualityTest) IsContaminated() bool {
	return w.EColi || w.PH < 6.5 || w.PH > 8.5 || w.TurbidityNTU > 5 || w.TDS > 2000
}
