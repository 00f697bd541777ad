package models

import "time"

// District 区县
type District struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:128"`
	Code      string `gorm:"uniqueIndex;size:32"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Block 乡镇，隶属区县
type Block struct {
	ID         uint   `gorm:"primaryKey"`
	DistrictID uint   `gorm:"index"`
	Name       string `gorm:"size:128"`
	Code       string `gorm:"uniqueIndex;size:32"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Village 村，隶属乡镇
type Village struct {
	ID        uint   `gorm:"primaryKey"`
	BlockID   uint   `gorm:"index"`
	Name      string `gorm:"size:128"`
	Code      string `gorm:"uniqueIndex;size:32"`
	Lat       float64
	Lng       float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RegistrationToken 基层工作者注册令牌
type RegistrationToken struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"uniqueIndex;size:36"`
	Role      Role      `gorm:"size:32"`
	VillageID *uint
	ExpiresAt time.Time
	UsedBy    *uint
	CreatedAt time.Time
}
