package model

import (
	"time"

	"clinic-queue.com/clinic-queue/internal/constants"
)

type Token struct {
	ID          string                `gorm:"primaryKey;size:36" json:"id"`
	TokenNumber int64                 `gorm:"not null;uniqueIndex" json:"tokenNumber"`
	PatientName string                `gorm:"size:50;not null" json:"patientName"`
	PhoneNumber string                `gorm:"size:15;not null" json:"phoneNumber"`
	IsVIP       bool                  `gorm:"column:is_vip;not null;default:false" json:"isVIP"`
	Status      constants.TokenStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Version     uint                  `gorm:"not null;default:1" json:"-"`
	CreatedAt   time.Time             `json:"createdAt"`
	ServedAt    *time.Time            `json:"servedAt,omitempty"`
	CompletedAt *time.Time            `json:"completedAt,omitempty"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}
