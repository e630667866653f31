package model

import "time"

const QueueStateID uint = 1

// QueueState is the single row every advance must win a version swap on,
// so at most one concurrent advance commits a promotion.
type QueueState struct {
	ID             uint       `gorm:"primaryKey" json:"-"`
	Version        uint       `gorm:"not null;default:1" json:"version"`
	ServingTokenID *string    `gorm:"size:36" json:"servingTokenId,omitempty"`
	LastAdvancedAt *time.Time `json:"lastAdvancedAt,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
