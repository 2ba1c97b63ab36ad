package entities

import (
	"github.com/google/uuid"
)

type Image struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID       uuid.UUID `gorm:"index" json:"user_id"`
	S3Key        string    `json:"s3_key"`
	Workload     string    `json:"workload"` // "cloud", "premise"
	Status       string    `gorm:"index" json:"status"` // "queued", "in_process", "finished", "error"
	StatusReason string    `json:"status_reason,omitempty"`
	ResultJSON   string    `gorm:"type:text" json:"result_json,omitempty"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}
