package entities

import (
	"time"

	"github.com/google/uuid"
)

// APIToken is a long-lived bearer credential for machine access, mainly the
// read-only reporting service. A nil ExpiresAt means the token never expires.
type APIToken struct {
	Token     string     `gorm:"primary_key" json:"token"`
	UserID    uuid.UUID  `gorm:"index" json:"user_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}
