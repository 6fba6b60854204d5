package models

import (
	"time"
)

type Admin struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"not null" json:"-"` // Bcrypt hash, hidden from JSON
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Session backs one issued token. The token's jti is the session ID, so logging out
// revokes exactly that token.
type Session struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	AdminID   uint       `gorm:"index;not null" json:"admin_id"`
	Admin     Admin      `gorm:"foreignKey:AdminID" json:"-"`
	UserAgent string     `json:"user_agent"`
	ClientIP  string     `json:"client_ip"`
	ExpiresAt time.Time  `gorm:"index" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
