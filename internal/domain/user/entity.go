package user

import (
	"time"

	"github.com/google/uuid"
)

// Role values carried on the user row and echoed into the access token. The
// role claim is trusted downstream exactly as issued here.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents the users table
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Username     string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	DisplayName  string
	Role         string `gorm:"not null;default:user"` // admin, user
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Relationships
	Sessions []UserSession
}

// UserSession represents the user_sessions table
type UserSession struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID `gorm:"type:uuid;index;not null"`
	RefreshTokenHash string    `gorm:"not null"`
	ExpiresAt        time.Time
	IsRevoked        bool `gorm:"not null;default:false"`
	CreatedAt        time.Time
}

func (User) TableName() string {
	return "users"
}

func (UserSession) TableName() string {
	return "user_sessions"
}
