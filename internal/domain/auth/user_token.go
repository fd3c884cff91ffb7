package auth

import (
	"time"

	"github.com/yungbote/foodgram-backend/internal/domain/user"
)

// UserToken is the server-side record of an issued access token. A JWT without
// a matching row is treated as logged out.
type UserToken struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint       `gorm:"index;not null;column:user_id" json:"user_id"`
	User        *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	AccessToken string     `gorm:"uniqueIndex;not null;column:access_token" json:"-"`
	ExpiresAt   time.Time  `gorm:"not null;column:expires_at" json:"expires_at"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (UserToken) TableName() string { return "user_token" }
