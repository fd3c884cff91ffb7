package user

import (
	"time"
)

type User struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string `gorm:"size:254;uniqueIndex;not null;column:email" json:"email"`
	Username  string `gorm:"size:150;uniqueIndex;not null;column:username" json:"username"`
	FirstName string `gorm:"size:150;not null;column:first_name" json:"first_name"`
	LastName  string `gorm:"size:150;not null;column:last_name" json:"last_name"`
	Password  string `gorm:"not null;column:password" json:"-"`
	// AvatarKey is the object key in the avatar bucket; empty means no avatar.
	AvatarKey string `gorm:"column:avatar_key" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }
