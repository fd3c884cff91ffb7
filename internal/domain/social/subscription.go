package social

import (
	"time"

	"github.com/yungbote/foodgram-backend/internal/domain/user"
)

// Subscription is UserID following AuthorID. The two are never equal.
type Subscription struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint       `gorm:"not null;column:user_id;uniqueIndex:idx_subscription_pair,priority:1;check:chk_subscription_not_self,user_id <> author_id" json:"user_id"`
	User      *user.User `gorm:"foreignKey:UserID;references:ID" json:"-"`
	AuthorID  uint       `gorm:"not null;index;column:author_id;uniqueIndex:idx_subscription_pair,priority:2" json:"author_id"`
	Author    *user.User `gorm:"foreignKey:AuthorID;references:ID" json:"-"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Subscription) TableName() string { return "subscription" }
