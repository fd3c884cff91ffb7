package recipe

import (
	"time"

	"github.com/yungbote/foodgram-backend/internal/domain/user"
)

// Favorite marks a recipe as favorited by a user.
type Favorite struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint       `gorm:"not null;column:user_id;uniqueIndex:idx_favorite_pair,priority:1" json:"user_id"`
	User      *user.User `gorm:"foreignKey:UserID;references:ID" json:"-"`
	RecipeID  uint       `gorm:"not null;index;column:recipe_id;uniqueIndex:idx_favorite_pair,priority:2" json:"recipe_id"`
	Recipe    *Recipe    `gorm:"foreignKey:RecipeID;references:ID" json:"-"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Favorite) TableName() string { return "favorite" }

// ShoppingCart marks a recipe whose ingredients go into the user's shopping list.
type ShoppingCart struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint       `gorm:"not null;column:user_id;uniqueIndex:idx_shopping_cart_pair,priority:1" json:"user_id"`
	User      *user.User `gorm:"foreignKey:UserID;references:ID" json:"-"`
	RecipeID  uint       `gorm:"not null;index;column:recipe_id;uniqueIndex:idx_shopping_cart_pair,priority:2" json:"recipe_id"`
	Recipe    *Recipe    `gorm:"foreignKey:RecipeID;references:ID" json:"-"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (ShoppingCart) TableName() string { return "shopping_cart" }
