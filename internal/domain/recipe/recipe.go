package recipe

import (
	"time"

	"github.com/yungbote/foodgram-backend/internal/domain/user"
)

type Recipe struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID    uint       `gorm:"index;not null;column:author_id" json:"author_id"`
	Author      *user.User `gorm:"foreignKey:AuthorID;references:ID" json:"author,omitempty"`
	Name        string     `gorm:"size:256;not null;column:name" json:"name"`
	Text        string     `gorm:"type:text;not null;column:text" json:"text"`
	CookingTime int        `gorm:"not null;column:cooking_time;check:chk_recipe_cooking_time,cooking_time >= 1" json:"cooking_time"`
	// ImageKey is the object key in the recipe bucket.
	ImageKey string `gorm:"not null;column:image_key" json:"-"`

	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Recipe) TableName() string { return "recipe" }

// RecipeIngredient is the amount of one ingredient used by one recipe.
type RecipeIngredient struct {
	ID           uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipeID     uint        `gorm:"not null;column:recipe_id;uniqueIndex:idx_recipe_ingredient_pair,priority:1" json:"recipe_id"`
	Recipe       *Recipe     `gorm:"foreignKey:RecipeID;references:ID" json:"-"`
	IngredientID uint        `gorm:"not null;index;column:ingredient_id;uniqueIndex:idx_recipe_ingredient_pair,priority:2" json:"ingredient_id"`
	Ingredient   *Ingredient `gorm:"foreignKey:IngredientID;references:ID" json:"ingredient,omitempty"`
	Amount       int         `gorm:"not null;column:amount;check:chk_recipe_ingredient_amount,amount >= 1" json:"amount"`
}

func (RecipeIngredient) TableName() string { return "recipe_ingredient" }
