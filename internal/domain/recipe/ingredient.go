package recipe

type Ingredient struct {
	ID              uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string `gorm:"size:128;uniqueIndex;not null;column:name" json:"name"`
	MeasurementUnit string `gorm:"size:64;not null;column:measurement_unit" json:"measurement_unit"`
}

func (Ingredient) TableName() string { return "ingredient" }
