package models

import "time"

// Vendor consigns games and is owed the proceeds of their sale.
type Vendor struct {
	ID        uint      `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email"`
	Phone     string    `gorm:"column:phone"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

type Buyer struct {
	ID        uint      `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// PromoCode grants Reduction percent off, 0 to 100.
type PromoCode struct {
	Code      string `gorm:"column:code;primaryKey"`
	Reduction int    `gorm:"column:reduction;not null;default:0"`
}
