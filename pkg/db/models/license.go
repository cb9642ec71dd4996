package models

// Publisher is the company behind one or more game licenses.
type Publisher struct {
	ID   uint   `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name;not null"`
}

// License is a game title. Items reference it; reports group by it.
type License struct {
	ID          uint   `gorm:"column:id;primaryKey"`
	Name        string `gorm:"column:name;not null"`
	PublisherID uint   `gorm:"column:publisher_id;not null;index"`
}
