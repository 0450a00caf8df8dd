package models

import "time"

// Category ist eine benannte Gruppierung für Artikel. Der Name ist eindeutig.
type Category struct {
	ID        string    `json:"id" bson:"_id" gorm:"primaryKey"`
	Name      string    `json:"name" bson:"name" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Category) TableName() string {
	return "categories"
}

// Ref liefert den einbettbaren Snapshot dieser Kategorie.
func (c Category) Ref() CategoryRef {
	return CategoryRef{ID: c.ID, Name: c.Name}
}
