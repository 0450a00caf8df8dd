package models

import "time"

// DefaultCategoryName wird angezeigt, wenn ein Artikel keine Kategorie trägt.
const DefaultCategoryName = "Uncategorized"

// CategoryRef ist der denormalisierte Kategorie-Verweis eines Artikels.
// Ein Snapshot zum Zeitpunkt der Erstellung: spätere Umbenennungen der
// Kategorie wirken nicht auf bestehende Artikel zurück.
type CategoryRef struct {
	ID   string `json:"id" bson:"id" gorm:"column:category_id;index"`
	Name string `json:"name" bson:"name" gorm:"column:category_name;index"`
}

// DisplayName liefert den Kategorienamen mit explizitem Fallback.
func (c CategoryRef) DisplayName() string {
	if c.Name == "" {
		return DefaultCategoryName
	}
	return c.Name
}

// AuthorRef ist der denormalisierte Autor-Verweis eines Artikels.
type AuthorRef struct {
	ID       string `json:"id" bson:"id" gorm:"column:author_id;index"`
	Username string `json:"username" bson:"username" gorm:"column:author_username"`
}

// Article repräsentiert einen veröffentlichten Inhalt mit Titel, Text, Bild,
// Kategorie- und Autor-Snapshot.
type Article struct {
	ID        string    `json:"id" bson:"_id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`

	Title    string      `json:"title" bson:"title" gorm:"not null"`
	Content  string      `json:"content" bson:"content" gorm:"type:text"`
	ImageURL string      `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Category CategoryRef `json:"category" bson:"category" gorm:"embedded"`
	Author   AuthorRef   `json:"user" bson:"user" gorm:"embedded"`

	Tags []string `json:"tags,omitempty" bson:"tags,omitempty" gorm:"serializer:json;type:text"`
}

// TableName gibt explizit den Tabellennamen an.
func (Article) TableName() string {
	return "articles"
}
