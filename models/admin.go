package models

import "time"

// Rollen eines Kontos. Registrierung legt immer RoleUser an; Admin-Rechte
// werden nur direkt im Datenbestand vergeben.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Admin repräsentiert ein Konto im admins-Bestand. Der Bestand hält sowohl
// normale Leser-Konten (role "user") als auch Administratoren (role "admin").
type Admin struct {
	ID           string    `json:"id" bson:"_id" gorm:"primaryKey"`
	Email        string    `json:"email" bson:"email" gorm:"uniqueIndex;not null"`
	Username     string    `json:"username" bson:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         string    `json:"role" bson:"role" gorm:"index;default:'user'"`
	IsActive     bool      `json:"is_active" bson:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (Admin) TableName() string {
	return "admins"
}

// HasAdminRights meldet, ob das Konto aktive Admin-Berechtigung trägt.
// Beide Bedingungen sind Pflicht: role "admin" und isActive.
func (a *Admin) HasAdminRights() bool {
	return a.Role == RoleAdmin && a.IsActive
}
