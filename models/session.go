package models

import "time"

// Session ist eine serverseitig geführte Anmeldung: angelegt beim Login,
// gelöscht beim Logout, abgelaufene Einträge räumt der Cron-Job weg.
type Session struct {
	Token     string    `json:"token" bson:"_id" gorm:"primaryKey"`
	Username  string    `json:"username" bson:"username" gorm:"index"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at" gorm:"index"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Session) TableName() string {
	return "sessions"
}

// Expired meldet, ob die Session zum Zeitpunkt now abgelaufen ist.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
