package storage

import (
	"context"
	"errors"
	"time"

	"edupoint/models"
)

// Sentinel-Fehler des Gateways. Aufrufer unterscheiden damit "nicht gefunden"
// von Transport- und Serverfehlern.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// ArticleQuery bündelt die Filter für Listen-Abfragen.
type ArticleQuery struct {
	CategoryName string
	Limit        int
}

// ArticleUpdate beschreibt eine Teil-Aktualisierung; nil-Felder bleiben
// unberührt.
type ArticleUpdate struct {
	Title    *string
	Content  *string
	ImageURL *string
	Category *models.CategoryRef
	Tags     *[]string
}

// IsEmpty meldet, ob die Aktualisierung kein einziges Feld setzt.
func (u ArticleUpdate) IsEmpty() bool {
	return u.Title == nil && u.Content == nil && u.ImageURL == nil &&
		u.Category == nil && u.Tags == nil
}

// Gateway ist die einzige Persistenz-Schnittstelle der Anwendung. Das Backend
// (Postgres oder Mongo) wird einmalig per Konfiguration gewählt, nicht pro
// Seite dupliziert.
type Gateway interface {
	ListArticles(ctx context.Context, q ArticleQuery) ([]models.Article, error)
	ArticleByID(ctx context.Context, id string) (*models.Article, error)
	ArticlesByCategory(ctx context.Context, categoryName, excludeID string, limit int) ([]models.Article, error)
	CreateArticle(ctx context.Context, article *models.Article) error
	UpdateArticle(ctx context.Context, id string, upd ArticleUpdate) error
	DeleteArticle(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	CategoryByID(ctx context.Context, id string) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id string) error

	AdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	AdminByUsername(ctx context.Context, username string) (*models.Admin, error)
	CreateAdmin(ctx context.Context, admin *models.Admin) error

	SaveSession(ctx context.Context, session *models.Session) error
	SessionByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)

	Close(ctx context.Context) error
}
