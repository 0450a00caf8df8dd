package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"edupoint/config"
	"edupoint/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Postgres implementiert das Gateway über GORM (REST-Backend-Variante).
type Postgres struct {
	db *gorm.DB
}

// NewPostgres verbindet sich mit der Datenbank und führt die Auto-Migration aus.
func NewPostgres(cfg *config.Config) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Article{},
		&models.Category{},
		&models.Admin{},
		&models.Session{},
	); err != nil {
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}

	return &Postgres{db: db}, nil
}

func (p *Postgres) ListArticles(ctx context.Context, q ArticleQuery) ([]models.Article, error) {
	query := p.db.WithContext(ctx).Model(&models.Article{})
	if q.CategoryName != "" {
		query = query.Where("category_name = ?", q.CategoryName)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var articles []models.Article
	if err := query.Order("created_at desc").Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

func (p *Postgres) ArticleByID(ctx context.Context, id string) (*models.Article, error) {
	var article models.Article
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &article, nil
}

func (p *Postgres) ArticlesByCategory(ctx context.Context, categoryName, excludeID string, limit int) ([]models.Article, error) {
	var articles []models.Article
	err := p.db.WithContext(ctx).
		Where("category_name = ? AND id <> ?", categoryName, excludeID).
		Order("created_at desc").
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return articles, nil
}

func (p *Postgres) CreateArticle(ctx context.Context, article *models.Article) error {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	return p.db.WithContext(ctx).Create(article).Error
}

func (p *Postgres) UpdateArticle(ctx context.Context, id string, upd ArticleUpdate) error {
	if upd.IsEmpty() {
		return errors.New("no updatable fields provided")
	}

	// Zuerst prüfen, ob der Artikel existiert
	var article models.Article
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	// Map nur mit den gesetzten Feldern befüllen
	updates := map[string]any{}
	if upd.Title != nil {
		updates["title"] = *upd.Title
	}
	if upd.Content != nil {
		updates["content"] = *upd.Content
	}
	if upd.ImageURL != nil {
		updates["image_url"] = *upd.ImageURL
	}
	if upd.Category != nil {
		updates["category_id"] = upd.Category.ID
		updates["category_name"] = upd.Category.Name
	}
	if upd.Tags != nil {
		// Map-Updates laufen am Serializer vorbei, deshalb hier selbst als JSON ablegen
		b, err := json.Marshal(*upd.Tags)
		if err != nil {
			return err
		}
		updates["tags"] = string(b)
	}

	return p.db.WithContext(ctx).Model(&article).Updates(updates).Error
}

func (p *Postgres) DeleteArticle(ctx context.Context, id string) error {
	res := p.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Article{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := p.db.WithContext(ctx).Order("created_at asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (p *Postgres) CategoryByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (p *Postgres) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}

	// Namens-Eindeutigkeit vorab prüfen, damit der Aufrufer ein sauberes
	// ErrDuplicate statt eines Treiberfehlers sieht.
	var count int64
	if err := p.db.WithContext(ctx).Model(&models.Category{}).
		Where("name = ?", category.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicate
	}

	return p.db.WithContext(ctx).Create(category).Error
}

func (p *Postgres) DeleteCategory(ctx context.Context, id string) error {
	res := p.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) AdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	if err := p.db.WithContext(ctx).Where("email = ?", email).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &admin, nil
}

func (p *Postgres) AdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	if err := p.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &admin, nil
}

func (p *Postgres) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}

	var count int64
	if err := p.db.WithContext(ctx).Model(&models.Admin{}).
		Where("username = ? OR email = ?", admin.Username, admin.Email).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicate
	}

	return p.db.WithContext(ctx).Create(admin).Error
}

func (p *Postgres) SaveSession(ctx context.Context, session *models.Session) error {
	return p.db.WithContext(ctx).Create(session).Error
}

func (p *Postgres) SessionByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	if err := p.db.WithContext(ctx).Where("token = ?", token).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (p *Postgres) DeleteSession(ctx context.Context, token string) error {
	return p.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error
}

func (p *Postgres) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	res := p.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

func (p *Postgres) Close(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
