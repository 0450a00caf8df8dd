package services

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"edupoint/models"
	"edupoint/storage"

	"go.uber.org/zap"
)

// ValidationErrors sammelt Feldfehler der Vorab-Validierung, zum Feld
// inline anzeigbar. Notwendige, aber nicht hinreichende Prüfung: der Server
// bleibt die Autorität.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// ArticleInput sind die vom Admin-Formular gelieferten Artikelfelder.
type ArticleInput struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	ImageURL   string   `json:"image_url"`
	CategoryID string   `json:"category_id"`
	Tags       []string `json:"tags"`
}

// Catalog ist der Mutations-Controller des Admin-Bereichs. Er hält den
// zuletzt geladenen Artikel- und Kategoriebestand im Speicher und
// aktualisiert ihn erst, nachdem das Gateway eine Mutation bestätigt hat.
// Schlägt eine Mutation fehl, bleibt der lokale Zustand unberührt.
type Catalog struct {
	gw  storage.Gateway
	log *zap.Logger

	mu         sync.Mutex
	articles   []models.Article
	categories []models.Category
}

// NewCatalog erstellt einen leeren Catalog; Load holt den Bestand.
func NewCatalog(gw storage.Gateway, log *zap.Logger) *Catalog {
	return &Catalog{gw: gw, log: log}
}

// Load lädt Artikel und Kategorien frisch über das Gateway.
func (c *Catalog) Load(ctx context.Context) error {
	articles, err := c.gw.ListArticles(ctx, storage.ArticleQuery{})
	if err != nil {
		return fmt.Errorf("load articles: %w", err)
	}
	categories, err := c.gw.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.articles = articles
	c.categories = categories
	return nil
}

// Articles gibt eine Kopie des lokalen Artikelbestands zurück.
func (c *Catalog) Articles() []models.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Article, len(c.articles))
	copy(out, c.articles)
	return out
}

// Categories gibt eine Kopie des lokalen Kategoriebestands zurück.
func (c *Catalog) Categories() []models.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// categoryByID sucht eine Kategorie im lokalen Bestand. Caller hält c.mu.
func (c *Catalog) categoryByID(id string) (models.Category, bool) {
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return models.Category{}, false
}

// validate prüft die Formularfelder: Titel und Inhalt sind Pflicht (nach
// Trimmen), die Bild-URL muss syntaktisch gültig sein, die Kategorie muss
// bekannt sein. Caller hält c.mu.
func (c *Catalog) validate(in ArticleInput) (models.CategoryRef, ValidationErrors) {
	verrs := ValidationErrors{}

	if strings.TrimSpace(in.Title) == "" {
		verrs["title"] = "title is required"
	}
	if strings.TrimSpace(in.Content) == "" {
		verrs["content"] = "content is required"
	}
	if img := strings.TrimSpace(in.ImageURL); img != "" {
		u, err := url.Parse(img)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			verrs["image_url"] = "image_url must be a valid http(s) URL"
		}
	}

	var ref models.CategoryRef
	cat, ok := c.categoryByID(in.CategoryID)
	if !ok {
		verrs["category_id"] = "unknown category"
	} else {
		ref = cat.Ref()
	}

	if len(verrs) > 0 {
		return models.CategoryRef{}, verrs
	}
	return ref, nil
}

// CreateArticle validiert die Eingabe, legt den Artikel über das Gateway an
// und hängt ihn erst nach Bestätigung an den lokalen Bestand.
func (c *Catalog) CreateArticle(ctx context.Context, in ArticleInput, author models.AuthorRef) (*models.Article, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ref, verrs := c.validate(in)
	if verrs != nil {
		return nil, verrs
	}

	now := time.Now().UTC()
	article := &models.Article{
		Title:     strings.TrimSpace(in.Title),
		Content:   strings.TrimSpace(in.Content),
		ImageURL:  strings.TrimSpace(in.ImageURL),
		Category:  ref,
		Author:    author,
		Tags:      in.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.gw.CreateArticle(ctx, article); err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}

	c.articles = append(c.articles, *article)
	c.log.Info("Article created", zap.String("id", article.ID), zap.String("title", article.Title))
	return article, nil
}

// UpdateArticle validiert die Eingabe und schreibt sie über das Gateway.
// Der lokale Bestand wird erst nach Bestätigung ersetzt.
func (c *Catalog) UpdateArticle(ctx context.Context, id string, in ArticleInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ref, verrs := c.validate(in)
	if verrs != nil {
		return verrs
	}

	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	imageURL := strings.TrimSpace(in.ImageURL)
	upd := storage.ArticleUpdate{
		Title:    &title,
		Content:  &content,
		ImageURL: &imageURL,
		Category: &ref,
	}
	if in.Tags != nil {
		upd.Tags = &in.Tags
	}

	if err := c.gw.UpdateArticle(ctx, id, upd); err != nil {
		return fmt.Errorf("update article: %w", err)
	}

	for i := range c.articles {
		if c.articles[i].ID == id {
			c.articles[i].Title = title
			c.articles[i].Content = content
			c.articles[i].ImageURL = imageURL
			c.articles[i].Category = ref
			if in.Tags != nil {
				c.articles[i].Tags = in.Tags
			}
			c.articles[i].UpdatedAt = time.Now().UTC()
			break
		}
	}
	c.log.Info("Article updated", zap.String("id", id))
	return nil
}

// DeleteArticle löscht über das Gateway und entfernt den Artikel nach
// Bestätigung aus dem lokalen Bestand, ohne neu zu laden.
func (c *Catalog) DeleteArticle(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.gw.DeleteArticle(ctx, id); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}

	for i := range c.articles {
		if c.articles[i].ID == id {
			c.articles = append(c.articles[:i], c.articles[i+1:]...)
			break
		}
	}
	c.log.Info("Article deleted", zap.String("id", id))
	return nil
}

// CreateCategory legt eine Kategorie mit eindeutigem Namen an.
// storage.ErrDuplicate meldet eine Namenskollision.
func (c *Catalog) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ValidationErrors{"name": "name is required"}
	}
	for _, cat := range c.categories {
		if cat.Name == name {
			return nil, storage.ErrDuplicate
		}
	}

	now := time.Now().UTC()
	category := &models.Category{Name: name, CreatedAt: now, UpdatedAt: now}
	if err := c.gw.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	c.categories = append(c.categories, *category)
	c.log.Info("Category created", zap.String("id", category.ID), zap.String("name", name))
	return category, nil
}

// DeleteCategory löscht eine Kategorie. Bestehende Artikel behalten ihren
// denormalisierten Kategorie-Snapshot.
func (c *Catalog) DeleteCategory(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.gw.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	for i := range c.categories {
		if c.categories[i].ID == id {
			c.categories = append(c.categories[:i], c.categories[i+1:]...)
			break
		}
	}
	c.log.Info("Category deleted", zap.String("id", id))
	return nil
}
