package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"edupoint/config"
	"edupoint/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	articlesCollection   = "articles"
	categoriesCollection = "categories"
	adminsCollection     = "admins"
	sessionsCollection   = "sessions"

	defaultDBName = "edupoint"
)

// Mongo implementiert das Gateway über MongoDB (Document-Store-Variante).
type Mongo struct {
	client     *mongodriver.Client
	db         *mongodriver.Database
	articles   *mongodriver.Collection
	categories *mongodriver.Collection
	admins     *mongodriver.Collection
	sessions   *mongodriver.Collection
}

// NewMongo verbindet sich mit MongoDB, pingt den Server und legt die
// benötigten Indizes an.
func NewMongo(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	if cfg.MongoURL == "" {
		return nil, fmt.Errorf("mongo: empty MONGO_URL")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.MongoURL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseFromURI(cfg.MongoURL))

	m := &Mongo{
		client:     cli,
		db:         db,
		articles:   db.Collection(articlesCollection),
		categories: db.Collection(categoriesCollection),
		admins:     db.Collection(adminsCollection),
		sessions:   db.Collection(sessionsCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

// ensureIndexes legt die benötigten Indizes an:
// - Artikel: category.name + created_at(desc) für verwandte Artikel
// - Kategorien: eindeutiger Name
// - Admins: eindeutige E-Mail und Username (Lookup per E-Mail)
// - Sessions: TTL auf expires_at (expireAfterSeconds=0 -> Zeitstempel im Dokument)
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	articleIdx := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "category.name", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("category_created_desc"),
		},
	}
	if _, err := m.articles.Indexes().CreateMany(ctx, articleIdx); err != nil {
		return fmt.Errorf("mongo ensure article indexes: %w", err)
	}

	categoryIdx := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name_unique").SetUnique(true),
		},
	}
	if _, err := m.categories.Indexes().CreateMany(ctx, categoryIdx); err != nil {
		return fmt.Errorf("mongo ensure category indexes: %w", err)
	}

	adminIdx := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		},
	}
	if _, err := m.admins.Indexes().CreateMany(ctx, adminIdx); err != nil {
		return fmt.Errorf("mongo ensure admin indexes: %w", err)
	}

	sessionIdx := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
		},
	}
	if _, err := m.sessions.Indexes().CreateMany(ctx, sessionIdx); err != nil {
		return fmt.Errorf("mongo ensure session indexes: %w", err)
	}

	return nil
}

func (m *Mongo) ListArticles(ctx context.Context, q ArticleQuery) ([]models.Article, error) {
	filter := bson.M{}
	if q.CategoryName != "" {
		filter["category.name"] = q.CategoryName
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if q.Limit > 0 {
		opts = opts.SetLimit(int64(q.Limit))
	}

	cur, err := m.articles.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list articles: %w", err)
	}
	defer cur.Close(ctx)

	var articles []models.Article
	if err := cur.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("mongo decode articles: %w", err)
	}
	return articles, nil
}

func (m *Mongo) ArticleByID(ctx context.Context, id string) (*models.Article, error) {
	var article models.Article
	err := m.articles.FindOne(ctx, bson.M{"_id": id}).Decode(&article)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo article by id: %w", err)
	}
	return &article, nil
}

func (m *Mongo) ArticlesByCategory(ctx context.Context, categoryName, excludeID string, limit int) ([]models.Article, error) {
	filter := bson.M{
		"category.name": categoryName,
		"_id":           bson.M{"$ne": excludeID},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := m.articles.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo articles by category: %w", err)
	}
	defer cur.Close(ctx)

	var articles []models.Article
	if err := cur.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("mongo decode articles: %w", err)
	}
	return articles, nil
}

func (m *Mongo) CreateArticle(ctx context.Context, article *models.Article) error {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	if _, err := m.articles.InsertOne(ctx, article); err != nil {
		return fmt.Errorf("mongo create article: %w", err)
	}
	return nil
}

func (m *Mongo) UpdateArticle(ctx context.Context, id string, upd ArticleUpdate) error {
	if upd.IsEmpty() {
		return errors.New("no updatable fields provided")
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Content != nil {
		set["content"] = *upd.Content
	}
	if upd.ImageURL != nil {
		set["image_url"] = *upd.ImageURL
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Tags != nil {
		set["tags"] = *upd.Tags
	}

	res, err := m.articles.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("mongo update article: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) DeleteArticle(ctx context.Context, id string) error {
	res, err := m.articles.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo delete article: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) ListCategories(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := m.categories.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list categories: %w", err)
	}
	defer cur.Close(ctx)

	var categories []models.Category
	if err := cur.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("mongo decode categories: %w", err)
	}
	return categories, nil
}

func (m *Mongo) CategoryByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	err := m.categories.FindOne(ctx, bson.M{"_id": id}).Decode(&category)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo category by id: %w", err)
	}
	return &category, nil
}

func (m *Mongo) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	if _, err := m.categories.InsertOne(ctx, category); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("mongo create category: %w", err)
	}
	return nil
}

func (m *Mongo) DeleteCategory(ctx context.Context, id string) error {
	res, err := m.categories.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo delete category: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) AdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	err := m.admins.FindOne(ctx, bson.M{"email": email}).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo admin by email: %w", err)
	}
	return &admin, nil
}

func (m *Mongo) AdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	err := m.admins.FindOne(ctx, bson.M{"username": username}).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo admin by username: %w", err)
	}
	return &admin, nil
}

func (m *Mongo) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	if _, err := m.admins.InsertOne(ctx, admin); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("mongo create admin: %w", err)
	}
	return nil
}

func (m *Mongo) SaveSession(ctx context.Context, session *models.Session) error {
	if _, err := m.sessions.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("mongo save session: %w", err)
	}
	return nil
}

func (m *Mongo) SessionByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := m.sessions.FindOne(ctx, bson.M{"_id": token}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo session by token: %w", err)
	}
	return &session, nil
}

func (m *Mongo) DeleteSession(ctx context.Context, token string) error {
	if _, err := m.sessions.DeleteOne(ctx, bson.M{"_id": token}); err != nil {
		return fmt.Errorf("mongo delete session: %w", err)
	}
	return nil
}

func (m *Mongo) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	res, err := m.sessions.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("mongo delete expired sessions: %w", err)
	}
	return res.DeletedCount, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// databaseFromURI extrahiert den Datenbanknamen aus dem Mongo-URI-Pfad.
// Fehlt er, wird der Standardname verwendet.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}
