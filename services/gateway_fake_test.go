package services

import (
	"context"
	"sort"
	"time"

	"edupoint/models"
	"edupoint/storage"

	"github.com/google/uuid"
)

// fakeGateway ist ein In-Memory-Gateway für die Service-Tests. Mit gesetztem
// failWith schlägt jede Operation mit diesem Fehler fehl (Transportfehler-
// Simulation).
type fakeGateway struct {
	articles   []models.Article
	categories []models.Category
	admins     []models.Admin
	sessions   map[string]models.Session

	failWith error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]models.Session{}}
}

func (f *fakeGateway) ListArticles(_ context.Context, q storage.ArticleQuery) ([]models.Article, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []models.Article
	for _, a := range f.articles {
		if q.CategoryName != "" && a.Category.Name != q.CategoryName {
			continue
		}
		out = append(out, a)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeGateway) ArticleByID(_ context.Context, id string) (*models.Article, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for i := range f.articles {
		if f.articles[i].ID == id {
			a := f.articles[i]
			return &a, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeGateway) ArticlesByCategory(_ context.Context, categoryName, excludeID string, limit int) ([]models.Article, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []models.Article
	for _, a := range f.articles {
		if a.Category.Name != categoryName || a.ID == excludeID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeGateway) CreateArticle(_ context.Context, article *models.Article) error {
	if f.failWith != nil {
		return f.failWith
	}
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	f.articles = append(f.articles, *article)
	return nil
}

func (f *fakeGateway) UpdateArticle(_ context.Context, id string, upd storage.ArticleUpdate) error {
	if f.failWith != nil {
		return f.failWith
	}
	for i := range f.articles {
		if f.articles[i].ID != id {
			continue
		}
		if upd.Title != nil {
			f.articles[i].Title = *upd.Title
		}
		if upd.Content != nil {
			f.articles[i].Content = *upd.Content
		}
		if upd.ImageURL != nil {
			f.articles[i].ImageURL = *upd.ImageURL
		}
		if upd.Category != nil {
			f.articles[i].Category = *upd.Category
		}
		if upd.Tags != nil {
			f.articles[i].Tags = *upd.Tags
		}
		return nil
	}
	return storage.ErrNotFound
}

func (f *fakeGateway) DeleteArticle(_ context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	for i := range f.articles {
		if f.articles[i].ID == id {
			f.articles = append(f.articles[:i], f.articles[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeGateway) ListCategories(_ context.Context) ([]models.Category, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]models.Category, len(f.categories))
	copy(out, f.categories)
	return out, nil
}

func (f *fakeGateway) CategoryByID(_ context.Context, id string) (*models.Category, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for i := range f.categories {
		if f.categories[i].ID == id {
			c := f.categories[i]
			return &c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeGateway) CreateCategory(_ context.Context, category *models.Category) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, c := range f.categories {
		if c.Name == category.Name {
			return storage.ErrDuplicate
		}
	}
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	f.categories = append(f.categories, *category)
	return nil
}

func (f *fakeGateway) DeleteCategory(_ context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	for i := range f.categories {
		if f.categories[i].ID == id {
			f.categories = append(f.categories[:i], f.categories[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeGateway) AdminByEmail(_ context.Context, email string) (*models.Admin, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for i := range f.admins {
		if f.admins[i].Email == email {
			a := f.admins[i]
			return &a, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeGateway) AdminByUsername(_ context.Context, username string) (*models.Admin, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for i := range f.admins {
		if f.admins[i].Username == username {
			a := f.admins[i]
			return &a, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeGateway) CreateAdmin(_ context.Context, admin *models.Admin) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, a := range f.admins {
		if a.Username == admin.Username || a.Email == admin.Email {
			return storage.ErrDuplicate
		}
	}
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	f.admins = append(f.admins, *admin)
	return nil
}

func (f *fakeGateway) SaveSession(_ context.Context, session *models.Session) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.sessions[session.Token] = *session
	return nil
}

func (f *fakeGateway) SessionByToken(_ context.Context, token string) (*models.Session, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	s, ok := f.sessions[token]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &s, nil
}

func (f *fakeGateway) DeleteSession(_ context.Context, token string) error {
	if f.failWith != nil {
		return f.failWith
	}
	delete(f.sessions, token)
	return nil
}

func (f *fakeGateway) DeleteExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	var count int64
	for token, s := range f.sessions {
		if s.ExpiresAt.Before(before) {
			delete(f.sessions, token)
			count++
		}
	}
	return count, nil
}

func (f *fakeGateway) Close(context.Context) error { return nil }
