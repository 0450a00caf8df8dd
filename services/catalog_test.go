package services

import (
	"context"
	"errors"
	"testing"

	"edupoint/models"
	"edupoint/storage"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCatalogForTest(t *testing.T) (*Catalog, *fakeGateway) {
	t.Helper()

	gw := newFakeGateway()
	gw.categories = []models.Category{
		{ID: "tech", Name: "Technology"},
		{ID: "health", Name: "Health"},
	}
	gw.articles = []models.Article{
		{ID: "a1", Title: "First", Content: "Body", Category: models.CategoryRef{ID: "tech", Name: "Technology"}},
		{ID: "a2", Title: "Second", Content: "Body", Category: models.CategoryRef{ID: "health", Name: "Health"}},
	}

	c := NewCatalog(gw, zap.NewNop())
	require.NoError(t, c.Load(context.Background()))
	return c, gw
}

func TestCatalog_CreateArticle(t *testing.T) {
	c, gw := newCatalogForTest(t)

	in := ArticleInput{
		Title:      "  New Article  ",
		Content:    "Some content",
		ImageURL:   "https://img.example.com/pic.png",
		CategoryID: "tech",
		Tags:       []string{"go"},
	}
	author := models.AuthorRef{ID: "admin-1", Username: "admin"}

	article, err := c.CreateArticle(context.Background(), in, author)
	require.NoError(t, err)
	require.NotEmpty(t, article.ID)
	require.Equal(t, "New Article", article.Title)
	require.Equal(t, models.CategoryRef{ID: "tech", Name: "Technology"}, article.Category)
	require.Equal(t, author, article.Author)

	// Erst nach Gateway-Bestätigung im lokalen Bestand
	require.Len(t, c.Articles(), 3)
	require.Len(t, gw.articles, 3)
}

func TestCatalog_CreateArticle_Validation(t *testing.T) {
	c, _ := newCatalogForTest(t)

	tests := []struct {
		name  string
		in    ArticleInput
		field string
	}{
		{"missing title", ArticleInput{Content: "x", CategoryID: "tech"}, "title"},
		{"whitespace title", ArticleInput{Title: "   ", Content: "x", CategoryID: "tech"}, "title"},
		{"missing content", ArticleInput{Title: "x", CategoryID: "tech"}, "content"},
		{"bad image url", ArticleInput{Title: "x", Content: "x", ImageURL: "not-a-url", CategoryID: "tech"}, "image_url"},
		{"ftp image url", ArticleInput{Title: "x", Content: "x", ImageURL: "ftp://host/p.png", CategoryID: "tech"}, "image_url"},
		{"unknown category", ArticleInput{Title: "x", Content: "x", CategoryID: "nope"}, "category_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreateArticle(context.Background(), tt.in, models.AuthorRef{})
			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Contains(t, verrs, tt.field)

			// Validierungsfehler verändern den lokalen Bestand nicht
			require.Len(t, c.Articles(), 2)
		})
	}
}

func TestCatalog_CreateArticle_ServerErrorLeavesStateUntouched(t *testing.T) {
	c, gw := newCatalogForTest(t)
	gw.failWith = errors.New("500 internal server error")

	in := ArticleInput{Title: "x", Content: "x", CategoryID: "tech"}
	_, err := c.CreateArticle(context.Background(), in, models.AuthorRef{})
	require.Error(t, err)
	require.Len(t, c.Articles(), 2)
}

func TestCatalog_UpdateArticle(t *testing.T) {
	c, gw := newCatalogForTest(t)

	in := ArticleInput{Title: "Renamed", Content: "New body", CategoryID: "health"}
	require.NoError(t, c.UpdateArticle(context.Background(), "a1", in))

	var updated models.Article
	for _, a := range c.Articles() {
		if a.ID == "a1" {
			updated = a
		}
	}
	require.Equal(t, "Renamed", updated.Title)
	require.Equal(t, "Health", updated.Category.Name)
	require.Equal(t, "Renamed", gw.articles[0].Title)
}

func TestCatalog_UpdateArticle_NotFound(t *testing.T) {
	c, _ := newCatalogForTest(t)

	in := ArticleInput{Title: "x", Content: "x", CategoryID: "tech"}
	err := c.UpdateArticle(context.Background(), "missing", in)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCatalog_DeleteArticle_RemovesLocallyWithoutRefetch(t *testing.T) {
	c, _ := newCatalogForTest(t)

	require.NoError(t, c.DeleteArticle(context.Background(), "a1"))

	articles := c.Articles()
	require.Len(t, articles, 1)
	require.Equal(t, "a2", articles[0].ID)
}

func TestCatalog_DeleteArticle_ServerErrorLeavesStateUntouched(t *testing.T) {
	c, gw := newCatalogForTest(t)
	gw.failWith = errors.New("boom")

	require.Error(t, c.DeleteArticle(context.Background(), "a1"))
	require.Len(t, c.Articles(), 2)
}

func TestCatalog_CreateCategory(t *testing.T) {
	c, _ := newCatalogForTest(t)

	category, err := c.CreateCategory(context.Background(), " Business ")
	require.NoError(t, err)
	require.NotEmpty(t, category.ID)
	require.Equal(t, "Business", category.Name)
	require.Len(t, c.Categories(), 3)
}

func TestCatalog_CreateCategory_DuplicateName(t *testing.T) {
	c, _ := newCatalogForTest(t)

	_, err := c.CreateCategory(context.Background(), "Technology")
	require.ErrorIs(t, err, storage.ErrDuplicate)
	require.Len(t, c.Categories(), 2)
}

func TestCatalog_CreateCategory_EmptyName(t *testing.T) {
	c, _ := newCatalogForTest(t)

	_, err := c.CreateCategory(context.Background(), "   ")
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Contains(t, verrs, "name")
}

func TestCatalog_DeleteCategory(t *testing.T) {
	c, _ := newCatalogForTest(t)

	require.NoError(t, c.DeleteCategory(context.Background(), "tech"))
	require.Len(t, c.Categories(), 1)

	// Bestehende Artikel behalten ihren Kategorie-Snapshot
	for _, a := range c.Articles() {
		if a.ID == "a1" {
			require.Equal(t, "Technology", a.Category.Name)
		}
	}
}
