package services

import (
	"fmt"
	"testing"

	"edupoint/models"

	"github.com/stretchr/testify/require"
)

// mkArticles erzeugt n Artikel mit durchlaufenden Titeln und rotierenden
// Kategorien.
func mkArticles(n int) []models.Article {
	cats := []models.CategoryRef{
		{ID: "teknologi", Name: "Technology"},
		{ID: "kesehatan", Name: "Health"},
		{ID: "bisnis", Name: "Business"},
	}
	articles := make([]models.Article, 0, n)
	for i := 0; i < n; i++ {
		articles = append(articles, models.Article{
			ID:       fmt.Sprintf("a%02d", i),
			Title:    fmt.Sprintf("Article %02d", i),
			Category: cats[i%len(cats)],
		})
	}
	return articles
}

func TestListing_Pagination23Articles(t *testing.T) {
	// 23 Artikel, Seitengröße 10 -> 3 Seiten (10, 10, 3)
	l := NewListing(mkArticles(23), 10)

	require.Equal(t, 3, l.TotalPages())
	require.Equal(t, 1, l.CurrentPage())
	require.Len(t, l.Page(), 10)

	l.Next()
	require.Equal(t, 2, l.CurrentPage())
	require.Len(t, l.Page(), 10)

	l.Next()
	require.Equal(t, 3, l.CurrentPage())
	require.Len(t, l.Page(), 3)

	// Next auf der letzten Seite ist ein No-op
	l.Next()
	require.Equal(t, 3, l.CurrentPage())
}

func TestListing_PrevNoopOnFirstPage(t *testing.T) {
	l := NewListing(mkArticles(5), 10)
	l.Prev()
	require.Equal(t, 1, l.CurrentPage())
}

func TestListing_CategoryFilter(t *testing.T) {
	// 5 Technology-Artikel und 7 andere
	var articles []models.Article
	for i := 0; i < 5; i++ {
		articles = append(articles, models.Article{
			ID: fmt.Sprintf("t%d", i), Title: fmt.Sprintf("Tech %d", i),
			Category: models.CategoryRef{ID: "tech", Name: "Technology"},
		})
	}
	for i := 0; i < 7; i++ {
		articles = append(articles, models.Article{
			ID: fmt.Sprintf("o%d", i), Title: fmt.Sprintf("Other %d", i),
			Category: models.CategoryRef{ID: "other", Name: "Other"},
		})
	}

	l := NewListing(articles, 10)
	l.SetCategory("Technology")

	filtered := l.Filtered()
	require.Len(t, filtered, 5)
	for _, a := range filtered {
		require.Equal(t, "Technology", a.Category.Name)
	}
}

func TestListing_KeywordCaseInsensitive(t *testing.T) {
	articles := []models.Article{
		{ID: "1", Title: "Golang für Einsteiger"},
		{ID: "2", Title: "Advanced GOLANG Patterns"},
		{ID: "3", Title: "Kubernetes Basics"},
	}

	l := NewListing(articles, 10)
	l.SetKeyword("golang")

	filtered := l.Filtered()
	require.Len(t, filtered, 2)
	require.Equal(t, "1", filtered[0].ID)
	require.Equal(t, "2", filtered[1].ID)
}

func TestListing_FiltersAreConjunctive(t *testing.T) {
	articles := []models.Article{
		{ID: "1", Title: "Go Intro", Category: models.CategoryRef{ID: "t", Name: "Technology"}},
		{ID: "2", Title: "Go Intro", Category: models.CategoryRef{ID: "h", Name: "Health"}},
		{ID: "3", Title: "Rust Intro", Category: models.CategoryRef{ID: "t", Name: "Technology"}},
	}

	l := NewListing(articles, 10)
	l.SetCategory("Technology")
	l.SetKeyword("go")

	filtered := l.Filtered()
	require.Len(t, filtered, 1)
	require.Equal(t, "1", filtered[0].ID)
}

func TestListing_FilterChangeResetsPage(t *testing.T) {
	l := NewListing(mkArticles(30), 10)

	l.Next()
	require.Equal(t, 2, l.CurrentPage())
	l.SetKeyword("article")
	require.Equal(t, 1, l.CurrentPage())

	l.Next()
	require.Equal(t, 2, l.CurrentPage())
	l.SetCategory("Technology")
	require.Equal(t, 1, l.CurrentPage())
}

func TestListing_Idempotent(t *testing.T) {
	l := NewListing(mkArticles(15), 10)
	l.SetCategory("Technology")
	l.SetKeyword("article")

	require.Equal(t, l.Filtered(), l.Filtered())
	require.Equal(t, l.Page(), l.Page())
	require.Equal(t, l.TotalPages(), l.TotalPages())
}

func TestListing_EmptyResult(t *testing.T) {
	l := NewListing(mkArticles(10), 10)
	l.SetKeyword("does-not-exist")

	require.True(t, l.Empty())
	require.Equal(t, 0, l.TotalPages())
	require.Empty(t, l.Page())

	// Blättern ohne Treffer bleibt auf Seite 1
	l.Next()
	require.Equal(t, 1, l.CurrentPage())
}

func TestListing_CountNeverExceedsInput(t *testing.T) {
	articles := mkArticles(12)
	for _, keyword := range []string{"", "article", "0", "zzz"} {
		l := NewListing(articles, 10)
		l.SetKeyword(keyword)
		require.LessOrEqual(t, len(l.Filtered()), len(articles))
	}
}

func TestListing_PreservesInputOrder(t *testing.T) {
	articles := mkArticles(9)
	l := NewListing(articles, 10)

	page := l.Page()
	require.Len(t, page, 9)
	for i, a := range page {
		require.Equal(t, articles[i].ID, a.ID)
	}
}

func TestCategoryIndex(t *testing.T) {
	articles := []models.Article{
		{ID: "1", Category: models.CategoryRef{ID: "tech", Name: "Technology"}},
		{ID: "2", Category: models.CategoryRef{ID: "health", Name: "Health"}},
		{ID: "3", Category: models.CategoryRef{ID: "tech", Name: "Technology"}},
		{ID: "4"}, // ohne Kategorie, wird übersprungen
		{ID: "5", Category: models.CategoryRef{ID: "biz", Name: "Business"}},
	}

	index := CategoryIndex(articles)
	require.Equal(t, []models.CategoryRef{
		{ID: "tech", Name: "Technology"},
		{ID: "health", Name: "Health"},
		{ID: "biz", Name: "Business"},
	}, index)
}

func TestCategoryIndex_EmptyInput(t *testing.T) {
	require.Empty(t, CategoryIndex(nil))
}
