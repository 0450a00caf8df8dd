package services

import (
	"strings"

	"edupoint/models"
)

// DefaultPageSize ist die Artikelanzahl pro Seite der Original-Oberfläche.
const DefaultPageSize = 10

// CategoryIndex leitet aus einem geladenen Artikelbestand die Menge der
// vorkommenden Kategorien ab: dedupliziert nach ID, in der Reihenfolge des
// ersten Auftretens. Artikel ohne Kategorie-ID werden übersprungen.
func CategoryIndex(articles []models.Article) []models.CategoryRef {
	seen := make(map[string]bool, len(articles))
	var index []models.CategoryRef
	for _, a := range articles {
		c := a.Category
		if c.ID == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		index = append(index, c)
	}
	return index
}

// Listing hält den sitzungsgebundenen Anzeige-Zustand einer Artikelliste:
// aktiver Kategoriefilter, Suchbegriff und aktuelle Seite. Jede Änderung
// berechnet die abgeleitete Ausgabe synchron neu; es gibt keinen versteckten
// Zustand.
type Listing struct {
	articles []models.Article
	category string
	keyword  string
	page     int
	pageSize int
}

// NewListing erstellt ein Listing über einem bereits geladenen Artikelbestand,
// beginnend auf Seite 1.
func NewListing(articles []models.Article, pageSize int) *Listing {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Listing{articles: articles, page: 1, pageSize: pageSize}
}

// Replace tauscht den geladenen Artikelbestand aus und springt auf Seite 1.
func (l *Listing) Replace(articles []models.Article) {
	l.articles = articles
	l.page = 1
}

// SetCategory setzt den Kategoriefilter (exakter Namensvergleich, leer =
// kein Filter) und springt auf Seite 1.
func (l *Listing) SetCategory(name string) {
	l.category = name
	l.page = 1
}

// SetKeyword setzt den Suchbegriff (Teilstring im Titel, unabhängig von
// Groß-/Kleinschreibung) und springt auf Seite 1.
func (l *Listing) SetKeyword(keyword string) {
	l.keyword = keyword
	l.page = 1
}

// CurrentPage gibt die aktuelle, 1-basierte Seitennummer zurück.
func (l *Listing) CurrentPage() int {
	return l.page
}

// Filtered wendet Kategorie- und Suchfilter konjunktiv auf den Bestand an.
// Die Eingabe-Reihenfolge bleibt erhalten; der Aufruf ist frei von
// Seiteneffekten.
func (l *Listing) Filtered() []models.Article {
	keyword := strings.ToLower(l.keyword)
	filtered := make([]models.Article, 0, len(l.articles))
	for _, a := range l.articles {
		if l.category != "" && a.Category.Name != l.category {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(a.Title), keyword) {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}

// TotalPages berechnet ceil(Trefferanzahl / Seitengröße); 0 bei leerem
// Ergebnis.
func (l *Listing) TotalPages() int {
	n := len(l.Filtered())
	if n == 0 {
		return 0
	}
	return (n + l.pageSize - 1) / l.pageSize
}

// Next blättert eine Seite vor. Auf der letzten Seite (oder ohne Treffer)
// passiert nichts.
func (l *Listing) Next() {
	if l.page < l.TotalPages() {
		l.page++
	}
}

// Prev blättert eine Seite zurück. Auf Seite 1 passiert nichts.
func (l *Listing) Prev() {
	if l.page > 1 {
		l.page--
	}
}

// Page liefert den Ausschnitt der aktuellen Seite.
func (l *Listing) Page() []models.Article {
	filtered := l.Filtered()
	start := (l.page - 1) * l.pageSize
	if start >= len(filtered) {
		return nil
	}
	end := start + l.pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

// Empty ist das explizite "keine Treffer"-Signal; kein Fehlerfall.
func (l *Listing) Empty() bool {
	return len(l.Filtered()) == 0
}
