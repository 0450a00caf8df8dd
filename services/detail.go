package services

import (
	"context"
	"errors"
	"fmt"

	"edupoint/models"
	"edupoint/storage"

	"go.uber.org/zap"
)

// RelatedLimit begrenzt die Anzahl verwandter Artikel in der Detailansicht.
const RelatedLimit = 3

// ArticleDetail ist das Ergebnis der Detailauflösung: der Artikel selbst plus
// bis zu drei weitere Artikel derselben Kategorie.
type ArticleDetail struct {
	Article models.Article   `json:"article"`
	Related []models.Article `json:"related"`
}

// DetailResolver lädt einzelne Artikel samt verwandter Artikel über das
// Gateway.
type DetailResolver struct {
	gw  storage.Gateway
	log *zap.Logger
}

// NewDetailResolver erstellt einen DetailResolver.
func NewDetailResolver(gw storage.Gateway, log *zap.Logger) *DetailResolver {
	return &DetailResolver{gw: gw, log: log}
}

// Resolve lädt den Artikel mit der gegebenen ID. Verwandte Artikel teilen den
// Kategorienamen, schließen den Artikel selbst aus und kommen neueste zuerst.
// Ein fehlender Artikel wird als storage.ErrNotFound gemeldet und ist vom
// Transportfehler unterscheidbar.
func (r *DetailResolver) Resolve(ctx context.Context, id string) (*ArticleDetail, error) {
	article, err := r.gw.ArticleByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load article %s: %w", id, err)
	}

	detail := &ArticleDetail{Article: *article}

	if article.Category.Name != "" {
		related, err := r.gw.ArticlesByCategory(ctx, article.Category.Name, article.ID, RelatedLimit)
		if err != nil {
			// Verwandte Artikel sind Beiwerk; der Hauptartikel wird trotzdem geliefert
			r.log.Warn("Failed to fetch related articles",
				zap.String("article_id", id),
				zap.String("category", article.Category.Name),
				zap.Error(err))
		} else {
			detail.Related = related
		}
	}

	return detail, nil
}
