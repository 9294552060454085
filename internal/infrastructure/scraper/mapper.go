package scraper

import (
	"log"
	"strings"

	"github.com/tuanyuan2008/amazon-shopping-assistant/internal/domain"
)

// NormalizeProducts cleans a scraped product batch before it reaches the
// scorer: whitespace-trims the text fields, drops entries with no title or
// no URL, and deduplicates by URL. The URL is the identity key of a product
// within a result set, so the first occurrence wins.
func NormalizeProducts(products []domain.Product) []domain.Product {
	normalized := make([]domain.Product, 0, len(products))
	seen := make(map[string]bool, len(products))

	for _, p := range products {
		p.Title = strings.TrimSpace(p.Title)
		p.Price = strings.TrimSpace(p.Price)
		p.PricePerCount = strings.TrimSpace(p.PricePerCount)
		p.Rating = strings.TrimSpace(p.Rating)
		p.ReviewCount = strings.TrimSpace(p.ReviewCount)
		p.URL = strings.TrimSpace(p.URL)
		p.DeliveryEstimate = strings.TrimSpace(p.DeliveryEstimate)

		if p.Title == "" || p.URL == "" {
			log.Printf("[SCRAPER] Dropping incomplete listing (title: %q, url: %q)", p.Title, p.URL)
			continue
		}
		if seen[p.URL] {
			continue
		}
		seen[p.URL] = true
		normalized = append(normalized, p)
	}

	return normalized
}
