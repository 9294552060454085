package domain

// Product represents a single scraped product listing. All scraped fields are
// raw text exactly as extracted from the page; a missing field is the empty
// string. The scorer never mutates a Product, it only wraps it in a
// RankedProduct.
type Product struct {
	Title            string `json:"title"`
	Price            string `json:"price"`                     // e.g. "19.99"
	PricePerCount    string `json:"price_per_count,omitempty"` // e.g. "$1.99 per oz"
	Rating           string `json:"rating,omitempty"`          // e.g. "4.5 out of 5 stars"
	ReviewCount      string `json:"review_count,omitempty"`    // e.g. "1,234" or "No reviews"
	Prime            bool   `json:"prime"`
	URL              string `json:"url"` // identity key, unique within a result set
	ImageURL         string `json:"image_url,omitempty"`
	DeliveryEstimate string `json:"delivery_estimate,omitempty"` // date-like text
}

// RankedProduct is a Product annotated with its composite score and a
// human-readable explanation of how the score was computed.
//
// Score is the product of the five factor scores and lies in [-1, 1]. A
// negative score is a ranking sentinel meaning the product matched none of
// the requested preference terms; its magnitude still reflects the other
// factors so "least bad" products can be told apart.
type RankedProduct struct {
	Product
	Score              float64 `json:"score"`
	RankingExplanation string  `json:"ranking_explanation"`
}

// Relevance is the verdict of the relevance validator for a (product title,
// search term) pair. Any unrecognized verdict is treated as RelevanceUnknown.
type Relevance string

const (
	// RelevancePrimary means the product is a direct match for the search term.
	RelevancePrimary Relevance = "primary"
	// RelevanceAccessory means the product is an accessory or add-on for the
	// searched item rather than the item itself.
	RelevanceAccessory Relevance = "accessory"
	// RelevanceUnknown means the validator could not decide.
	RelevanceUnknown Relevance = "unknown"
)
