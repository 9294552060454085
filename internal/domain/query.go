package domain

import "time"

// SortOption enumerates the marketplace sort orders the query parser may
// request. The scorer does not act on it; the product source applies it when
// building the search request.
type SortOption string

const (
	SortPriceAsc  SortOption = "price-asc-rank"
	SortPriceDesc SortOption = "price-desc-rank"
	SortReview    SortOption = "review-rank"
	SortDateDesc  SortOption = "date-desc-rank"
	SortRelevance SortOption = "relevanceblender"
)

// Filters holds the hard constraints parsed from the user's query. Every
// field is optional; nil (or empty string) means the constraint was not
// requested. Prime and SortBy are applied by the product source at query
// time, the scorer treats them as informational.
type Filters struct {
	PriceMax   *float64   `json:"price_max,omitempty"`
	PriceMin   *float64   `json:"price_min,omitempty"`
	MinRating  *float64   `json:"min_rating,omitempty"` // 0-5
	MinReviews *int       `json:"min_reviews,omitempty"`
	Prime      *bool      `json:"prime,omitempty"`
	SortBy     SortOption `json:"sort_by,omitempty"`
	DeliverBy  string     `json:"deliver_by,omitempty"` // date-like phrase
}

// Preferences holds the soft constraints: free-text feature tokens (brand,
// material, color, ...) fuzzy-matched against product titles. They influence
// ranking but never exclude a product outright.
type Preferences struct {
	Features []string `json:"features"`
}

// ParsedQuery is the structured form of a free-text shopping query as
// produced by the LLM query parser. The scorer trusts this structure but
// treats every field as optional.
type ParsedQuery struct {
	SearchTerm  string      `json:"search_term"`
	Filters     Filters     `json:"filters"`
	Preferences Preferences `json:"preferences"`
}

// SessionContext captures one completed search so a follow-up query can be
// interpreted against it. Stored in the session cache under the session id.
type SessionContext struct {
	Query       string          `json:"query"`
	SearchTerm  string          `json:"search_term"`
	Filters     Filters         `json:"filters"`
	Preferences Preferences     `json:"preferences"`
	Summary     string          `json:"summary,omitempty"`
	Products    []RankedProduct `json:"products,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SearchResult is the outcome of a full search pipeline run: parse, scrape,
// rank, optionally validate, summarize.
type SearchResult struct {
	SessionID string          `json:"session_id"`
	Query     ParsedQuery     `json:"query"`
	Products  []RankedProduct `json:"products"`
	Summary   string          `json:"summary,omitempty"`
}
