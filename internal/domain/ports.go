package domain

import (
	"context"
	"time"
)

// SessionRepository persists session contexts between a search and its
// follow-up queries. Get returns ErrCacheMiss for unknown or expired keys.
type SessionRepository interface {
	Get(ctx context.Context, key string) (*SessionContext, error)
	Set(ctx context.Context, key string, value *SessionContext, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// RelevanceValidator classifies whether a product title is a direct match
// for a search term. Implementations are expected to be LLM-backed; callers
// must treat any error as RelevanceUnknown and never as fatal.
type RelevanceValidator interface {
	ValidateRelevance(ctx context.Context, productTitle, searchTerm string) (Relevance, error)
}

// DateInterpreter resolves a free-text date phrase that the built-in parsing
// strategies could not handle. It returns a strict ISO date (2006-01-02) or
// the literal string "none" when the phrase does not name a date.
type DateInterpreter interface {
	InterpretDate(ctx context.Context, phrase string, year int) (string, error)
}

// QueryParser turns a free-text shopping query into a structured one. A
// follow-up query is parsed against the context of the previous search.
type QueryParser interface {
	ParseQuery(ctx context.Context, query string) (*ParsedQuery, error)
	ParseFollowUp(ctx context.Context, query string, previous *SessionContext) (*ParsedQuery, error)
}

// ResultSummarizer produces a short natural-language summary of a ranked
// result list.
type ResultSummarizer interface {
	SummarizeResults(ctx context.Context, products []RankedProduct) (string, error)
}

// ProductSource supplies product listings for a search term. The canonical
// implementation calls the external scraper service; the scorer only depends
// on the shape of the returned products.
type ProductSource interface {
	SearchProducts(ctx context.Context, searchTerm string, filters Filters) ([]Product, error)
}
