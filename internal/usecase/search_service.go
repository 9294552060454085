package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tuanyuan2008/amazon-shopping-assistant/internal/domain"
)

// summaryFallback is returned when the summarizer is unavailable or fails;
// summaries are a nicety, never a reason to fail a search.
const summaryFallback = "No summary available."

// SearchServiceConfig holds configuration for the search pipeline
type SearchServiceConfig struct {
	SessionTTL               time.Duration
	ValidationTopN           int
	MaxResults               int
	EnableRelevanceFiltering bool
	EnableDebugLogging       bool
}

// SearchService runs the full shopping pipeline: parse the free-text query
// (against the previous session context for follow-ups), fetch products from
// the product source, rank them, optionally validate the top results against
// the search term, summarize, and persist the session context for follow-up
// queries.
type SearchService struct {
	cache      domain.SessionRepository
	parser     domain.QueryParser
	source     domain.ProductSource
	summarizer domain.ResultSummarizer
	scorer     *ProductScorer
	relevance  *RelevanceFilter

	sessionTTL               time.Duration
	maxResults               int
	enableRelevanceFiltering bool
	enableDebugLogging       bool
}

// NewSearchService creates the pipeline service with its dependencies.
// summarizer may be nil; summaries then degrade to a fixed message.
func NewSearchService(
	cache domain.SessionRepository,
	parser domain.QueryParser,
	source domain.ProductSource,
	summarizer domain.ResultSummarizer,
	scorer *ProductScorer,
	relevance *RelevanceFilter,
	config SearchServiceConfig,
) *SearchService {
	sessionTTL := config.SessionTTL
	if sessionTTL == 0 {
		sessionTTL = 30 * time.Minute
	}

	return &SearchService{
		cache:                    cache,
		parser:                   parser,
		source:                   source,
		summarizer:               summarizer,
		scorer:                   scorer,
		relevance:                relevance,
		sessionTTL:               sessionTTL,
		maxResults:               config.MaxResults,
		enableRelevanceFiltering: config.EnableRelevanceFiltering,
		enableDebugLogging:       config.EnableDebugLogging,
	}
}

// Search runs the pipeline for a free-text query. A non-empty sessionID with
// a stored context makes this a follow-up search; an unknown or expired
// session id falls back to a fresh search rather than failing.
func (s *SearchService) Search(ctx context.Context, query, sessionID string) (*domain.SearchResult, error) {
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}

	previous := s.loadContext(ctx, sessionID)

	var parsed *domain.ParsedQuery
	var err error
	if previous != nil {
		parsed, err = s.parser.ParseFollowUp(ctx, query, previous)
	} else {
		parsed, err = s.parser.ParseQuery(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnparsableQuery, err)
	}
	if s.enableDebugLogging {
		log.Printf("[SEARCH] Parsed %q -> search term %q, %d features",
			query, parsed.SearchTerm, len(parsed.Preferences.Features))
	}

	products, err := s.source.SearchProducts(ctx, parsed.SearchTerm, parsed.Filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrScraperFailure, err)
	}

	ranked := s.scorer.Rank(ctx, products, parsed.Filters, parsed.Preferences, parsed.SearchTerm)

	if s.enableRelevanceFiltering && s.relevance != nil && parsed.SearchTerm != "" {
		ranked = s.relevance.FilterTopProducts(ctx, ranked, parsed.SearchTerm)
	}
	if s.maxResults > 0 && len(ranked) > s.maxResults {
		ranked = ranked[:s.maxResults]
	}

	summary := s.summarize(ctx, ranked)

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s.storeContext(ctx, sessionID, query, parsed, ranked, summary)

	return &domain.SearchResult{
		SessionID: sessionID,
		Query:     *parsed,
		Products:  ranked,
		Summary:   summary,
	}, nil
}

// Parse exposes query parsing without running the rest of the pipeline.
func (s *SearchService) Parse(ctx context.Context, query string) (*domain.ParsedQuery, error) {
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}
	parsed, err := s.parser.ParseQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnparsableQuery, err)
	}
	return parsed, nil
}

// Rank exposes the scorer directly for callers that already hold a product
// list (the /rank endpoint).
func (s *SearchService) Rank(
	ctx context.Context,
	products []domain.Product,
	filters domain.Filters,
	preferences domain.Preferences,
	searchTerm string,
) []domain.RankedProduct {
	return s.scorer.Rank(ctx, products, filters, preferences, searchTerm)
}

// loadContext fetches the previous session context, tolerating cache misses.
func (s *SearchService) loadContext(ctx context.Context, sessionID string) *domain.SessionContext {
	if sessionID == "" || s.cache == nil {
		return nil
	}
	previous, err := s.cache.Get(ctx, sessionKey(sessionID))
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			log.Printf("[SEARCH] Session lookup failed: %v", err)
		}
		return nil
	}
	return previous
}

// storeContext persists the session context for follow-up queries. A cache
// failure is logged, not propagated: follow-ups degrade to fresh searches.
func (s *SearchService) storeContext(
	ctx context.Context,
	sessionID, query string,
	parsed *domain.ParsedQuery,
	ranked []domain.RankedProduct,
	summary string,
) {
	if s.cache == nil {
		return
	}
	sessionContext := &domain.SessionContext{
		Query:       query,
		SearchTerm:  parsed.SearchTerm,
		Filters:     parsed.Filters,
		Preferences: parsed.Preferences,
		Summary:     summary,
		Products:    ranked,
		CreatedAt:   time.Now(),
	}
	if err := s.cache.Set(ctx, sessionKey(sessionID), sessionContext, s.sessionTTL); err != nil {
		log.Printf("[SEARCH] Failed to store session context: %v", err)
	}
}

func (s *SearchService) summarize(ctx context.Context, ranked []domain.RankedProduct) string {
	if s.summarizer == nil || len(ranked) == 0 {
		return summaryFallback
	}
	summary, err := s.summarizer.SummarizeResults(ctx, ranked)
	if err != nil {
		log.Printf("[SEARCH] Summarization failed: %v", err)
		return summaryFallback
	}
	return summary
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}
