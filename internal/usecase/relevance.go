package usecase

import (
	"context"
	"log"
	"sync"

	"github.com/tuanyuan2008/amazon-shopping-assistant/internal/domain"
)

const (
	// defaultValidationTopN is how many of the top-ranked products are
	// validated against the search term after ranking
	defaultValidationTopN = 25
	// concurrentValidations bounds the parallel validator calls
	concurrentValidations = 5
)

// RelevanceFilter is the post-ranking validation pass: it takes the top N
// ranked products and keeps only those the validator judges to be a primary
// match for the search term. Validator failures count as unknown and drop
// the product from the validated view; they never abort the pass.
type RelevanceFilter struct {
	validator          domain.RelevanceValidator
	topN               int
	enableDebugLogging bool
}

// NewRelevanceFilter creates the validation pass. validator may be nil, in
// which case FilterTopProducts returns the top slice unvalidated.
func NewRelevanceFilter(validator domain.RelevanceValidator, topN int, enableDebugLogging bool) *RelevanceFilter {
	if topN <= 0 {
		topN = defaultValidationTopN
	}
	return &RelevanceFilter{
		validator:          validator,
		topN:               topN,
		enableDebugLogging: enableDebugLogging,
	}
}

// FilterTopProducts validates the top N products concurrently (bounded
// fan-out) and returns those judged primary, in their original ranking
// order. Products without a URL cannot be mapped to a decision and are
// dropped.
func (f *RelevanceFilter) FilterTopProducts(
	ctx context.Context,
	ranked []domain.RankedProduct,
	searchTerm string,
) []domain.RankedProduct {
	if len(ranked) == 0 {
		return nil
	}

	candidates := ranked
	if len(candidates) > f.topN {
		candidates = candidates[:f.topN]
	}
	if f.validator == nil {
		return candidates
	}

	decisions := make([]domain.Relevance, len(candidates))

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrentValidations)
	for i, candidate := range candidates {
		wg.Add(1)
		go func(index int, product domain.RankedProduct) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				decisions[index] = domain.RelevanceUnknown
				return
			}

			verdict, err := f.validator.ValidateRelevance(ctx, product.Title, searchTerm)
			if err != nil {
				log.Printf("[RELEVANCE] Validation of %q failed: %v", product.Title, err)
				verdict = domain.RelevanceUnknown
			}
			decisions[index] = verdict
		}(i, candidate)
	}
	wg.Wait()

	kept := make([]domain.RankedProduct, 0, len(candidates))
	for i, candidate := range candidates {
		if candidate.URL == "" {
			log.Printf("[RELEVANCE] Product %q has no URL, cannot map decision, dropping", candidate.Title)
			continue
		}
		if decisions[i] == domain.RelevancePrimary {
			kept = append(kept, candidate)
		} else if f.enableDebugLogging {
			log.Printf("[RELEVANCE] Dropped %q (decision: %s)", candidate.Title, decisions[i])
		}
	}

	if f.enableDebugLogging {
		log.Printf("[RELEVANCE] Kept %d of %d top products", len(kept), len(candidates))
	}
	return kept
}
