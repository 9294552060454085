package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/tuanyuan2008/amazon-shopping-assistant/internal/domain"
)

// Default scoring parameters. Ratings on real marketplaces cluster tightly
// around 4.0-4.8, so the rating curve is a sigmoid centered at the empirical
// midpoint rather than a linear rating/5. Review counts get log-scaled
// diminishing returns capped at defaultReviewCap.
const (
	defaultMissingScore      = 0.15 // stand-in when a scoreable field is absent
	defaultAccessoryPenalty  = 0.5  // multiplier when the validator flags an accessory
	defaultRatingMidpoint    = 4.23
	defaultRatingSteepness   = 5.0
	defaultReviewCap         = 5000.0
	defaultDeliverySteepness = 1.5
	defaultDeliveryGraceDays = 2.0
)

// scoreOutcome classifies how a factor score participates in the composite.
type scoreOutcome int

const (
	// outcomeScored is a normally computed score in [0,1]
	outcomeScored scoreOutcome = iota
	// outcomeMissing means the product lacks the data for this factor; the
	// score is the configured missing-data stand-in
	outcomeMissing
	// outcomeExcluded means a hard filter was violated; the score is 0 and
	// collapses the composite
	outcomeExcluded
	// outcomePenalized means no preference term matched at all; it flips the
	// composite's sign instead of zeroing it
	outcomePenalized
)

// factorScore is one factor's contribution: a value in [0,1], its outcome,
// and a one-line explanation for the ranking breakdown.
type factorScore struct {
	value       float64
	outcome     scoreOutcome
	explanation string
}

// ScoringConfig holds the tunable parameters of the ranking algorithm. Zero
// values fall back to the defaults above so callers can set only what they
// need.
type ScoringConfig struct {
	MissingScore       float64
	AccessoryPenalty   float64
	RatingMidpoint     float64
	RatingSteepness    float64
	ReviewCap          float64
	DeliverySteepness  float64
	DeliveryGraceDays  float64
	EnableDebugLogging bool
}

// withDefaults fills unset config fields with the default parameters.
func (c ScoringConfig) withDefaults() ScoringConfig {
	if c.MissingScore <= 0 {
		c.MissingScore = defaultMissingScore
	}
	if c.AccessoryPenalty <= 0 {
		c.AccessoryPenalty = defaultAccessoryPenalty
	}
	if c.RatingMidpoint <= 0 {
		c.RatingMidpoint = defaultRatingMidpoint
	}
	if c.RatingSteepness <= 0 {
		c.RatingSteepness = defaultRatingSteepness
	}
	if c.ReviewCap <= 0 {
		c.ReviewCap = defaultReviewCap
	}
	if c.DeliverySteepness <= 0 {
		c.DeliverySteepness = defaultDeliverySteepness
	}
	if c.DeliveryGraceDays <= 0 {
		c.DeliveryGraceDays = defaultDeliveryGraceDays
	}
	return c
}

// ProductScorer computes a deterministic, explainable composite score per
// product and orders a result set by it. The five factor scores (preference,
// price, rating, reviews, delivery) combine by multiplication: a hard filter
// violation zeroes the composite, missing data degrades it by a small
// constant instead.
type ProductScorer struct {
	config    ScoringConfig
	validator domain.RelevanceValidator // optional relevance veto; may be nil
	dates     *DateResolver
	now       func() time.Time
}

// NewProductScorer creates a scorer. validator may be nil, in which case the
// relevance veto step is skipped.
func NewProductScorer(config ScoringConfig, validator domain.RelevanceValidator, dates *DateResolver) *ProductScorer {
	if dates == nil {
		dates = NewDateResolver(nil, DateResolverConfig{})
	}
	return &ProductScorer{
		config:    config.withDefaults(),
		validator: validator,
		dates:     dates,
		now:       time.Now,
	}
}

// Rank scores every product against the filters, preferences and search term
// and returns the annotated list in ranking order. Scoring failures are
// localized: one malformed product degrades only its own factor scores, it
// never aborts the ranking of the rest. An empty input yields an empty list.
//
// Order is descending by score with ties broken by input order. When every
// score is non-positive (nothing matched any preference term) the order
// flips to ascending so the least-penalized products surface first.
func (s *ProductScorer) Rank(
	ctx context.Context,
	products []domain.Product,
	filters domain.Filters,
	preferences domain.Preferences,
	searchTerm string,
) []domain.RankedProduct {
	ranked := make([]domain.RankedProduct, 0, len(products))
	allNonPositive := true

	for _, product := range products {
		score, explanation := s.scoreProduct(ctx, product, filters, preferences, products, searchTerm)
		ranked = append(ranked, domain.RankedProduct{
			Product:            product,
			Score:              score,
			RankingExplanation: explanation,
		})
		if score > 0 {
			allNonPositive = false
		}
	}

	if s.config.EnableDebugLogging {
		log.Printf("[SCORE] Ranked %d products (all non-positive: %v)", len(ranked), allNonPositive)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if allNonPositive {
			return ranked[i].Score < ranked[j].Score
		}
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// scoreProduct combines the five factor scores into the composite. The
// multiplication starts from 1.0; a zero preference match flips the sign of
// the running product and skips that factor's multiplication, leaving the
// remaining factors as the magnitude.
func (s *ProductScorer) scoreProduct(
	ctx context.Context,
	product domain.Product,
	filters domain.Filters,
	preferences domain.Preferences,
	allProducts []domain.Product,
	searchTerm string,
) (float64, string) {
	factors := []factorScore{
		s.preferenceScore(ctx, product, preferences, searchTerm),
		s.priceScore(product, filters, allProducts),
		s.ratingScore(product, filters),
		s.reviewScore(product, filters),
		s.deliveryScore(ctx, product, filters),
	}

	score := 1.0
	lines := make([]string, 0, len(factors)+1)
	for _, factor := range factors {
		lines = append(lines, "- "+factor.explanation)
		if factor.outcome == outcomePenalized {
			score *= -1
			continue
		}
		score *= factor.value
	}
	lines = append(lines, fmt.Sprintf("Total score: %.4f", score))

	return score, strings.Join(lines, "\n")
}
