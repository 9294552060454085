package usecase

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/tuanyuan2008/amazon-shopping-assistant/internal/domain"
)

// preferenceScore measures how many of the requested terms (preference
// features plus the search term itself) appear in the product title, as a
// case-insensitive substring match. A zero match is reported as penalized so
// the composite flips sign instead of collapsing to zero: a product matching
// none of the requested features may still be a decent generic match and
// should rank below every positively matched product, distinguishable by the
// other factors.
//
// When at least one term matched and a search term is present, the optional
// relevance validator gets a veto: a product judged to be an accessory for
// the searched item (a racket cover for a "tennis racket" search) has its
// preference score reduced by the configured penalty factor.
func (s *ProductScorer) preferenceScore(
	ctx context.Context,
	product domain.Product,
	preferences domain.Preferences,
	searchTerm string,
) factorScore {
	titleLower := strings.ToLower(product.Title)
	searchTerm = strings.TrimSpace(searchTerm)

	// Terms to match: all preference features plus the search term itself,
	// case-folded and deduplicated, preserving order.
	terms := make([]string, 0, len(preferences.Features)+1)
	seen := make(map[string]bool)
	for _, feature := range preferences.Features {
		term := strings.ToLower(strings.TrimSpace(feature))
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
	}
	if term := strings.ToLower(searchTerm); term != "" && !seen[term] {
		terms = append(terms, term)
	}

	if len(terms) == 0 {
		return factorScore{
			value:       s.config.MissingScore,
			outcome:     outcomeMissing,
			explanation: fmt.Sprintf("Preference score: %.2f (no preferences or search term to match)", s.config.MissingScore),
		}
	}

	var matched, missing []string
	for _, term := range terms {
		if strings.Contains(titleLower, term) {
			matched = append(matched, term)
		} else {
			missing = append(missing, term)
		}
	}

	var details []string
	if len(matched) > 0 {
		details = append(details, "Matched: "+strings.Join(matched, ", "))
	}
	if len(missing) > 0 {
		details = append(details, "Missing: "+strings.Join(missing, ", "))
	}

	fraction := float64(len(matched)) / float64(len(terms))
	if fraction == 0 {
		return factorScore{
			value:       0,
			outcome:     outcomePenalized,
			explanation: fmt.Sprintf("Preference score: 0.00 (%s)", strings.Join(details, "; ")),
		}
	}

	score := fraction
	if searchTerm != "" {
		if s.validator != nil {
			verdict, err := s.validator.ValidateRelevance(ctx, product.Title, searchTerm)
			if err != nil {
				log.Printf("[SCORE] Relevance validation failed for %q: %v", product.Title, err)
				verdict = domain.RelevanceUnknown
			}
			switch verdict {
			case domain.RelevanceAccessory:
				score *= s.config.AccessoryPenalty
				details = append(details, "LLM: accessory, score reduced")
			case domain.RelevanceUnknown:
				details = append(details, "LLM: validation inconclusive")
			default:
				details = append(details, "LLM: primary")
			}
		} else {
			details = append(details, "relevance validator not available")
		}
	}

	return factorScore{
		value:       score,
		outcome:     outcomeScored,
		explanation: fmt.Sprintf("Preference score: %.2f (%s)", score, strings.Join(details, "; ")),
	}
}

// priceScore ranks a product's price against its peers in the current result
// set. The score is the inverted percentile rank of the unit price when one
// is listed, otherwise of the base price: cheaper than peers scores toward
// 1.0, pricier toward 0.0. The price_max filter is a hard bound checked
// against the base price only, never the unit price, so the user's stated
// budget always applies to what they would actually pay.
func (s *ProductScorer) priceScore(product domain.Product, filters domain.Filters, allProducts []domain.Product) factorScore {
	price := numericValue(product.Price)
	unitPrice := numericValue(product.PricePerCount)

	if price == nil {
		return factorScore{
			value:       s.config.MissingScore,
			outcome:     outcomeMissing,
			explanation: fmt.Sprintf("Price score: %.2f (no price found for product)", s.config.MissingScore),
		}
	}
	if filters.PriceMax != nil && *price > *filters.PriceMax {
		return factorScore{
			value:       0,
			outcome:     outcomeExcluded,
			explanation: fmt.Sprintf("Price score: 0 (price $%.2f > max $%.2f)", *price, *filters.PriceMax),
		}
	}

	if unitPrice != nil {
		score, ok := s.pricePercentileScore(allProducts, *unitPrice, true)
		return s.percentileFactor(score, ok, fmt.Sprintf("unit price: %s", product.PricePerCount))
	}
	score, ok := s.pricePercentileScore(allProducts, *price, false)
	return s.percentileFactor(score, ok, fmt.Sprintf("base price: $%.2f", *price))
}

// pricePercentileScore computes the inverted percentile of a price across
// the peer products' corresponding values (unit price or base price). The
// second return is false when no peer has a parseable value to compare with.
func (s *ProductScorer) pricePercentileScore(products []domain.Product, price float64, unitPrice bool) (float64, bool) {
	var peers []float64
	for _, p := range products {
		raw := p.Price
		if unitPrice {
			raw = p.PricePerCount
		}
		if v := numericValue(raw); v != nil {
			peers = append(peers, *v)
		}
	}
	if len(peers) == 0 {
		return s.config.MissingScore, false
	}
	return (100 - percentileOfScore(peers, price)) / 100, true
}

func (s *ProductScorer) percentileFactor(score float64, ok bool, detail string) factorScore {
	outcome := outcomeScored
	if !ok {
		outcome = outcomeMissing
	}
	return factorScore{
		value:       score,
		outcome:     outcome,
		explanation: fmt.Sprintf("Price score: %.2f (%s)", score, detail),
	}
}

// ratingScore parses the leading numeric token of the rating text ("4.5"
// from "4.5 out of 5 stars") and shapes it through a sigmoid centered at the
// configured midpoint, sharply rewarding ratings above it and penalizing
// ratings below.
func (s *ProductScorer) ratingScore(product domain.Product, filters domain.Filters) factorScore {
	fields := strings.Fields(product.Rating)
	var rating float64
	var err error
	if len(fields) == 0 {
		err = fmt.Errorf("empty rating")
	} else {
		rating, err = strconv.ParseFloat(fields[0], 64)
	}
	if err != nil {
		return factorScore{
			value:       s.config.MissingScore,
			outcome:     outcomeMissing,
			explanation: fmt.Sprintf("Rating score: %.2f (no rating found for product)", s.config.MissingScore),
		}
	}

	if filters.MinRating != nil && rating < *filters.MinRating {
		return factorScore{
			value:       0,
			outcome:     outcomeExcluded,
			explanation: fmt.Sprintf("Rating score: 0 (rating %.1f < min %.1f)", rating, *filters.MinRating),
		}
	}

	score := sigmoid(s.config.RatingSteepness * (rating - s.config.RatingMidpoint))
	return factorScore{
		value:       score,
		outcome:     outcomeScored,
		explanation: fmt.Sprintf("Rating score: %.2f (%.1f/5 stars)", score, rating),
	}
}

// reviewScore applies log-scaled diminishing returns to the review count,
// capped so a product with 50,000 reviews does not overwhelm one with 5,000.
func (s *ProductScorer) reviewScore(product domain.Product, filters domain.Filters) factorScore {
	count := numericValue(product.ReviewCount)
	if count == nil {
		return factorScore{
			value:       s.config.MissingScore,
			outcome:     outcomeMissing,
			explanation: fmt.Sprintf("Review count score: %.2f (no reviews found for product)", s.config.MissingScore),
		}
	}

	if filters.MinReviews != nil && *count < float64(*filters.MinReviews) {
		return factorScore{
			value:       0,
			outcome:     outcomeExcluded,
			explanation: fmt.Sprintf("Review count score: 0 (%d < min %d)", int(*count), *filters.MinReviews),
		}
	}

	capped := math.Min(*count, s.config.ReviewCap)
	score := math.Log10(capped+1) / math.Log10(s.config.ReviewCap)
	return factorScore{
		value:       score,
		outcome:     outcomeScored,
		explanation: fmt.Sprintf("Review count score: %.2f (%d reviews)", score, int(*count)),
	}
}

// deliveryScore resolves the product's delivery estimate and the requested
// deliver-by date through the date resolver. A late product gets an inverse
// decay penalty, never a hard exclusion: delivery timing is a preference,
// not an eligibility bar. On time, or with no target requested, sooner is
// generically better, shaped by a sigmoid over days-until-delivery past the
// grace window.
func (s *ProductScorer) deliveryScore(ctx context.Context, product domain.Product, filters domain.Filters) factorScore {
	target := s.dates.Resolve(ctx, filters.DeliverBy)
	actual := s.dates.Resolve(ctx, product.DeliveryEstimate)

	if actual == nil {
		return factorScore{
			value:       s.config.MissingScore,
			outcome:     outcomeMissing,
			explanation: fmt.Sprintf("Delivery score: %.2f (no delivery date found for product)", s.config.MissingScore),
		}
	}

	if target != nil && target.Before(*actual) {
		daysLate := daysBetween(*target, *actual)
		score := math.Max(0, 1.0/float64(daysLate+1))
		return factorScore{
			value:   score,
			outcome: outcomeScored,
			explanation: fmt.Sprintf("Delivery score: %.2f (arrives %s, wanted by %s, %d days late)",
				score, actual.Format("2006-01-02"), target.Format("2006-01-02"), daysLate),
		}
	}

	daysUntil := daysBetween(atMidnight(s.now()), *actual)
	score := 1 - sigmoid(s.config.DeliverySteepness*(float64(daysUntil)-s.config.DeliveryGraceDays))
	return factorScore{
		value:       score,
		outcome:     outcomeScored,
		explanation: fmt.Sprintf("Delivery score: %.2f (%d days until delivery)", score, daysUntil),
	}
}
