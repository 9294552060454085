package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/tuanyuan2008/amazon-shopping-assistant/internal/domain"
)

// Client talks to the external scraper service that performs the actual
// marketplace browsing and DOM extraction. This service owns browser
// automation entirely; we only consume its product listings.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a scraper service client. requestsPerMinute bounds
// outbound search calls so the sidecar is not asked to scrape faster than
// the marketplace tolerates.
func NewClient(baseURL string, requestsPerMinute int) *Client {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 3)

	return &Client{
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // scraping a result page is slow
		},
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// SetDebug enables or disables debug logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// searchRequest is the scraper service's search API request body
type searchRequest struct {
	SearchTerm string         `json:"search_term"`
	Filters    domain.Filters `json:"filters"`
}

// searchResponse is the scraper service's search API response body
type searchResponse struct {
	Products []domain.Product `json:"products"`
}

// healthResponse is the scraper service's health check response
type healthResponse struct {
	Status string `json:"status"`
}

// IsRunning reports whether the scraper service is reachable and healthy.
func (c *Client) IsRunning(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false
	}
	return health.Status == "ok"
}

// SearchProducts asks the scraper service for product listings matching the
// search term and hard filters (prime and sort order are applied here, at
// query time). Transient failures are retried up to 3 times with backoff.
func (c *Client) SearchProducts(ctx context.Context, searchTerm string, filters domain.Filters) ([]domain.Product, error) {
	if searchTerm == "" {
		return nil, domain.ErrInvalidRequest
	}

	payload, err := json.Marshal(searchRequest{SearchTerm: searchTerm, Filters: filters})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/search", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if c.debug {
				log.Printf("[SCRAPER] Request error (attempt %d): %v", attempt, err)
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrScraperFailure, err)
			time.Sleep(backoff(attempt))
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			if c.debug {
				log.Printf("[SCRAPER] API error (attempt %d) - Status: %d, Body: %s", attempt, resp.StatusCode, string(body))
			}
			lastErr = fmt.Errorf("%w: status %d", domain.ErrScraperFailure, resp.StatusCode)
			time.Sleep(backoff(attempt))
			continue
		}

		var searchResp searchResponse
		if err := json.Unmarshal(body, &searchResp); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		products := NormalizeProducts(searchResp.Products)
		if c.debug {
			log.Printf("[SCRAPER] Found %d products for %q", len(products), searchTerm)
		}
		return products, nil
	}

	return nil, lastErr
}

// backoff returns the wait before retry attempt n (1-based)
func backoff(attempt int) time.Duration {
	return time.Duration(attempt*500) * time.Millisecond
}
