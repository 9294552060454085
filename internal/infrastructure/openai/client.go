package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tuanyuan2008/amazon-shopping-assistant/internal/domain"
)

// Client handles communication with an OpenAI-compatible chat completions
// API. It implements the QueryParser, RelevanceValidator, DateInterpreter
// and ResultSummarizer ports.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new LLM client. requestsPerMinute bounds the outbound
// call rate across all uses of the client.
func NewClient(apiKey, baseURL, model string, requestsPerMinute int) *Client {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 5)

	return &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // LLM inference can be slow
		},
		apiKey:      apiKey,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		model:       model,
		rateLimiter: limiter,
	}
}

// SetDebug enables or disables debug logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// exponentialBackoff returns the wait before retry attempt n (1-based)
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(250*(1<<(attempt-1))) * time.Millisecond
}

// chat runs one chat completion and returns the trimmed assistant message.
// Transient failures are retried up to 3 times with backoff.
func (c *Client) chat(ctx context.Context, systemPrompt, userMessage string, temperature float64, maxTokens int) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if c.debug {
				log.Printf("[OPENAI] Request error (attempt %d): %v", attempt, err)
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			if c.debug {
				log.Printf("[OPENAI] API error (attempt %d) - Status: %d, Body: %s", attempt, resp.StatusCode, string(body))
			}
			lastErr = fmt.Errorf("%w: status %d", domain.ErrLLMFailure, resp.StatusCode)
			// Client errors other than 429 will not get better on retry
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return "", lastErr
			}
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		var chatResp chatResponse
		if err := json.Unmarshal(body, &chatResp); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
		if len(chatResp.Choices) == 0 {
			return "", fmt.Errorf("%w: empty choices", domain.ErrLLMFailure)
		}
		return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
	}

	return "", lastErr
}

// ParseQuery turns a free-text shopping query into a structured one.
func (c *Client) ParseQuery(ctx context.Context, query string) (*domain.ParsedQuery, error) {
	prompt := queryParserPrompt(time.Now().Year())
	content, err := c.chat(ctx, prompt, query, 0, 0)
	if err != nil {
		return nil, err
	}
	return decodeParsedQuery(content)
}

// ParseFollowUp parses a follow-up query against the previous session
// context so refinements ("under $50 instead", "only prime") apply to the
// prior search.
func (c *Client) ParseFollowUp(ctx context.Context, query string, previous *domain.SessionContext) (*domain.ParsedQuery, error) {
	prompt := followUpParserPrompt(time.Now().Year())

	filtersJSON, _ := json.Marshal(previous.Filters)
	preferencesJSON, _ := json.Marshal(previous.Preferences)
	userMessage := fmt.Sprintf(
		"Previous search: %s\nPrevious filters: %s\nPrevious preferences: %s\nResults summary: %s\nFollow-up: %s",
		previous.SearchTerm, filtersJSON, preferencesJSON, previous.Summary, query,
	)

	content, err := c.chat(ctx, prompt, userMessage, 0, 0)
	if err != nil {
		return nil, err
	}
	return decodeParsedQuery(content)
}

// ValidateRelevance classifies whether a product title is a direct, primary
// match for the search term. The model answers yes/no; anything else is
// unknown.
func (c *Client) ValidateRelevance(ctx context.Context, productTitle, searchTerm string) (domain.Relevance, error) {
	userMessage := fmt.Sprintf("Product title: %s\nSearch term: %s", productTitle, searchTerm)
	content, err := c.chat(ctx, relevanceValidatorPrompt, userMessage, 0, 3)
	if err != nil {
		return domain.RelevanceUnknown, err
	}

	switch strings.ToLower(content) {
	case "yes":
		return domain.RelevancePrimary, nil
	case "no":
		return domain.RelevanceAccessory, nil
	default:
		if c.debug {
			log.Printf("[OPENAI] Unexpected relevance answer %q, defaulting to unknown", content)
		}
		return domain.RelevanceUnknown, nil
	}
}

// InterpretDate resolves a free-text date phrase to a strict ISO date, or
// "none" when the phrase does not name a date.
func (c *Client) InterpretDate(ctx context.Context, phrase string, year int) (string, error) {
	return c.chat(ctx, dateParserPrompt(year), phrase, 0, 12)
}

// SummarizeResults produces a short natural-language synthesis of the ranked
// result list.
func (c *Client) SummarizeResults(ctx context.Context, products []domain.RankedProduct) (string, error) {
	if len(products) == 0 {
		return "No products to summarize.", nil
	}

	var lines []string
	for i, p := range products {
		lines = append(lines, fmt.Sprintf("%d. Title: %s, Price: $%s, Rating: %s", i+1, p.Title, p.Price, p.Rating))
	}
	userMessage := "Please provide a concise summary for the following list of products. " +
		"Highlight any notable trends in price, ratings, or common features if apparent. " +
		"Do not list each product individually; give an overall synthesis.\n\nProducts:\n" +
		strings.Join(lines, "\n")

	return c.chat(ctx, resultsSummarizerPrompt, userMessage, 0.3, 0)
}

// decodeParsedQuery decodes the model's JSON answer, tolerating a fenced
// code block around it.
func decodeParsedQuery(content string) (*domain.ParsedQuery, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var parsed domain.ParsedQuery
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnparsableQuery, err)
	}
	return &parsed, nil
}
