package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanyuan2008/amazon-shopping-assistant/internal/domain"
)

// chatServer returns a mock chat completions endpoint answering with the
// given assistant content.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{
				{Message: chatMessage{Role: "assistant", Content: content}},
			},
		})
	}))
}

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key", "https://api.example.com/", "gpt-4o-mini", 30)

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "https://api.example.com", client.baseURL) // trailing slash trimmed
	assert.Equal(t, "gpt-4o-mini", client.model)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)
}

func TestSetDebug(t *testing.T) {
	client := NewClient("test-api-key", "https://api.example.com", "gpt-4o-mini", 0)

	assert.False(t, client.debug)
	client.SetDebug(true)
	assert.True(t, client.debug)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 250 * time.Millisecond},
		{2, 500 * time.Millisecond},
		{3, 1000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestParseQuery_Success(t *testing.T) {
	answer := `{"search_term": "tennis racket", "filters": {"price_max": 100}, "preferences": {"features": ["wilson"]}}`
	server := chatServer(t, answer)
	defer server.Close()

	client := NewClient("test-api-key", server.URL, "gpt-4o-mini", 0)
	ctx := context.Background()

	parsed, err := client.ParseQuery(ctx, "wilson tennis racket under $100")

	require.NoError(t, err)
	assert.Equal(t, "tennis racket", parsed.SearchTerm)
	require.NotNil(t, parsed.Filters.PriceMax)
	assert.Equal(t, 100.0, *parsed.Filters.PriceMax)
	assert.Equal(t, []string{"wilson"}, parsed.Preferences.Features)
}

func TestParseQuery_FencedAnswer(t *testing.T) {
	answer := "```json\n{\"search_term\": \"running shoes\", \"filters\": {}, \"preferences\": {\"features\": []}}\n```"
	server := chatServer(t, answer)
	defer server.Close()

	client := NewClient("test-api-key", server.URL, "gpt-4o-mini", 0)
	parsed, err := client.ParseQuery(context.Background(), "running shoes")

	require.NoError(t, err)
	assert.Equal(t, "running shoes", parsed.SearchTerm)
}

func TestParseQuery_MalformedAnswer(t *testing.T) {
	server := chatServer(t, "I could not parse that query, sorry!")
	defer server.Close()

	client := NewClient("test-api-key", server.URL, "gpt-4o-mini", 0)
	parsed, err := client.ParseQuery(context.Background(), "???")

	assert.Nil(t, parsed)
	assert.ErrorIs(t, err, domain.ErrUnparsableQuery)
}

func TestParseFollowUp_Success(t *testing.T) {
	var gotUser string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		gotUser = req.Messages[1].Content

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{
				{Message: chatMessage{Role: "assistant", Content: `{"search_term": "tennis racket", "filters": {"price_max": 50}, "preferences": {"features": []}}`}},
			},
		})
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, "gpt-4o-mini", 0)
	previous := &domain.SessionContext{
		SearchTerm: "tennis racket",
		Summary:    "Mostly mid-range rackets.",
	}

	parsed, err := client.ParseFollowUp(context.Background(), "under $50 instead", previous)

	require.NoError(t, err)
	require.NotNil(t, parsed.Filters.PriceMax)
	assert.Equal(t, 50.0, *parsed.Filters.PriceMax)
	assert.Contains(t, gotUser, "Previous search: tennis racket")
	assert.Contains(t, gotUser, "Follow-up: under $50 instead")
}

func TestValidateRelevance(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		expected domain.Relevance
	}{
		{"yes means primary", "yes", domain.RelevancePrimary},
		{"capitalized yes", "Yes", domain.RelevancePrimary},
		{"no means accessory", "no", domain.RelevanceAccessory},
		{"anything else is unknown", "it depends on the racket", domain.RelevanceUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := chatServer(t, tt.answer)
			defer server.Close()

			client := NewClient("test-api-key", server.URL, "gpt-4o-mini", 0)
			verdict, err := client.ValidateRelevance(context.Background(), "Racket Cover", "tennis racket")

			require.NoError(t, err)
			assert.Equal(t, tt.expected, verdict)
		})
	}
}

func TestValidateRelevance_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, "gpt-4o-mini", 0)
	verdict, err := client.ValidateRelevance(context.Background(), "Racket Cover", "tennis racket")

	assert.Error(t, err)
	assert.Equal(t, domain.RelevanceUnknown, verdict)
}

func TestInterpretDate(t *testing.T) {
	server := chatServer(t, "2026-12-25")
	defer server.Close()

	client := NewClient("test-api-key", server.URL, "gpt-4o-mini", 0)
	result, err := client.InterpretDate(context.Background(), "the day santa comes", 2026)

	require.NoError(t, err)
	assert.Equal(t, "2026-12-25", result)
}

func TestSummarizeResults(t *testing.T) {
	t.Run("empty list needs no API call", func(t *testing.T) {
		client := NewClient("test-api-key", "https://api.example.com", "gpt-4o-mini", 0)
		summary, err := client.SummarizeResults(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "No products to summarize.", summary)
	})

	t.Run("forwards the ranked products", func(t *testing.T) {
		server := chatServer(t, "Solid mid-range options around $60.")
		defer server.Close()

		client := NewClient("test-api-key", server.URL, "gpt-4o-mini", 0)
		products := []domain.RankedProduct{
			{Product: domain.Product{Title: "Racket A", Price: "59.99", Rating: "4.5 out of 5 stars"}, Score: 0.8},
		}
		summary, err := client.SummarizeResults(context.Background(), products)

		require.NoError(t, err)
		assert.Equal(t, "Solid mid-range options around $60.", summary)
	})
}

func TestChat_ServerError_Retries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{
				{Message: chatMessage{Role: "assistant", Content: "yes"}},
			},
		})
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, "gpt-4o-mini", 0)
	verdict, err := client.ValidateRelevance(context.Background(), "Racket", "tennis racket")

	require.NoError(t, err)
	assert.Equal(t, domain.RelevancePrimary, verdict)
	assert.Equal(t, 3, attempts)
}

func TestChat_ClientError_NoRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("bad-key", server.URL, "gpt-4o-mini", 0)
	_, err := client.ParseQuery(context.Background(), "tennis racket")

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMFailure)
	assert.Equal(t, 1, attempts) // Should not retry auth failures
}

func TestChat_TooManyRequests_Retries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{
				{Message: chatMessage{Role: "assistant", Content: "2026-01-01"}},
			},
		})
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, "gpt-4o-mini", 0)
	result, err := client.InterpretDate(context.Background(), "new years", 2026)

	require.NoError(t, err)
	assert.Equal(t, "2026-01-01", result)
	assert.Equal(t, 2, attempts)
}

func TestChat_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, "gpt-4o-mini", 0)
	_, err := client.InterpretDate(context.Background(), "tomorrow", 2026)

	assert.ErrorIs(t, err, domain.ErrLLMFailure)
}

func TestChat_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, "gpt-4o-mini", 0)
	_, err := client.InterpretDate(context.Background(), "tomorrow", 2026)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestDecodeParsedQuery(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		parsed, err := decodeParsedQuery(`{"search_term": "usb cable", "filters": {}, "preferences": {"features": []}}`)
		require.NoError(t, err)
		assert.Equal(t, "usb cable", parsed.SearchTerm)
	})

	t.Run("fenced without language tag", func(t *testing.T) {
		parsed, err := decodeParsedQuery("```\n{\"search_term\": \"usb cable\", \"filters\": {}, \"preferences\": {\"features\": []}}\n```")
		require.NoError(t, err)
		assert.Equal(t, "usb cable", parsed.SearchTerm)
	})

	t.Run("not JSON at all", func(t *testing.T) {
		parsed, err := decodeParsedQuery("no structured answer")
		assert.Nil(t, parsed)
		assert.ErrorIs(t, err, domain.ErrUnparsableQuery)
	})
}
