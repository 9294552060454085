package scraper

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

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8001", 30)

	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:8001", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 1500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, backoff(tt.attempt))
		})
	}
}

func TestIsRunning(t *testing.T) {
	t.Run("healthy service", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(healthResponse{Status: "ok"})
		}))
		defer server.Close()

		client := NewClient(server.URL, 0)
		assert.True(t, client.IsRunning(context.Background()))
	})

	t.Run("unhealthy status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(healthResponse{Status: "starting"})
		}))
		defer server.Close()

		client := NewClient(server.URL, 0)
		assert.False(t, client.IsRunning(context.Background()))
	})

	t.Run("http error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewClient(server.URL, 0)
		assert.False(t, client.IsRunning(context.Background()))
	})

	t.Run("unreachable service", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", 0)
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		assert.False(t, client.IsRunning(ctx))
	})
}

func TestSearchProducts_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tennis racket", req.SearchTerm)
		require.NotNil(t, req.Filters.PriceMax)
		assert.Equal(t, 100.0, *req.Filters.PriceMax)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(searchResponse{Products: []domain.Product{
			{Title: "Wilson Pro Staff", Price: "89.99", URL: "https://example.com/a"},
			{Title: "HEAD Ti.S6", Price: "59.99", URL: "https://example.com/b"},
		}})
	}))
	defer server.Close()

	priceMax := 100.0
	client := NewClient(server.URL, 0)
	products, err := client.SearchProducts(context.Background(), "tennis racket", domain.Filters{PriceMax: &priceMax})

	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, "Wilson Pro Staff", products[0].Title)
}

func TestSearchProducts_EmptyTerm(t *testing.T) {
	client := NewClient("http://localhost:8001", 0)
	products, err := client.SearchProducts(context.Background(), "", domain.Filters{})

	assert.Nil(t, products)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestSearchProducts_NormalizesListings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(searchResponse{Products: []domain.Product{
			{Title: "  Padded Title  ", Price: " 19.99 ", URL: " https://example.com/a "},
			{Title: "No URL Product"},
			{Title: "Duplicate", URL: "https://example.com/a"},
		}})
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	products, err := client.SearchProducts(context.Background(), "anything", domain.Filters{})

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Padded Title", products[0].Title)
	assert.Equal(t, "19.99", products[0].Price)
	assert.Equal(t, "https://example.com/a", products[0].URL)
}

func TestSearchProducts_ServerError_Retries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(searchResponse{Products: []domain.Product{
			{Title: "Recovered", URL: "https://example.com/r"},
		}})
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	products, err := client.SearchProducts(context.Background(), "retry-test", domain.Filters{})

	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 3, attempts)
}

func TestSearchProducts_AllRetriesFail(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	products, err := client.SearchProducts(context.Background(), "all-fail", domain.Filters{})

	assert.Nil(t, products)
	assert.ErrorIs(t, err, domain.ErrScraperFailure)
	assert.Equal(t, 3, attempts)
}

func TestSearchProducts_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	products, err := client.SearchProducts(context.Background(), "invalid-json", domain.Filters{})

	assert.Nil(t, products)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}
