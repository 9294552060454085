package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tuanyuan2008/amazon-shopping-assistant/internal/domain"
	"github.com/tuanyuan2008/amazon-shopping-assistant/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	search *usecase.SearchService
}

// NewHandler creates a new HTTP handler
func NewHandler(search *usecase.SearchService) *Handler {
	return &Handler{search: search}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shopping-assistant",
		"version": "1.0.0",
	})
}

// rankRequest is the request body for the rank endpoint: an already-fetched
// product list plus the structured query to rank it by.
type rankRequest struct {
	Products    []domain.Product   `json:"products" binding:"required"`
	Filters     domain.Filters     `json:"filters"`
	Preferences domain.Preferences `json:"preferences"`
	SearchTerm  string             `json:"search_term"`
}

// RankProducts scores and orders a caller-supplied product list.
func (h *Handler) RankProducts(c *gin.Context) {
	var req rankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ranked := h.search.Rank(c.Request.Context(), req.Products, req.Filters, req.Preferences, req.SearchTerm)

	c.JSON(http.StatusOK, gin.H{
		"products": ranked,
		"count":    len(ranked),
	})
}

// parseRequest is the request body for the query parse endpoint
type parseRequest struct {
	Query string `json:"query" binding:"required"`
}

// ParseQuery turns a free-text shopping query into its structured form.
func (h *Handler) ParseQuery(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	parsed, err := h.search.Parse(c.Request.Context(), req.Query)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, parsed)
}

// searchRequest is the request body for the full pipeline endpoint. A
// session id from a previous response makes the query a follow-up.
type searchRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id"`
}

// ShoppingSearch runs the full pipeline: parse, scrape, rank, validate,
// summarize.
func (h *Handler) ShoppingSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.search.Search(c.Request.Context(), req.Query, req.SessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnparsableQuery),
		errors.Is(err, domain.ErrLLMFailure),
		errors.Is(err, domain.ErrScraperFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
