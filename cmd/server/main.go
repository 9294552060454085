package main

import (
	"fmt"
	"log"
	"os"

	"github.com/tuanyuan2008/amazon-shopping-assistant/config"
	httpDelivery "github.com/tuanyuan2008/amazon-shopping-assistant/internal/delivery/http"
	"github.com/tuanyuan2008/amazon-shopping-assistant/internal/infrastructure/cache"
	"github.com/tuanyuan2008/amazon-shopping-assistant/internal/infrastructure/openai"
	"github.com/tuanyuan2008/amazon-shopping-assistant/internal/infrastructure/scraper"
	"github.com/tuanyuan2008/amazon-shopping-assistant/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Shopping Assistant v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Initialize infrastructure dependencies
	sessionCache := cache.NewSessionCache()
	log.Printf("Session TTL: %s", cfg.Session.TTL)

	llmClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.RequestsPerMinute)
	scraperClient := scraper.NewClient(cfg.Scraper.BaseURL, cfg.Scraper.RequestsPerMinute)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		llmClient.SetDebug(true)
		scraperClient.SetDebug(true)
		log.Printf("Client debug mode enabled")
	}

	log.Printf("LLM API configured: %s (model: %s)", cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	log.Printf("Scraper service configured: %s", cfg.Scraper.BaseURL)

	// Initialize usecase layer
	dates := usecase.NewDateResolver(llmClient, usecase.DateResolverConfig{
		EnableLLMFallback:  cfg.Scoring.EnableLLMDates,
		EnableDebugLogging: cfg.Scoring.EnableDebugLogging,
	})

	scorer := usecase.NewProductScorer(usecase.ScoringConfig{
		MissingScore:       cfg.Scoring.MissingScore,
		AccessoryPenalty:   cfg.Scoring.AccessoryPenalty,
		RatingMidpoint:     cfg.Scoring.RatingMidpoint,
		RatingSteepness:    cfg.Scoring.RatingSteepness,
		ReviewCap:          cfg.Scoring.ReviewCap,
		DeliverySteepness:  cfg.Scoring.DeliverySteepness,
		DeliveryGraceDays:  cfg.Scoring.DeliveryGraceDays,
		EnableDebugLogging: cfg.Scoring.EnableDebugLogging,
	}, llmClient, dates)

	relevance := usecase.NewRelevanceFilter(llmClient, cfg.Scoring.ValidationTopN, cfg.Scoring.EnableDebugLogging)

	searchService := usecase.NewSearchService(
		sessionCache,
		llmClient,
		scraperClient,
		llmClient,
		scorer,
		relevance,
		usecase.SearchServiceConfig{
			SessionTTL:               cfg.Session.TTL,
			ValidationTopN:           cfg.Scoring.ValidationTopN,
			MaxResults:               cfg.Scoring.MaxResults,
			EnableRelevanceFiltering: cfg.Scoring.EnableRelevanceValidation,
			EnableDebugLogging:       cfg.Scoring.EnableDebugLogging,
		},
	)

	log.Printf("Scoring: relevance validation=%v, top N=%d, max results=%d",
		cfg.Scoring.EnableRelevanceValidation,
		cfg.Scoring.ValidationTopN,
		cfg.Scoring.MaxResults)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(searchService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
