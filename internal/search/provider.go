package search

import (
	"context"

	"github.com/young1lin/grok-search/internal/models"
)

// Provider defines the interface for model-backed search providers
type Provider interface {
	// Search asks the model for results and returns them normalized and bounded
	Search(ctx context.Context, req *models.SearchRequest) ([]models.SearchResult, error)

	// Fetch asks the model for a Markdown rendering of req.URL
	Fetch(ctx context.Context, req *models.FetchRequest) (string, error)

	// ListModels returns the model ids advertised by the endpoint
	ListModels(ctx context.Context) ([]string, error)
}

// Factory builds a provider for one call
type Factory func(cfg models.ProviderConfig, opts Options) Provider
