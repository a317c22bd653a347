package search

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"

	"github.com/young1lin/grok-search/internal/converter"
	"github.com/young1lin/grok-search/internal/models"
	"github.com/young1lin/grok-search/internal/prompts"
	"github.com/young1lin/grok-search/pkg/logger"
)

// DefaultTimeout bounds search and fetch calls when no timeout is configured
const DefaultTimeout = 60 * time.Second

// Options tune a single provider instance
type Options struct {
	Timeout time.Duration
	Now     func() time.Time
	Logger  *zap.Logger
}

// GrokProvider implements Provider against an OpenAI-compatible chat-completion endpoint.
// One instance serves one tool call; nothing is shared between instances.
type GrokProvider struct {
	cfg     models.ProviderConfig
	timeout time.Duration
	now     func() time.Time
	log     *zap.Logger
	client  openai.Client
}

// NewGrokProvider creates a provider with its own HTTP client
func NewGrokProvider(cfg models.ProviderConfig, opts Options) *GrokProvider {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Named("grok")
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL(cfg.APIURL)),
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: opts.Timeout}),
		option.WithMaxRetries(0),
	)

	return &GrokProvider{
		cfg:     cfg,
		timeout: opts.Timeout,
		now:     opts.Now,
		log:     opts.Logger,
		client:  client,
	}
}

// NewProvider is the default Factory
func NewProvider(cfg models.ProviderConfig, opts Options) Provider {
	return NewGrokProvider(cfg, opts)
}

// Model returns the model this provider was bound to
func (p *GrokProvider) Model() string {
	return p.cfg.Model
}

// Search performs a model-backed web search.
// Fewer than MinResults entries are returned as-is; more than MaxResults are truncated.
func (p *GrokProvider) Search(ctx context.Context, req *models.SearchRequest) ([]models.SearchResult, error) {
	if err := converter.ValidateSearchRequest(req); err != nil {
		return nil, err
	}

	payload := converter.BuildSearchPayload(req, p.now())
	content, err := p.complete(ctx, prompts.Search, payload)
	if err != nil {
		return nil, err
	}

	results, err := converter.DecodeResults(content)
	if err != nil {
		p.log.Debug("undecodable search output",
			zap.String("model", p.cfg.Model),
			zap.String("content", content[:min(200, len(content))]),
			zap.Error(err),
		)
		return nil, err
	}

	if len(results) < req.MinResults {
		p.log.Info("model returned fewer results than requested",
			zap.Int("min_results", req.MinResults),
			zap.Int("result_count", len(results)),
		)
	}
	results = converter.Truncate(results, req.MaxResults)

	p.log.Info("search completed",
		zap.String("model", p.cfg.Model),
		zap.String("query", req.Query),
		zap.Int("result_count", len(results)),
	)

	return results, nil
}

// Fetch asks the model to render req.URL as Markdown. The URL is validated before any I/O.
func (p *GrokProvider) Fetch(ctx context.Context, req *models.FetchRequest) (string, error) {
	target, err := converter.ValidateFetchURL(req.URL)
	if err != nil {
		return "", err
	}

	content, err := p.complete(ctx, prompts.Fetch, target)
	if err != nil {
		return "", err
	}

	p.log.Info("fetch completed",
		zap.String("model", p.cfg.Model),
		zap.String("url", target),
		zap.Int("content_length", len(content)),
	)

	return content, nil
}

// ListModels queries GET {api_url}/models
func (p *GrokProvider) ListModels(ctx context.Context) ([]string, error) {
	if err := p.checkConfig(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	page, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, transportError(err)
	}

	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

// complete sends one stateless system+user exchange and returns the assistant text
func (p *GrokProvider) complete(ctx context.Context, systemPrompt, payload string) (string, error) {
	if err := p.checkConfig(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.cfg.Model),
		Messages: converter.BuildMessages(systemPrompt, payload),
	}

	p.log.Debug("sending chat completion",
		zap.String("model", p.cfg.Model),
		zap.Int("payload_length", len(payload)),
	)

	start := time.Now()
	completion, err := p.client.Chat.Completions.New(ctx, params, option.WithJSONSet("stream", false))
	if err != nil {
		p.log.Warn("chat completion failed",
			zap.String("model", p.cfg.Model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", transportError(err)
	}

	p.log.Debug("chat completion received",
		zap.String("model", p.cfg.Model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("choices", len(completion.Choices)),
	)

	return converter.ExtractContent(completion)
}

func (p *GrokProvider) checkConfig() error {
	if strings.TrimSpace(p.cfg.APIURL) == "" {
		return models.MissingConfig("api_url")
	}
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return models.MissingConfig("api_key")
	}
	return nil
}

// transportError maps SDK and network failures onto TransportError
func transportError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return models.Transport(apiErr.StatusCode, msg, nil)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.Transport(0, "request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return models.Transport(0, "request cancelled", err)
	}
	return models.Transport(0, "request failed", err)
}

// baseURL makes sure relative SDK paths resolve under the configured prefix
func baseURL(apiURL string) string {
	return strings.TrimRight(strings.TrimSpace(apiURL), "/") + "/"
}
