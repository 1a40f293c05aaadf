package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Kalpithaac/enitity/internal/config"
	"github.com/Kalpithaac/enitity/internal/logger"
)

type anthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
	missing   []string
	log       *logger.Logger
}

func newAnthropic(cfg config.GatewayConfig, log *logger.Logger, opts ...option.RequestOption) *anthropicClient {
	base := []option.RequestOption{
		option.WithAPIKey(cfg.AnthropicAPIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	return &anthropicClient{
		client:    anthropic.NewClient(append(base, opts...)...),
		model:     cfg.AnthropicModel,
		maxTokens: cfg.AnthropicMaxTokens,
		timeout:   cfg.Timeout,
		missing:   cfg.Missing(),
		log:       log,
	}
}

func (c *anthropicClient) Name() string { return config.ProviderAnthropic }

// Complete sends a single user turn. The Messages API has no JSON mode, so
// JSONMode relies on the system text alone.
func (c *anthropicClient) Complete(ctx context.Context, req Request) (Response, error) {
	if len(c.missing) > 0 {
		return Response{}, fmt.Errorf("%w: %s unset", ErrNotConfigured, strings.Join(c.missing, ", "))
	}
	model := req.Model
	if model == "" {
		model = c.model
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(c.maxTokens),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.User))},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.JSONMode {
		logger.FromContext(ctx, c.log).WithField("provider", c.Name()).
			Debug("JSON mode not supported by Messages API, relying on system prompt")
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("anthropic messages: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return Response{}, ErrEmptyReply
	}

	logger.FromContext(ctx, c.log).WithField("provider", c.Name()).
		WithField("stop_reason", string(resp.StopReason)).Debug("anthropic message returned")

	return Response{Content: text.String(), Model: string(resp.Model), Provider: c.Name()}, nil
}
