package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Kalpithaac/enitity/internal/config"
	"github.com/Kalpithaac/enitity/internal/logger"
)

type geminiClient struct {
	client     *genai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	missing    []string
	log        *logger.Logger
}

func newGemini(ctx context.Context, cfg config.GatewayConfig, log *logger.Logger) (*geminiClient, error) {
	return newGeminiWithBaseURL(ctx, cfg, log, "")
}

func newGeminiWithBaseURL(ctx context.Context, cfg config.GatewayConfig, log *logger.Logger, baseURL string) (*geminiClient, error) {
	c := &geminiClient{
		model:      cfg.GeminiModel,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		missing:    cfg.Missing(),
		log:        log,
	}
	if len(c.missing) > 0 {
		// the SDK refuses to build a client without a key
		return c, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.GeminiAPIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	c.client = client
	return c, nil
}

func (c *geminiClient) Name() string { return config.ProviderGemini }

func (c *geminiClient) Complete(ctx context.Context, req Request) (Response, error) {
	if c.client == nil {
		return Response{}, fmt.Errorf("%w: %s unset", ErrNotConfigured, strings.Join(c.missing, ", "))
	}
	model := req.Model
	if model == "" {
		model = c.model
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}
	contents := []*genai.Content{genai.NewContentFromText(req.User, genai.RoleUser)}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	log := logger.FromContext(ctx, c.log).WithField("provider", c.Name())

	var out Response
	op := func() error {
		resp, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
		if err != nil {
			return fmt.Errorf("gemini generate: %w", err)
		}
		text := resp.Text()
		if text == "" {
			return ErrEmptyReply
		}
		out = Response{Content: text, Model: model, Provider: c.Name()}
		return nil
	}
	if err := retry(ctx, c.maxRetries, log, op); err != nil {
		return Response{}, err
	}
	return out, nil
}
