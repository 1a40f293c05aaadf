package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/Kalpithaac/enitity/internal/config"
	"github.com/Kalpithaac/enitity/internal/logger"
)

// bodySnippet bounds how much of an error body ends up in errors and logs.
const bodySnippet = 512

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model,omitempty"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatReply struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chatClient speaks the chat-completions wire format. Azure and plain
// OpenAI-compatible gateways differ only in URL, auth header and model.
type chatClient struct {
	name       string
	url        string
	authHeader string
	authValue  string
	model      string
	timeout    time.Duration
	maxRetries int
	missing    []string

	http *http.Client
	log  *logger.Logger
}

func newAzure(cfg config.GatewayConfig, log *logger.Logger) *chatClient {
	u := strings.TrimRight(cfg.AzureEndpoint, "/") +
		"/openai/deployments/" + url.PathEscape(cfg.AzureDeployment) +
		"/chat/completions?api-version=" + url.QueryEscape(cfg.AzureAPIVersion)

	return &chatClient{
		name:       config.ProviderAzure,
		url:        u,
		authHeader: "api-key",
		authValue:  cfg.AzureAPIKey,
		model:      cfg.AzureDeployment,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		missing:    cfg.Missing(),
		http:       &http.Client{},
		log:        log,
	}
}

func newOpenAI(cfg config.GatewayConfig, log *logger.Logger) *chatClient {
	return &chatClient{
		name:       config.ProviderOpenAI,
		url:        cfg.GatewayURL,
		authHeader: "Authorization",
		authValue:  "Bearer " + cfg.APIKey,
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		missing:    cfg.Missing(),
		http:       &http.Client{},
		log:        log,
	}
}

func (c *chatClient) Name() string { return c.name }

func (c *chatClient) Complete(ctx context.Context, req Request) (Response, error) {
	if len(c.missing) > 0 {
		return Response{}, fmt.Errorf("%w: %s unset", ErrNotConfigured, strings.Join(c.missing, ", "))
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	body := chatRequest{
		Model:       model,
		Temperature: req.Temperature,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.User})
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("encode chat request: %w", err)
	}

	log := logger.FromContext(ctx, c.log).WithFields(logrus.Fields{
		"provider":    c.name,
		"payload_len": len(data),
	})

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	var out Response
	op := func() error {
		r, err := c.post(ctx, data, log)
		if err != nil {
			return err
		}
		out = r
		return nil
	}
	if err := retry(ctx, c.maxRetries, log, op); err != nil {
		return Response{}, err
	}
	return out, nil
}

// post makes one attempt. Client errors and malformed replies are permanent.
func (c *chatClient) post(ctx context.Context, data []byte, log *logrus.Entry) (Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return Response{}, backoff.Permanent(fmt.Errorf("build chat request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(c.authHeader, c.authValue)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read chat reply: %w", err)
	}
	log.WithFields(logrus.Fields{
		"http_status": resp.StatusCode,
		"latency_ms":  time.Since(start).Milliseconds(),
	}).Debug("chat completion returned")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{StatusCode: resp.StatusCode, Body: snippet(body)}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return Response{}, backoff.Permanent(serr)
		}
		return Response{}, serr
	}

	var reply chatReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return Response{}, backoff.Permanent(fmt.Errorf("decode chat reply: %w", err))
	}
	if len(reply.Choices) == 0 {
		return Response{}, backoff.Permanent(ErrEmptyReply)
	}

	content := ""
	if p := reply.Choices[0].Message.Content; p != nil {
		content = *p
	}
	return Response{Content: content, Model: reply.Model, Provider: c.name}, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > bodySnippet {
		s = s[:bodySnippet]
	}
	return strings.ToValidUTF8(s, "")
}
