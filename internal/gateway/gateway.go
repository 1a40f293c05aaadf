// Package gateway sends one chat turn to a hosted model and returns its text.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/Kalpithaac/enitity/internal/config"
	"github.com/Kalpithaac/enitity/internal/logger"
)

var (
	// ErrNotConfigured is returned on first use when the selected provider
	// is missing its endpoint or key.
	ErrNotConfigured = errors.New("gateway not configured")
	// ErrStatus matches any *StatusError.
	ErrStatus = errors.New("gateway returned non-2xx status")
	// ErrEmptyReply is returned when the provider answered without any
	// choice or text block.
	ErrEmptyReply = errors.New("gateway reply has no content")
)

// Request is one completion call.
type Request struct {
	Model       string
	System      string
	User        string
	Temperature float64
	JSONMode    bool

	// Fields is only read by the mock back end.
	Fields []string
}

type Response struct {
	Content  string
	Model    string
	Provider string
}

type Gateway interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}

// StatusError carries the HTTP status of a failed provider call.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// New returns the back end selected by cfg.Provider. Missing credentials are
// not an error here; they surface on the first Complete.
func New(ctx context.Context, cfg config.GatewayConfig, log *logger.Logger) (Gateway, error) {
	if log == nil {
		log = logger.Nop()
	}
	switch cfg.Provider {
	case config.ProviderAzure:
		return newAzure(cfg, log), nil
	case config.ProviderOpenAI:
		return newOpenAI(cfg, log), nil
	case config.ProviderAnthropic:
		return newAnthropic(cfg, log), nil
	case config.ProviderGemini:
		gc, err := newGemini(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return gc, nil
	case config.ProviderMock:
		return NewMock(), nil
	}
	return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.Provider)
}

// retry runs op once, or up to maxRetries more times with exponential
// backoff. Errors wrapped with backoff.Permanent stop immediately.
func retry(ctx context.Context, maxRetries int, log *logrus.Entry, op func() error) error {
	if maxRetries <= 0 {
		return unwrapPermanent(op())
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	bo := backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)

	return backoff.RetryNotify(op, bo, func(err error, wait time.Duration) {
		log.WithField("error", err.Error()).WithField("wait", wait.String()).Warn("gateway call failed, retrying")
	})
}

func unwrapPermanent(err error) error {
	var p *backoff.PermanentError
	if errors.As(err, &p) {
		return p.Err
	}
	return err
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
