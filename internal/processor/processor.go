package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kalpithaac/enitity/internal/document"
	"github.com/Kalpithaac/enitity/internal/extractor"
	"github.com/Kalpithaac/enitity/internal/gateway"
	"github.com/Kalpithaac/enitity/internal/logger"
	"github.com/Kalpithaac/enitity/internal/types"
)

// Processor runs decode -> extract text -> prompt -> model -> parse for one
// request. It holds no per-request state and is safe for concurrent use.
type Processor struct {
	extractor *document.Extractor
	gateway   gateway.Gateway
	maxChars  int
	log       *logger.Logger
}

// New wires a processor. maxDocumentChars <= 0 sends the full text.
func New(gw gateway.Gateway, maxDocumentChars int, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{
		extractor: document.NewExtractor(),
		gateway:   gw,
		maxChars:  maxDocumentChars,
		log:       log,
	}
}

// Process returns the model's field values, or {} without calling the
// model when the document has no text.
func (p *Processor) Process(ctx context.Context, req types.ExtractionRequest) (types.FieldValues, error) {
	log := logger.FromContext(ctx, p.log).WithField("component", "processor")
	start := time.Now()

	data, err := document.Decode(req.FileBase64)
	if err != nil {
		log.WithField("stage", "decode").WithError(err).Info("rejecting payload")
		return nil, err
	}

	res, err := p.extractor.Extract(data)
	if err != nil {
		log.WithField("stage", "extract").WithError(err).Warn("document could not be read")
		return nil, err
	}
	log = log.WithFields(logrus.Fields{
		"doc_kind":   res.Kind,
		"doc_bytes":  len(data),
		"doc_units":  res.Units,
		"text_chars": len(res.Text),
		"fields":     len(req.Fields),
	})

	if strings.TrimSpace(res.Text) == "" {
		log.Info("document has no text, skipping model call")
		return types.EmptyFieldValues(), nil
	}

	text, cut := extractor.Truncate(res.Text, p.maxChars)
	if cut {
		log.WithField("max_chars", p.maxChars).Warn("document text truncated for prompt")
	}
	prompt := extractor.BuildPrompt(req.Fields, text)
	log.WithField("prompt_len", len(prompt)).Debug("prompt built")

	callStart := time.Now()
	resp, err := p.gateway.Complete(ctx, gateway.Request{
		System:      extractor.SystemPrompt,
		User:        prompt,
		Temperature: 0,
		JSONMode:    true,
		Fields:      req.Fields,
	})
	latency := time.Since(callStart)
	if err != nil {
		log.WithField("stage", "gateway").WithField("gateway_ms", latency.Milliseconds()).
			WithError(err).Error("model call failed")
		return nil, fmt.Errorf("model call via %s: %w", p.gateway.Name(), err)
	}

	values, err := extractor.ParseFields(resp.Content)
	if err != nil {
		log.WithField("stage", "parse").WithField("reply_len", len(resp.Content)).
			WithError(err).Error("model reply rejected")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"provider":    resp.Provider,
		"model":       resp.Model,
		"gateway_ms":  latency.Milliseconds(),
		"keys":        values.Len(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("fields extracted")
	return values, nil
}
