package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/Kalpithaac/enitity/internal/config"
)

// Mock answers offline with every requested field set to "". Calls counts
// invocations so callers can check whether the model was reached.
type Mock struct {
	calls atomic.Int64
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Name() string { return config.ProviderMock }

func (m *Mock) Calls() int64 { return m.calls.Load() }

func (m *Mock) Complete(ctx context.Context, req Request) (Response, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	var b bytes.Buffer
	b.WriteByte('{')
	seen := make(map[string]bool, len(req.Fields))
	for _, f := range req.Fields {
		if seen[f] {
			continue
		}
		if len(seen) > 0 {
			b.WriteByte(',')
		}
		seen[f] = true
		k, _ := json.Marshal(f)
		b.Write(k)
		b.WriteString(`:""`)
	}
	b.WriteByte('}')

	return Response{Content: b.String(), Model: "mock", Provider: m.Name()}, nil
}
