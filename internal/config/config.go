package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderAzure     = "azure"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

type Config struct {
	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Limits
	MaxBodyBytes          int64
	MaxDocumentChars      int
	MaxConcurrentRequests int64

	// rate limiting (per IP), disabled when burst is 0
	RateLimitEvery time.Duration
	RateLimitBurst int

	Gateway GatewayConfig
}

// GatewayConfig is read once at start-up and shared read-only by every request.
type GatewayConfig struct {
	Provider   string
	Timeout    time.Duration
	MaxRetries int

	AzureEndpoint   string
	AzureAPIKey     string
	AzureDeployment string
	AzureAPIVersion string

	// OpenAI-compatible gateway
	GatewayURL string
	APIKey     string
	Model      string

	AnthropicAPIKey    string
	AnthropicModel     string
	AnthropicMaxTokens int

	GeminiAPIKey string
	GeminiModel  string
}

func Load() Config {
	provider := strings.ToLower(envStr("LLM_PROVIDER", ProviderAzure))
	if envBool("USE_MOCK_LLM") {
		provider = ProviderMock
	}

	return Config{
		Port:         envStr("PORT", "8080"),
		ReadTimeout:  envDur("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: envDur("WRITE_TIMEOUT", 180*time.Second),
		IdleTimeout:  envDur("IDLE_TIMEOUT", 120*time.Second),

		MaxBodyBytes:          int64(envInt("MAX_BODY_BYTES", 64<<20)),
		MaxDocumentChars:      envIntAllowZero("MAX_DOCUMENT_CHARS", 0),
		MaxConcurrentRequests: int64(envInt("MAX_CONCURRENT_REQUESTS", 32)),

		RateLimitEvery: envDur("RATE_LIMIT_EVERY", 600*time.Millisecond),
		RateLimitBurst: envIntAllowZero("RATE_LIMIT_BURST", 0),

		Gateway: GatewayConfig{
			Provider:   provider,
			Timeout:    envDur("GATEWAY_TIMEOUT", 120*time.Second),
			MaxRetries: envIntAllowZero("GATEWAY_MAX_RETRIES", 0),

			AzureEndpoint:   envStr("AZURE_OPENAI_ENDPOINT", ""),
			AzureAPIKey:     envStr("AZURE_OPENAI_KEY", ""),
			AzureDeployment: envStr("AZURE_OPENAI_DEPLOYMENT", ""),
			AzureAPIVersion: envStr("AZURE_OPENAI_API_VERSION", "2024-10-21"),

			GatewayURL: envStr("LLM_GATEWAY_URL", ""),
			APIKey:     envStr("LLM_API_KEY", ""),
			Model:      envStr("LLM_MODEL", ""),

			AnthropicAPIKey:    envStr("ANTHROPIC_API_KEY", ""),
			AnthropicModel:     envStr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
			AnthropicMaxTokens: envInt("ANTHROPIC_MAX_TOKENS", 4096),

			GeminiAPIKey: envStr("GEMINI_API_KEY", ""),
			GeminiModel:  envStr("GEMINI_MODEL", "gemini-2.5-flash"),
		},
	}
}

// Missing lists the settings the selected provider needs but does not have.
// Nothing is enforced at start-up; the result is only logged.
func (g GatewayConfig) Missing() []string {
	var out []string
	need := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			out = append(out, name)
		}
	}
	switch g.Provider {
	case ProviderAzure:
		need("AZURE_OPENAI_ENDPOINT", g.AzureEndpoint)
		need("AZURE_OPENAI_KEY", g.AzureAPIKey)
		need("AZURE_OPENAI_DEPLOYMENT", g.AzureDeployment)
	case ProviderOpenAI:
		need("LLM_GATEWAY_URL", g.GatewayURL)
		need("LLM_API_KEY", g.APIKey)
	case ProviderAnthropic:
		need("ANTHROPIC_API_KEY", g.AnthropicAPIKey)
	case ProviderGemini:
		need("GEMINI_API_KEY", g.GeminiAPIKey)
	}
	return out
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envBool(key string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && b
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envIntAllowZero(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
