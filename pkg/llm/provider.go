package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider selects which model backend to talk to. Construction switches
// on this enum, so an unhandled provider is a compile-time gap rather than
// a missing dictionary key.
type Provider int

const (
	ProviderOllama Provider = iota
	ProviderOpenAI
	ProviderGoogleAI
)

func (p Provider) String() string {
	switch p {
	case ProviderOllama:
		return "ollama"
	case ProviderOpenAI:
		return "openai"
	case ProviderGoogleAI:
		return "googleai"
	default:
		return "unknown"
	}
}

// ParseProvider maps a config string to a Provider.
func ParseProvider(name string) (Provider, error) {
	switch name {
	case "ollama":
		return ProviderOllama, nil
	case "openai":
		return ProviderOpenAI, nil
	case "googleai":
		return ProviderGoogleAI, nil
	default:
		return ProviderOllama, fmt.Errorf("unknown provider: %q", name)
	}
}

// newChatModel builds a langchaingo chat model for the provider.
func newChatModel(provider Provider, model, baseURL string) (llms.Model, error) {
	switch provider {
	case ProviderOllama:
		return ollama.New(
			ollama.WithModel(model),
			ollama.WithServerURL(baseURL),
		)
	case ProviderOpenAI:
		opts := []openai.Option{openai.WithModel(model)}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		return openai.New(opts...)
	case ProviderGoogleAI:
		return googleai.New(context.Background(),
			googleai.WithAPIKey(os.Getenv("GOOGLE_API_KEY")),
			googleai.WithDefaultModel(model),
		)
	default:
		return nil, fmt.Errorf("unknown provider: %d", provider)
	}
}

// embeddingClient is implemented by every langchaingo client we construct.
type embeddingClient interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// newEmbeddingClient builds a client whose CreateEmbedding call we use for
// vector generation.
func newEmbeddingClient(provider Provider, model, baseURL string) (embeddingClient, error) {
	switch provider {
	case ProviderOllama:
		return ollama.New(
			ollama.WithModel(model),
			ollama.WithServerURL(baseURL),
		)
	case ProviderOpenAI:
		opts := []openai.Option{openai.WithEmbeddingModel(model)}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		return openai.New(opts...)
	case ProviderGoogleAI:
		return googleai.New(context.Background(),
			googleai.WithAPIKey(os.Getenv("GOOGLE_API_KEY")),
			googleai.WithDefaultEmbeddingModel(model),
		)
	default:
		return nil, fmt.Errorf("unknown provider: %d", provider)
	}
}
