package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// NoContextAnswer is the exact refusal phrase the model is instructed to
// emit when the context does not contain the answer. The pipeline also
// returns it directly when retrieval produces no usable context, so this
// literal is part of the observable contract.
const NoContextAnswer = "The answer is not available in the provided context."

const answerPromptTemplate = `You are a helpful assistant who answers questions based ONLY on the provided context.

Context:
---
%s
---

Question: %s

Instructions:
1. Read the context carefully and identify the most relevant information.
2. Formulate a clear, concise, and accurate answer based strictly on the information given in the context.
3. If the information needed to answer the question is not in the context, you must respond with exactly this phrase: "The answer is not available in the provided context."
4. Focus on providing factual information and avoid making assumptions or inferences beyond what is explicitly stated.
5. If multiple pieces of information are relevant, synthesize them coherently.`

type GeneratorConfig struct {
	Provider    Provider
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

// Generator produces grounded answers from context chunks via a chat model.
type Generator struct {
	config GeneratorConfig
	model  llms.Model
}

func NewGeneratorWithConfig(config GeneratorConfig) (*Generator, error) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 500
	}
	if config.Temperature == 0 {
		config.Temperature = 0.3
	}
	if config.BaseURL == "" && config.Provider == ProviderOllama {
		config.BaseURL = "http://localhost:11434"
	}

	model, err := newChatModel(config.Provider, config.Model, config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &Generator{config: config, model: model}, nil
}

// NewGeneratorWithModel wires an existing model in. Used by tests.
func NewGeneratorWithModel(config GeneratorConfig, model llms.Model) *Generator {
	return &Generator{config: config, model: model}
}

// Generate answers the question from the given context chunks. An empty
// context short-circuits to the refusal phrase without calling the model.
func (g *Generator) Generate(ctx context.Context, contextChunks []string, question string) (string, error) {
	if len(contextChunks) == 0 {
		return NoContextAnswer, nil
	}

	prompt := fmt.Sprintf(answerPromptTemplate, strings.Join(contextChunks, "\n\n"), question)

	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}

	response, err := g.model.GenerateContent(ctx, content,
		llms.WithMaxTokens(g.config.MaxTokens),
		llms.WithTemperature(g.config.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("answer generation returned no choices")
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
