package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/xhad/docqa/pkg/llm"
)

// fakeModel records GenerateContent calls and replies with a fixed answer.
type fakeModel struct {
	calls    int
	lastText string
	reply    string
	err      error
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if part, ok := messages[0].Parts[0].(llms.TextContent); ok {
			f.lastText = part.Text
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.reply}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return f.reply, f.err
}

func TestGenerateEmptyContextShortCircuits(t *testing.T) {
	model := &fakeModel{reply: "should never appear"}
	g := llm.NewGeneratorWithModel(llm.GeneratorConfig{}, model)

	answer, err := g.Generate(context.Background(), nil, "What is the capital?")
	require.NoError(t, err)
	assert.Equal(t, llm.NoContextAnswer, answer)
	assert.Equal(t, 0, model.calls, "the model must not be invoked without context")
}

func TestGenerate(t *testing.T) {
	model := &fakeModel{reply: "  Paris is the capital of France.  "}
	g := llm.NewGeneratorWithModel(llm.GeneratorConfig{MaxTokens: 100, Temperature: 0.1}, model)

	contextChunks := []string{
		"France is a country in Europe.",
		"Paris is the capital of France.",
	}
	answer, err := g.Generate(context.Background(), contextChunks, "What is the capital of France?")
	require.NoError(t, err)

	assert.Equal(t, "Paris is the capital of France.", answer)
	assert.Equal(t, 1, model.calls)

	// The prompt carries both the context and the question.
	assert.Contains(t, model.lastText, "Paris is the capital of France.")
	assert.Contains(t, model.lastText, "What is the capital of France?")
	assert.Contains(t, model.lastText, llm.NoContextAnswer)
}

func TestGenerateModelError(t *testing.T) {
	model := &fakeModel{err: errors.New("connection refused")}
	g := llm.NewGeneratorWithModel(llm.GeneratorConfig{}, model)

	_, err := g.Generate(context.Background(), []string{"some context"}, "question")
	assert.Error(t, err)
}

func TestGenerateNoChoices(t *testing.T) {
	model := &noChoiceModel{}
	g := llm.NewGeneratorWithModel(llm.GeneratorConfig{}, model)

	_, err := g.Generate(context.Background(), []string{"some context"}, "question")
	assert.Error(t, err)
}

type noChoiceModel struct{}

func (noChoiceModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{}, nil
}

func (noChoiceModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", nil
}
