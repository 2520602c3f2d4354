package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"google.golang.org/genai"
)

// scriptedModel returns canned completions in order and records the prompts it saw
type scriptedModel struct {
	completions []string
	prompts     []string
	err         error
}

func (m *scriptedModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	var prompt strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				prompt.WriteString(text.Text)
			}
		}
	}
	m.prompts = append(m.prompts, prompt.String())
	out := m.completions[0]
	m.completions = m.completions[1:]
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: out}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestParseIntent(t *testing.T) {
	reply := parseIntent(`{"action": "get_forecasted_quantities", "args": {"days": 7}, "content": ""}`)
	require.NotNil(t, reply.FunctionCall)
	assert.Equal(t, "get_forecasted_quantities", reply.FunctionCall.Name)
	assert.Equal(t, float64(7), reply.FunctionCall.Args["days"])

	reply = parseIntent("```json\n{\"action\": \"reply\", \"content\": \"Hello!\"}\n```")
	assert.Nil(t, reply.FunctionCall)
	assert.Equal(t, "Hello!", reply.Text)

	reply = parseIntent("Just some text")
	assert.Nil(t, reply.FunctionCall)
	assert.Equal(t, "Just some text", reply.Text)

	reply = parseIntent(`{"action": "show_customers"}`)
	require.NotNil(t, reply.FunctionCall)
	assert.NotNil(t, reply.FunctionCall.Args)
}

func TestOllamaSessionFunctionRoundTrip(t *testing.T) {
	model := &scriptedModel{completions: []string{
		`{"action": "calculate_total_sales", "args": {"days": 14}}`,
		`{"action": "calculate_total_sales", "content": "You should make about $420.00."}`,
	}}
	client := newOllamaClient(model, 0, quietLogger())

	session := client.StartChat([]Turn{{Role: RoleModel, Text: "Hi, how can I help?"}}, ChatOptions{
		SystemInstruction: "You are a test assistant.",
		Functions:         []FunctionDeclaration{{Name: "calculate_total_sales", Description: "sum", Parameters: []Parameter{{Name: "days", Type: TypeInteger, Required: true}}}},
	})

	reply, err := session.Send(context.Background(), "sales for two weeks?")
	require.NoError(t, err)
	require.NotNil(t, reply.FunctionCall)
	assert.Equal(t, float64(14), reply.FunctionCall.Args["days"])
	assert.Contains(t, model.prompts[0], "calculate_total_sales: sum")
	assert.Contains(t, model.prompts[0], "model: Hi, how can I help?")
	assert.Contains(t, model.prompts[0], "user: sales for two weeks?")

	reply, err = session.SendFunctionResult(context.Background(), "calculate_total_sales", map[string]any{"total": 420.0})
	require.NoError(t, err)
	assert.Nil(t, reply.FunctionCall, "function calls are ignored after a result")
	assert.Equal(t, "You should make about $420.00.", reply.Text)
	assert.Contains(t, model.prompts[1], `Result of function calculate_total_sales: {"total":420}`)
	assert.NotContains(t, model.prompts[1], "<function name>")
}

func TestOllamaGenerateErrors(t *testing.T) {
	client := newOllamaClient(&scriptedModel{err: errors.New("connection refused")}, 0, quietLogger())
	_, err := client.Generate(context.Background(), "", "hello")
	assert.ErrorContains(t, err, "connection refused")

	client = newOllamaClient(&scriptedModel{completions: []string{"  "}}, 0, quietLogger())
	_, err = client.Generate(context.Background(), "sys", "hello")
	assert.ErrorIs(t, err, ErrNoCandidate)
}

func TestReplyFromContent(t *testing.T) {
	reply := replyFromContent(&genai.Content{Parts: []*genai.Part{
		{Text: "Let me check. "},
		{FunctionCall: &genai.FunctionCall{Name: "show_customers", Args: map[string]any{"daysAgo": 30.0}}},
		{FunctionCall: &genai.FunctionCall{Name: "send_emails"}},
	}})
	require.NotNil(t, reply.FunctionCall)
	assert.Equal(t, "show_customers", reply.FunctionCall.Name)
	assert.Equal(t, "Let me check.", reply.Text)

	reply = replyFromContent(&genai.Content{Parts: []*genai.Part{nil, {Text: ""}}})
	assert.True(t, reply.Empty())
}

func TestGeminiDeclarations(t *testing.T) {
	decls := geminiDeclarations([]FunctionDeclaration{
		{Name: "send_emails", Description: "mail", Parameters: []Parameter{
			{Name: "message", Type: TypeString, Required: true},
			{Name: "customer_ids", Type: TypeArray},
			{Name: "daysAgo", Type: TypeInteger},
		}},
		{Name: "noop"},
	})
	require.Len(t, decls, 2)
	params := decls[0].Parameters
	require.NotNil(t, params)
	assert.Equal(t, genai.TypeObject, params.Type)
	assert.Equal(t, []string{"message"}, params.Required)
	assert.Equal(t, genai.TypeArray, params.Properties["customer_ids"].Type)
	assert.Equal(t, genai.TypeString, params.Properties["customer_ids"].Items.Type)
	assert.Equal(t, genai.TypeInteger, params.Properties["daysAgo"].Type)
	assert.Nil(t, decls[1].Parameters)
}
