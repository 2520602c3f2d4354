package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OllamaConfig configures the OpenAI-compatible Ollama endpoint
type OllamaConfig struct {
	BaseURL string
	Token   string
	Model   string
	Timeout time.Duration
}

// OllamaClient routes chat through a self-hosted model that answers with a JSON intent
type OllamaClient struct {
	llm     llms.Model
	timeout time.Duration
	logger  *logrus.Logger
}

// NewOllamaClient creates the process-wide Ollama handle
func NewOllamaClient(cfg OllamaConfig, logger *logrus.Logger) (*OllamaClient, error) {
	if cfg.BaseURL == "" || cfg.Model == "" {
		return nil, errors.New("ollama base URL and model are required")
	}
	token := cfg.Token
	if token == "" {
		token = "ollama"
	}
	model, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return newOllamaClient(model, cfg.Timeout, logger), nil
}

func newOllamaClient(model llms.Model, timeout time.Duration, logger *logrus.Logger) *OllamaClient {
	return &OllamaClient{llm: model, timeout: timeout, logger: logger}
}

// StartChat opens a session seeded with prior turns
func (c *OllamaClient) StartChat(history []Turn, opts ChatOptions) Session {
	return &ollamaSession{
		client:     c,
		system:     opts.SystemInstruction,
		functions:  opts.Functions,
		transcript: append([]Turn(nil), history...),
	}
}

// Generate runs a single-prompt completion
func (c *OllamaClient) Generate(ctx context.Context, systemInstruction, prompt string) (string, error) {
	full := prompt
	if systemInstruction != "" {
		full = systemInstruction + "\n\n" + prompt
	}
	completion, err := c.complete(ctx, full)
	if err != nil {
		return "", err
	}
	if completion == "" {
		return "", ErrNoCandidate
	}
	return completion, nil
}

func (c *OllamaClient) complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	completion, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	c.logger.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("Ollama completion received")
	return strings.TrimSpace(completion), nil
}

// intent is the JSON shape the self-hosted model is asked to answer with
type intent struct {
	Action  string         `json:"action"`
	Args    map[string]any `json:"args"`
	Content string         `json:"content"`
}

const replyAction = "reply"

// parseIntent reads the model's JSON intent. Text that is not JSON becomes a plain reply.
func parseIntent(completion string) *Reply {
	raw := strings.TrimSpace(completion)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		var in intent
		if err := json.Unmarshal([]byte(raw[start:end+1]), &in); err == nil {
			action := strings.TrimSpace(in.Action)
			if action != "" && action != replyAction {
				args := in.Args
				if args == nil {
					args = map[string]any{}
				}
				return &Reply{Text: strings.TrimSpace(in.Content), FunctionCall: &FunctionCall{Name: action, Args: args}}
			}
			return &Reply{Text: strings.TrimSpace(in.Content)}
		}
	}
	return &Reply{Text: strings.TrimSpace(completion)}
}

type ollamaSession struct {
	client     *OllamaClient
	system     string
	functions  []FunctionDeclaration
	transcript []Turn
}

func (s *ollamaSession) Send(ctx context.Context, text string) (*Reply, error) {
	s.transcript = append(s.transcript, Turn{Role: RoleUser, Text: text})
	return s.exchange(ctx, true)
}

func (s *ollamaSession) SendFunctionResult(ctx context.Context, name string, result map[string]any) (*Reply, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode function result: %w", err)
	}
	s.transcript = append(s.transcript, Turn{
		Role: RoleUser,
		Text: fmt.Sprintf("Result of function %s: %s\nSummarise this result for the user.", name, payload),
	})
	return s.exchange(ctx, false)
}

func (s *ollamaSession) exchange(ctx context.Context, allowCalls bool) (*Reply, error) {
	completion, err := s.client.complete(ctx, s.prompt(allowCalls))
	if err != nil {
		return nil, err
	}
	reply := parseIntent(completion)
	if !allowCalls && reply.FunctionCall != nil {
		reply.FunctionCall = nil
	}
	if reply.Text != "" {
		s.transcript = append(s.transcript, Turn{Role: RoleModel, Text: reply.Text})
	}
	return reply, nil
}

func (s *ollamaSession) prompt(allowCalls bool) string {
	var sb strings.Builder
	if s.system != "" {
		sb.WriteString(s.system)
		sb.WriteString("\n\n")
	}
	if allowCalls && len(s.functions) > 0 {
		sb.WriteString("You can ask the system to run one of these functions:\n")
		for _, fn := range s.functions {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", fn.Name, fn.Description))
			for _, p := range fn.Parameters {
				req := "optional"
				if p.Required {
					req = "required"
				}
				sb.WriteString(fmt.Sprintf("    %s (%s, %s): %s\n", p.Name, p.Type, req, p.Description))
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString(`Respond ONLY with a JSON object:
{"action": "reply`)
	if allowCalls {
		sb.WriteString(`|<function name>`)
	}
	sb.WriteString(`", "args": {}, "content": "your natural language answer"}` + "\n\n")

	sb.WriteString("Conversation history:\n")
	for _, turn := range s.transcript {
		sb.WriteString(fmt.Sprintf("%s: %s\n", turn.Role, turn.Text))
	}
	sb.WriteString("\nResponse:")
	return sb.String()
}
