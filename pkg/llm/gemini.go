package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini client
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// GeminiClient talks to the Gemini API through the genai SDK
type GeminiClient struct {
	models  *genai.Models
	model   string
	timeout time.Duration
	logger  *logrus.Logger
}

// NewGeminiClient creates the process-wide Gemini handle
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *logrus.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini model is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		logger.WithField("base_url", cfg.BaseURL).Info("Using custom Gemini base URL")
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		models:  client.Models,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// StartChat opens a session seeded with prior turns
func (c *GeminiClient) StartChat(history []Turn, opts ChatOptions) Session {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.RoleUser
		if turn.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: turn.Text}},
		})
	}

	cfg := &genai.GenerateContentConfig{}
	if opts.SystemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: opts.SystemInstruction}}}
	}
	if len(opts.Functions) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: geminiDeclarations(opts.Functions)}}
	}

	return &geminiSession{client: c, contents: contents, config: cfg}
}

// Generate runs a single-prompt completion
func (c *GeminiClient) Generate(ctx context.Context, systemInstruction, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if systemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}}
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: prompt}}}}

	reply, _, err := c.generate(ctx, contents, cfg)
	if err != nil {
		return "", err
	}
	if reply.Text == "" {
		return "", ErrNoCandidate
	}
	return reply.Text, nil
}

func (c *GeminiClient) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*Reply, *genai.Content, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("gemini generate content: %w", err)
	}
	c.logger.WithFields(logrus.Fields{
		"model":       c.model,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Gemini response received")

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return &Reply{}, nil, nil
	}
	content := resp.Candidates[0].Content
	return replyFromContent(content), content, nil
}

// replyFromContent keeps the first function call and joins all text parts
func replyFromContent(content *genai.Content) *Reply {
	reply := &Reply{}
	var text strings.Builder
	for _, part := range content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil && reply.FunctionCall == nil {
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			reply.FunctionCall = &FunctionCall{Name: part.FunctionCall.Name, Args: args}
			continue
		}
		text.WriteString(part.Text)
	}
	reply.Text = strings.TrimSpace(text.String())
	return reply
}

func geminiDeclarations(fns []FunctionDeclaration) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(fns))
	for _, fn := range fns {
		decl := &genai.FunctionDeclaration{Name: fn.Name, Description: fn.Description}
		if len(fn.Parameters) > 0 {
			schema := &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}}
			for _, p := range fn.Parameters {
				schema.Properties[p.Name] = geminiSchema(p)
				if p.Required {
					schema.Required = append(schema.Required, p.Name)
				}
			}
			decl.Parameters = schema
		}
		out = append(out, decl)
	}
	return out
}

func geminiSchema(p Parameter) *genai.Schema {
	switch p.Type {
	case TypeInteger:
		return &genai.Schema{Type: genai.TypeInteger, Description: p.Description}
	case TypeArray:
		return &genai.Schema{
			Type:        genai.TypeArray,
			Description: p.Description,
			Items:       &genai.Schema{Type: genai.TypeString},
		}
	default:
		return &genai.Schema{Type: genai.TypeString, Description: p.Description}
	}
}

// geminiSession keeps the running transcript so function results follow the model turn
type geminiSession struct {
	client   *GeminiClient
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (s *geminiSession) Send(ctx context.Context, text string) (*Reply, error) {
	return s.exchange(ctx, &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: text}},
	})
}

func (s *geminiSession) SendFunctionResult(ctx context.Context, name string, result map[string]any) (*Reply, error) {
	return s.exchange(ctx, &genai.Content{
		Role: genai.RoleUser,
		Parts: []*genai.Part{{
			FunctionResponse: &genai.FunctionResponse{Name: name, Response: result},
		}},
	})
}

func (s *geminiSession) exchange(ctx context.Context, turn *genai.Content) (*Reply, error) {
	s.contents = append(s.contents, turn)
	reply, content, err := s.client.generate(ctx, s.contents, s.config)
	if err != nil {
		return nil, err
	}
	if content != nil {
		if content.Role == "" {
			content.Role = genai.RoleModel
		}
		s.contents = append(s.contents, content)
	}
	return reply, nil
}
