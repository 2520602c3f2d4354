// Package llm wraps the hosted (Gemini) and self-hosted (Ollama) chat models
// behind a small provider-neutral interface with function calling.
package llm

import (
	"context"
	"errors"
)

// Role of a conversation turn
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message of prior conversation
type Turn struct {
	Role Role
	Text string
}

// ParamType is the JSON type of a function parameter
type ParamType string

const (
	TypeInteger ParamType = "integer"
	TypeString  ParamType = "string"
	TypeArray   ParamType = "array" // array of strings
)

// Parameter describes one argument of a declared function
type Parameter struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// FunctionDeclaration is a function the model may ask the caller to run
type FunctionDeclaration struct {
	Name        string
	Description string
	Parameters  []Parameter
}

// FunctionCall is the model's request to run a declared function
type FunctionCall struct {
	Name string
	Args map[string]any
}

// Reply is a model turn: text, a function call, or both empty
type Reply struct {
	Text         string
	FunctionCall *FunctionCall
}

// Empty reports whether the model produced neither text nor a function call
func (r *Reply) Empty() bool {
	return r == nil || (r.FunctionCall == nil && r.Text == "")
}

// ChatOptions configures a chat session
type ChatOptions struct {
	SystemInstruction string
	Functions         []FunctionDeclaration
}

// Session is a single multi-turn exchange. It is not safe for concurrent use.
type Session interface {
	Send(ctx context.Context, text string) (*Reply, error)
	SendFunctionResult(ctx context.Context, name string, result map[string]any) (*Reply, error)
}

// Client is a chat model provider shared by all requests
type Client interface {
	StartChat(history []Turn, opts ChatOptions) Session
	Generate(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// ErrNoCandidate is returned when the provider answered without any content
var ErrNoCandidate = errors.New("model returned no candidates")
