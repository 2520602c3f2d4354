package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed system_prompt.yaml
var defaultSystemPrompt []byte

// SystemPromptConfig defines the structure of system_prompt.yaml
type SystemPromptConfig struct {
	System struct {
		Role     string `yaml:"role"`
		Version  string `yaml:"version"`
		Language string `yaml:"language"`
	} `yaml:"system"`

	Capabilities []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"capabilities"`

	Periods []struct {
		Phrase string `yaml:"phrase"`
		Days   int    `yaml:"days"`
	} `yaml:"periods"`

	ResponseGuidelines []struct {
		Priority  int    `yaml:"priority"`
		Condition string `yaml:"condition"`
		Action    string `yaml:"action"`
	} `yaml:"response_guidelines"`

	Tone struct {
		Style         string `yaml:"style"`
		LanguageLevel string `yaml:"language_level"`
	} `yaml:"tone"`

	Constraints []string `yaml:"constraints"`
}

// LoadSystemPrompt reads the prompt settings from path, or the bundled file when path is empty
func LoadSystemPrompt(path string) (*SystemPromptConfig, error) {
	data := defaultSystemPrompt
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read system prompt file: %w", err)
		}
	}

	var cfg SystemPromptConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse system prompt YAML: %w", err)
	}
	if cfg.System.Role == "" {
		return nil, fmt.Errorf("system prompt: system.role is required")
	}
	return &cfg, nil
}

// BuildSystemPrompt renders the settings as the model's system instruction
func (c *SystemPromptConfig) BuildSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are %s.\n\n", c.System.Role))

	sb.WriteString("## Capabilities\n")
	for i, capability := range c.Capabilities {
		sb.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, capability.Name, capability.Description))
	}
	sb.WriteString("\n")

	if len(c.Periods) > 0 {
		sb.WriteString("## Periods\n")
		for _, p := range c.Periods {
			sb.WriteString(fmt.Sprintf("- \"%s\" means %d days\n", p.Phrase, p.Days))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Guidelines\n")
	for _, g := range c.ResponseGuidelines {
		sb.WriteString(fmt.Sprintf("%d. %s -> %s\n", g.Priority, g.Condition, g.Action))
	}
	sb.WriteString("\n")

	sb.WriteString("## Tone\n")
	sb.WriteString(fmt.Sprintf("- Style: %s\n", c.Tone.Style))
	sb.WriteString(fmt.Sprintf("- Language level: %s\n", c.Tone.LanguageLevel))
	if c.System.Language != "" {
		sb.WriteString(fmt.Sprintf("- Reply in %s\n", c.System.Language))
	}
	sb.WriteString("\n")

	sb.WriteString("## Constraints\n")
	for _, constraint := range c.Constraints {
		sb.WriteString(fmt.Sprintf("- %s\n", constraint))
	}

	return sb.String()
}
