// Package ai provides an Anthropic-backed danger assessor for the tool gate.
// It gives a second opinion on commands the validation engine flags with a
// warning: the engine's pattern verdict always stands, the model only adds
// context for the human reading the warning.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

var (
	// ErrEmptyCommand is returned when AssessCommand is called with an empty command.
	ErrEmptyCommand = errors.New("command cannot be empty")

	// ErrModelNotSet is returned when a request is made without setting a model.
	ErrModelNotSet = errors.New("model must be set before assessing commands")

	// ErrEmptyResponse is returned when the API response carries no text content.
	ErrEmptyResponse = errors.New("assessment response contained no text")
)

const assessorSystemPrompt = `You review shell commands that a pattern-based ` +
	`validator already flagged as risky. Answer with a single JSON object, ` +
	`no prose: {"dangerous": <bool>, "reason": "<one short sentence>"}. ` +
	`"dangerous" means the command could cause irreversible damage or expose ` +
	`credentials if run on a developer workstation.`

// AnthropicAssessor implements the gate's DangerAssessor using Anthropic's API.
type AnthropicAssessor struct {
	client anthropic.Client
	model  string
}

// NewAnthropicAssessor creates an assessor for the given model. The API key
// is read from the environment by the SDK client.
func NewAnthropicAssessor(model string) *AnthropicAssessor {
	return &AnthropicAssessor{
		client: anthropic.NewClient(),
		model:  model,
	}
}

// assessmentJSON is the shape the model is instructed to answer with.
type assessmentJSON struct {
	Dangerous bool   `json:"dangerous"`
	Reason    string `json:"reason"`
}

// AssessCommand asks the model whether the command is dangerous.
// The command passed in is the normalized form, so the model sees what the
// shell would see, not the obfuscated original.
func (a *AnthropicAssessor) AssessCommand(ctx context.Context, command string) (bool, string, error) {
	if strings.TrimSpace(command) == "" {
		return false, "", ErrEmptyCommand
	}
	if a.model == "" {
		return false, "", ErrModelNotSet
	}

	response, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(256),
		System: []anthropic.TextBlockParam{
			{Text: assessorSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(command)),
		},
	})
	if err != nil {
		return false, "", fmt.Errorf("assessment request failed: %w", err)
	}

	text := extractText(response)
	if text == "" {
		return false, "", ErrEmptyResponse
	}

	return parseAssessment(text)
}

// extractText concatenates the text blocks of the API response.
func extractText(response *anthropic.Message) string {
	var builder strings.Builder
	for _, content := range response.Content {
		if content.Type == "text" {
			builder.WriteString(content.Text)
		}
	}
	return strings.TrimSpace(builder.String())
}

// parseAssessment decodes the model's JSON verdict. Models sometimes wrap
// JSON in a code fence, so fences are stripped before decoding.
func parseAssessment(text string) (bool, string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var verdict assessmentJSON
	if err := json.Unmarshal([]byte(text), &verdict); err != nil {
		return false, "", fmt.Errorf("unparseable assessment %q: %w", text, err)
	}
	return verdict.Dangerous, verdict.Reason, nil
}
