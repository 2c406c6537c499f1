package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/aws"
)

type messagesAPI interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// ClaudeGenerator calls a Claude model, either through the Anthropic API or
// through Amazon Bedrock.
type ClaudeGenerator struct {
	msgs      messagesAPI
	model     anthropic.Model
	maxTokens int64
}

// NewClaudeGenerator talks to the Anthropic API directly.
func NewClaudeGenerator(apiKey, model string, maxTokens int) *ClaudeGenerator {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return newClaudeGenerator(&client.Messages, model, maxTokens)
}

// NewBedrockClaudeGenerator talks to Claude through Bedrock using awsCfg for
// region and credentials.
func NewBedrockClaudeGenerator(awsCfg aws.Config, model string, maxTokens int) *ClaudeGenerator {
	client := anthropic.NewClient(bedrock.WithConfig(awsCfg))
	return newClaudeGenerator(&client.Messages, model, maxTokens)
}

func newClaudeGenerator(msgs messagesAPI, model string, maxTokens int) *ClaudeGenerator {
	return &ClaudeGenerator{msgs: msgs, model: anthropic.Model(model), maxTokens: int64(maxTokens)}
}

func (g *ClaudeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := g.msgs.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("ai: claude generate: %w", err)
	}

	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("ai: no text content received from claude")
	}
	return strings.Join(parts, ""), nil
}
