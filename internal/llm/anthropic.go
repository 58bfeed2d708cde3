package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicClient implements Client against the Anthropic Messages API.
type AnthropicClient struct {
	model     string
	maxTokens int64
	client    anthropic.Client
}

func NewAnthropicClient(apiKey, model string, maxTokens int, baseURL string) *AnthropicClient {
	if model == "" {
		model = defaultAnthropicModel
	}
	if maxTokens == 0 {
		maxTokens = 4096
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicClient{
		model:     model,
		maxTokens: int64(maxTokens),
		client:    anthropic.NewClient(opts...),
	}
}

func (c *AnthropicClient) Model() string { return c.model }

func (c *AnthropicClient) Complete(ctx context.Context, system, userMessage string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)),
		},
	})
	if err != nil {
		return "", err
	}
	var out string
	for _, block := range resp.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out, nil
}

func (c *AnthropicClient) Converse(ctx context.Context, system string, messages []Message, tools []Tool) (*ConversationResponse, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  convertMessagesToAnthropic(messages),
		Tools:     convertToolsToAnthropic(tools),
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}
	return parseAnthropicResponse(resp), nil
}

func convertMessagesToAnthropic(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleUser:
			out = append(out, convertUserMessageToAnthropic(m))
		case RoleAssistant:
			out = append(out, convertAssistantMessageToAnthropic(m))
		}
	}
	return out
}

// convertUserMessageToAnthropic handles the "lowering" rule from the
// transport contract: ToolResult blocks co-locate with Anthropic's
// tool_result content blocks within a single user message (Anthropic does
// not use a separate "tool" role).
func convertUserMessageToAnthropic(m Message) anthropic.MessageParam {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Content))
	for _, b := range m.Content {
		switch b.Type {
		case BlockText:
			blocks = append(blocks, anthropic.NewTextBlock(b.Text))
		case BlockToolResult:
			blocks = append(blocks, anthropic.NewToolResultBlock(b.ToolResultForID, b.ToolResultText, b.ToolResultError))
		}
	}
	return anthropic.NewUserMessage(blocks...)
}

func convertAssistantMessageToAnthropic(m Message) anthropic.MessageParam {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Content))
	for _, b := range m.Content {
		switch b.Type {
		case BlockText:
			blocks = append(blocks, anthropic.NewTextBlock(b.Text))
		case BlockToolUse:
			blocks = append(blocks, anthropic.ContentBlockParamUnion{
				OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    b.ToolUseID,
					Name:  b.ToolName,
					Input: map[string]any(b.ToolInput),
				},
			})
		}
	}
	return anthropic.NewAssistantMessage(blocks...)
}

func convertToolsToAnthropic(tools []Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{Properties: t.InputSchema["properties"]},
			},
		})
	}
	return out
}

func parseAnthropicResponse(resp *anthropic.Message) *ConversationResponse {
	var blocks []ContentBlock
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			blocks = append(blocks, TextBlock(block.Text))
		case "tool_use":
			input, _ := block.Input.(map[string]any)
			blocks = append(blocks, ToolUseBlock(block.ID, block.Name, input))
		}
	}
	return &ConversationResponse{
		Content:    blocks,
		StopReason: canonicalizeStopReason(string(resp.StopReason)),
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}
}

func canonicalizeStopReason(raw string) StopReason {
	switch raw {
	case "tool_use", "tool_calls":
		return StopToolUse
	case "max_tokens", "length":
		return StopMaxToken
	default:
		return StopEndTurn
	}
}
