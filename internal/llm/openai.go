package llm

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIClient implements Client against any OpenAI-compatible
// chat-completions API: OpenAI itself, OpenRouter, or Groq, selected by
// base URL. This single client absorbs all three provider surfaces behind
// one contract (OPENAI_API_KEY, OPENROUTER_API_KEY, GROQ_API_KEY).
type OpenAIClient struct {
	model     string
	maxTokens int64
	client    openai.Client
}

func NewOpenAIClient(apiKey, model string, maxTokens int, baseURL string) *OpenAIClient {
	if model == "" {
		model = defaultOpenAIModel
	}
	if maxTokens == 0 {
		maxTokens = 4096
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{
		model:     model,
		maxTokens: int64(maxTokens),
		client:    openai.NewClient(opts...),
	}
}

func (c *OpenAIClient) Model() string { return c.model }

func (c *OpenAIClient) Complete(ctx context.Context, system, userMessage string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     c.model,
		MaxTokens: openai.Int(c.maxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(userMessage),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) Converse(ctx context.Context, system string, messages []Message, tools []Tool) (*ConversationResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:     c.model,
		MaxTokens: openai.Int(c.maxTokens),
		Messages:  convertMessagesToOpenAI(system, messages),
		Tools:     convertToolsToOpenAI(tools),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	return parseOpenAIResponse(resp), nil
}

// convertMessagesToOpenAI bridges the transport's shared vocabulary onto
// OpenAI's wire shape: a co-located assistant tool_calls list serialized
// with JSON-string arguments, and ToolResult blocks lowered into
// individual "tool" role messages (OpenAI's native tool-result role).
func convertMessagesToOpenAI(system string, messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(system)}
	for _, m := range messages {
		switch m.Role {
		case RoleUser:
			var text string
			for _, b := range m.Content {
				switch b.Type {
				case BlockText:
					text += b.Text
				case BlockToolResult:
					out = append(out, openai.ToolMessage(b.ToolResultText, b.ToolResultForID))
				}
			}
			if text != "" {
				out = append(out, openai.UserMessage(text))
			}
		case RoleAssistant:
			var text string
			var calls []openai.ChatCompletionMessageToolCallParam
			for _, b := range m.Content {
				switch b.Type {
				case BlockText:
					text += b.Text
				case BlockToolUse:
					args, _ := json.Marshal(b.ToolInput)
					calls = append(calls, openai.ChatCompletionMessageToolCallParam{
						ID: b.ToolUseID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      b.ToolName,
							Arguments: string(args),
						},
					})
				}
			}
			asst := openai.ChatCompletionAssistantMessageParam{
				Content: openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(text)},
			}
			if len(calls) > 0 {
				asst.ToolCalls = calls
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		}
	}
	return out
}

func convertToolsToOpenAI(tools []Tool) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}

func parseOpenAIResponse(resp *openai.ChatCompletion) *ConversationResponse {
	if len(resp.Choices) == 0 {
		return &ConversationResponse{StopReason: StopEndTurn}
	}
	choice := resp.Choices[0]
	var blocks []ContentBlock
	if choice.Message.Content != "" {
		blocks = append(blocks, TextBlock(choice.Message.Content))
	}
	for _, tc := range choice.Message.ToolCalls {
		var input map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &input)
		blocks = append(blocks, ToolUseBlock(tc.ID, tc.Function.Name, input))
	}

	stop := canonicalizeStopReason(choice.FinishReason)
	if len(choice.Message.ToolCalls) > 0 {
		stop = StopToolUse
	}

	return &ConversationResponse{
		Content:    blocks,
		StopReason: stop,
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}
}
