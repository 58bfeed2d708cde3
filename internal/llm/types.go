// Package llm provides a provider-agnostic vocabulary for single-turn and
// multi-turn (tool-use) LLM calls, with concrete clients for Anthropic and
// OpenAI-compatible (OpenAI, OpenRouter, Groq) APIs.
package llm

import "context"

// Role identifies the speaker of a ConversationMessage.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StopReason canonicalizes provider-specific stop reasons.
type StopReason string

const (
	StopEndTurn  StopReason = "end_turn"
	StopToolUse  StopReason = "tool_use"
	StopMaxToken StopReason = "max_tokens"
)

// ContentBlock is one of Text, ToolUse, or ToolResult. Exactly one of the
// typed fields is populated, selected by Type.
type ContentBlockType string

const (
	BlockText       ContentBlockType = "text"
	BlockToolUse    ContentBlockType = "tool_use"
	BlockToolResult ContentBlockType = "tool_result"
)

type ContentBlock struct {
	Type ContentBlockType

	// Text
	Text string

	// ToolUse
	ToolUseID   string
	ToolName    string
	ToolInput   map[string]any

	// ToolResult
	ToolResultForID string
	ToolResultText  string
	ToolResultError bool
}

func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

func ToolUseBlock(id, name string, input map[string]any) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ToolUseID: id, ToolName: name, ToolInput: input}
}

func ToolResultBlock(forID, text string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolResultForID: forID, ToolResultText: text, ToolResultError: isError}
}

// Message is one turn in a conversation: a role plus an ordered sequence of
// content blocks. Messages accumulate in insertion order; never reordered
// or deleted (spec invariant: append-only).
type Message struct {
	Role    Role
	Content []ContentBlock
}

// Tool describes a callable tool exposed to the model, as a JSON schema.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Usage reports token consumption for a single converse/complete call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ConversationResponse is the result of one converse() call.
type ConversationResponse struct {
	Content    []ContentBlock
	StopReason StopReason
	Usage      Usage
}

// Client is the provider-agnostic LLM transport contract.
type Client interface {
	// Complete performs a single-turn completion.
	Complete(ctx context.Context, system, userMessage string) (string, error)

	// Converse performs one multi-turn tool-use exchange.
	Converse(ctx context.Context, system string, messages []Message, tools []Tool) (*ConversationResponse, error)

	// Model returns the model identifier in use, for cost estimation.
	Model() string
}
