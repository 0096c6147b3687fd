package domain

// ToolCall represents a request from a handler to run one of its tools.
// Ideally compatible with OpenAI/MCP tool call schemas.
type ToolCall struct {
	ID   string         `json:"id"`             // Unique ID for this specific call
	Name string         `json:"name"`           // Function name to call
	Args map[string]any `json:"args,omitempty"` // Arguments for the function
}

// ToolResult represents the output of a tool execution.
type ToolResult struct {
	ID      string `json:"id"` // Must match the ToolCall.ID
	Name    string `json:"name"`
	Output  string `json:"output"`
	IsError bool   `json:"is_error,omitempty"`
}

// Tool defines metadata about a tool available to a handler.
// This is used for generating schemas/prompts.
type Tool struct {
	Name        string         `json:"name" yaml:"name" mapstructure:"name"`
	Description string         `json:"description" yaml:"description" mapstructure:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
}

// HandoffOption describes a transfer a handler may request.
type HandoffOption struct {
	ToolName    string         `json:"tool_name"`
	Target      string         `json:"target"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}
