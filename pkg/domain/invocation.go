package domain

// Invocation is everything a handler receives for one reasoning step.
type Invocation struct {
	ConversationID string
	Handler        HandlerInfo
	Instructions   string
	Tools          []Tool
	Handoffs       []HandoffOption
	History        []Entry

	// Context is a read-only copy; writes go through tools.
	Context Record
}

// LastUserMessage returns the most recent user entry of the invocation history.
func (in Invocation) LastUserMessage() string {
	for i := len(in.History) - 1; i >= 0; i-- {
		if in.History[i].Role == RoleUser {
			return in.History[i].Content
		}
	}
	return ""
}

// PendingToolResults returns the tool entries appended after the last
// assistant or user entry, i.e. the results the handler has not answered yet.
func (in Invocation) PendingToolResults() []Entry {
	i := len(in.History)
	for i > 0 && in.History[i-1].Role == RoleTool {
		i--
	}
	return in.History[i:]
}

// DecisionKind tells the executor what a handler decided to do.
type DecisionKind string

const (
	DecisionMessage  DecisionKind = "message"
	DecisionToolCall DecisionKind = "tool_call"
	DecisionHandoff  DecisionKind = "handoff"
)

// HandoffRequest names the target of a requested transfer.
type HandoffRequest struct {
	Target string         `json:"target"`
	Args   map[string]any `json:"args,omitempty"`
}

// Decision is the answer of one reasoning step.
type Decision struct {
	Kind      DecisionKind
	Message   string
	ToolCalls []ToolCall
	Handoff   *HandoffRequest
}

// Say builds a final message decision.
func Say(msg string) Decision {
	return Decision{Kind: DecisionMessage, Message: msg}
}

// Call builds a tool call decision.
func Call(calls ...ToolCall) Decision {
	return Decision{Kind: DecisionToolCall, ToolCalls: calls}
}

// TransferTo builds a handoff decision.
func TransferTo(target string, args map[string]any) Decision {
	return Decision{Kind: DecisionHandoff, Handoff: &HandoffRequest{Target: target, Args: args}}
}
