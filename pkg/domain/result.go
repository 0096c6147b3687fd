package domain

// Message is a user-visible reply produced during a turn.
type Message struct {
	Content string `json:"content"`
	Handler string `json:"handler"`
}

// HandlerInfo is the presentation view of a registered handler.
type HandlerInfo struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	TransfersTo     []string `json:"transfers_to"`
	Tools           []string `json:"tools"`
	RequiredFilters []string `json:"required_filters"`
}

// TurnResult is the structured outcome of one turn.
type TurnResult struct {
	ConversationID string          `json:"conversation_id"`
	CurrentHandler string          `json:"current_handler"`
	Messages       []Message       `json:"messages"`
	Events         []Event         `json:"events"`
	Context        map[string]any  `json:"context"`
	Handlers       []HandlerInfo   `json:"handlers"`
	FilterOutcomes []FilterOutcome `json:"filter_outcomes"`

	// Failed is set when the turn ended in a generic invocation failure.
	Failed bool `json:"failed,omitempty"`
}

// Snapshot is the full replayable view of a conversation, used by UIs to
// restore a session without running a turn.
type Snapshot struct {
	ConversationID string          `json:"conversation_id"`
	CurrentHandler string          `json:"current_handler"`
	History        []Entry         `json:"history"`
	Context        map[string]any  `json:"context"`
	Handlers       []HandlerInfo   `json:"handlers"`
	Events         []Event         `json:"events"`
	FilterOutcomes []FilterOutcome `json:"filter_outcomes"`
}
