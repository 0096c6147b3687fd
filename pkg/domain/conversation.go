package domain

import "time"

// Role identifies the author of a history entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Entry is one append-only item of a conversation history.
type Entry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Handler is the handler that produced an assistant or tool entry.
	Handler    string `json:"handler,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	IsError    bool   `json:"is_error,omitempty"`
}

// Conversation is the persisted state of one conversation between turns.
type Conversation struct {
	ID string `json:"id"`

	// History is the ordered turn log (user, assistant and tool entries).
	History []Entry `json:"history"`

	// Context is the shared record handlers read and tools write.
	Context Record `json:"context"`

	// CurrentHandler is the name of the owning handler.
	CurrentHandler string `json:"current_handler"`

	// Events are retained for UI replay across turns.
	Events []Event `json:"events,omitempty"`

	// Filters holds the outcomes of the most recent turn.
	Filters []FilterOutcome `json:"filters,omitempty"`

	// RegistryVersion pins the capability registry this conversation started with.
	RegistryVersion string `json:"registry_version,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation creates a fresh conversation owned by the given handler.
func NewConversation(id, handler string, rec Record) *Conversation {
	if rec == nil {
		rec = NewRecord()
	}
	now := time.Now().UTC()
	return &Conversation{
		ID:             id,
		History:        []Entry{},
		Context:        rec,
		CurrentHandler: handler,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy. Event metadata maps are copied one level deep,
// which is enough since the executor never mutates them after creation.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.History = append([]Entry(nil), c.History...)
	if out.History == nil {
		out.History = []Entry{}
	}
	out.Context = c.Context.Clone()
	if c.Events != nil {
		out.Events = make([]Event, len(c.Events))
		for i, e := range c.Events {
			out.Events[i] = e.clone()
		}
	}
	out.Filters = append([]FilterOutcome(nil), c.Filters...)
	return &out
}

// Append adds entries to the history.
func (c *Conversation) Append(entries ...Entry) {
	c.History = append(c.History, entries...)
}

// LastUserMessage returns the content of the most recent user entry.
func (c *Conversation) LastUserMessage() string {
	for i := len(c.History) - 1; i >= 0; i-- {
		if c.History[i].Role == RoleUser {
			return c.History[i].Content
		}
	}
	return ""
}

// IsNew reports whether the conversation has not processed any message yet.
func (c *Conversation) IsNew() bool {
	return len(c.History) == 0
}
