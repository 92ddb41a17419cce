// conversation.go — the session-scoped message log.
//
// The log is append-only and ordered: every processed prompt appends a
// user turn, then exactly one assistant turn (possibly empty on failure).
// A single pending-suggestion slot holds at most one selected follow-up
// awaiting promotion to the next prompt.
package analyst

// Role attributes a turn to one side of the conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one exchange unit in the transcript.
type Turn struct {
	Role      Role
	Content   Content
	RequestID string // correlation id; assistant turns only, may be empty
}

// Conversation holds the ordered turn log and the pending-suggestion slot
// for one UI session. Not persisted: it dies with the process.
type Conversation struct {
	turns      []Turn
	pending    string
	hasPending bool
}

// NewConversation returns an empty log.
func NewConversation() *Conversation {
	return &Conversation{}
}

// AppendUser appends a user turn wrapping the prompt in a text block.
func (c *Conversation) AppendUser(prompt string) Turn {
	turn := Turn{Role: RoleUser, Content: Content{TextBlock{Text: prompt}}}
	c.turns = append(c.turns, turn)
	return turn
}

// AppendAssistant appends an assistant turn. Empty content and an empty
// request id are valid: that is the failed-send turn.
func (c *Conversation) AppendAssistant(content Content, requestID string) Turn {
	turn := Turn{Role: RoleAssistant, Content: content, RequestID: requestID}
	c.turns = append(c.turns, turn)
	return turn
}

// Len reports the number of turns.
func (c *Conversation) Len() int { return len(c.turns) }

// Turns returns a copy of the log in append order.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Turn returns the turn at index i.
func (c *Conversation) Turn(i int) Turn { return c.turns[i] }

// SetPending stores a selected suggestion. Last write wins: the slot holds
// at most one suggestion.
func (c *Conversation) SetPending(suggestion string) {
	c.pending = suggestion
	c.hasPending = true
}

// TakePending returns and clears the pending suggestion. Single-shot: a
// second call returns false until something is set again.
func (c *Conversation) TakePending() (string, bool) {
	if !c.hasPending {
		return "", false
	}
	s := c.pending
	c.pending = ""
	c.hasPending = false
	return s, true
}
