package llm

import "sync"

// DefaultMaxTurns bounds the transcript kept per conversation.
const DefaultMaxTurns = 20

type turn struct {
	user      string
	assistant string
}

// Conversations keeps a bounded in-memory transcript per conversation id.
// It is the continuity the provider sees; nothing here is persisted.
type Conversations struct {
	mu       sync.Mutex
	maxTurns int
	turns    map[string][]turn
}

func NewConversations(maxTurns int) *Conversations {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Conversations{maxTurns: maxTurns, turns: make(map[string][]turn)}
}

// History returns the prior turns of id as alternating user/assistant messages.
func (c *Conversations) History(id string) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.turns[id]
	out := make([]Message, 0, len(ts)*2)
	for _, t := range ts {
		out = append(out,
			Message{Role: RoleUser, Content: t.user},
			Message{Role: RoleAssistant, Content: t.assistant},
		)
	}
	return out
}

// Append records a completed exchange, dropping the oldest beyond the bound.
func (c *Conversations) Append(id, user, assistant string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := append(c.turns[id], turn{user: user, assistant: assistant})
	if len(ts) > c.maxTurns {
		ts = ts[len(ts)-c.maxTurns:]
	}
	c.turns[id] = ts
}

// Len reports the number of turns held for id.
func (c *Conversations) Len(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns[id])
}
