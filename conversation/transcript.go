// Package conversation keeps the message history of a single agent run.
package conversation

import (
	"github.com/sweetpotato0/krishimitra/message"
)

// Transcript manages the messages exchanged during one agent run. It is not
// safe for concurrent use; every run owns its own transcript.
type Transcript struct {
	messages []*message.Message
	maxSize  int // Maximum number of messages to keep
}

// New creates a new transcript with default settings
func New() *Transcript {
	return NewWithMaxSize(100)
}

// NewWithMaxSize creates a new transcript with specified max size
func NewWithMaxSize(maxSize int) *Transcript {
	return &Transcript{
		messages: make([]*message.Message, 0),
		maxSize:  maxSize,
	}
}

// Add appends a message to the transcript
func (t *Transcript) Add(msg *message.Message) {
	t.messages = append(t.messages, msg)

	if len(t.messages) <= t.maxSize {
		return
	}

	// Keep system messages and the most recent others.
	systemMsgs := make([]*message.Message, 0)
	for _, m := range t.messages {
		if m.Role == message.RoleSystem {
			systemMsgs = append(systemMsgs, m)
		}
	}

	keepCount := t.maxSize - len(systemMsgs)
	if keepCount < 0 {
		keepCount = 0
	}
	others := make([]*message.Message, 0, len(t.messages))
	for _, m := range t.messages {
		if m.Role != message.RoleSystem {
			others = append(others, m)
		}
	}
	if len(others) > keepCount {
		others = others[len(others)-keepCount:]
	}

	trimmed := make([]*message.Message, 0, len(systemMsgs)+len(others))
	trimmed = append(trimmed, systemMsgs...)
	trimmed = append(trimmed, others...)
	t.messages = trimmed
}

// Messages returns a deep copy of the history, so callers such as model
// clients cannot alter the run's transcript.
func (t *Transcript) Messages() []*message.Message {
	return message.CloneMessages(t.messages)
}
