package session

import (
	"github.com/google/uuid"
)

// Role identifies who authored a turn. The generation backends map these to
// their own vocabularies.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Attachment is binary content sent alongside a user turn. Data holds the
// base64 payload; MIMEType is derived from the source file.
type Attachment struct {
	MIMEType string
	Data     string
	// Name is the source file, kept for diagnostics only.
	Name string
}

type Message struct {
	Role       Role
	Content    string
	Attachment *Attachment
}

// History is the in-memory conversation for one process run. It grows
// monotonically and is never written to disk.
type History struct {
	ID       string
	messages []Message
}

// New creates an empty history with a fresh identifier used to correlate logs.
func New() *History {
	return &History{ID: uuid.NewString()}
}

// Append adds turns in the order given.
func (h *History) Append(msgs ...Message) {
	h.messages = append(h.messages, msgs...)
}

// Messages returns a copy so callers cannot reorder the history.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *History) Len() int { return len(h.messages) }

// UserText and ModelText build plain text turns.
func UserText(content string) Message { return Message{Role: RoleUser, Content: content} }

func ModelText(content string) Message { return Message{Role: RoleModel, Content: content} }
