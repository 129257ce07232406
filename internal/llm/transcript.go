package llm

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Transcript is the conversation state threaded through one repair loop
// invocation. It is a value: Append returns a new Transcript and never
// mutates the receiver, so every loop step can be audited against the
// transcript it was handed.
type Transcript struct {
	messages []Message
}

// NewTranscript seeds a fresh conversation with the system prompt and the
// user's question. This happens exactly once per loop invocation.
func NewTranscript(systemPrompt, userPrompt string) Transcript {
	return Transcript{messages: []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: userPrompt},
	}}
}

func (t Transcript) Append(role, content string) Transcript {
	next := make([]Message, len(t.messages), len(t.messages)+1)
	copy(next, t.messages)
	return Transcript{messages: append(next, Message{Role: role, Content: content})}
}

func (t Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t Transcript) Len() int {
	return len(t.messages)
}

// System returns the system message content, if the transcript carries one.
func (t Transcript) System() (string, bool) {
	for _, msg := range t.messages {
		if msg.Role == RoleSystem {
			return msg.Content, true
		}
	}
	return "", false
}
