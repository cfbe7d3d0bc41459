package models

// TurnRole identifies the author of a transcript turn.
type TurnRole string

const (
	TurnUser      TurnRole = "user"
	TurnAssistant TurnRole = "assistant"
)

// Turn is one message in the conversation transcript. Context, when
// present on an assistant turn, is the ordered list of retrieved passage
// excerpts that grounded the answer, stored in full.
type Turn struct {
	Role    TurnRole `json:"role"`
	Content string   `json:"content"`
	Context []string `json:"context,omitempty"`
}
