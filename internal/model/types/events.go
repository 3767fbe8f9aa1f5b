package types

import (
	"github.com/goccy/go-json"
)

// EventEnvelope is the wire form of every message on the poll stream. Kind
// selects the payload variant; payloads are decoded at the consumer boundary
// and malformed ones are routed to the dead-letter subject.
type EventEnvelope struct {
	Kind      string          `json:"kind" validate:"required"`
	TaskID    string          `json:"taskId"`
	SessionID string          `json:"sessionId" validate:"required"`
	CreatedAt int64           `json:"createdAt"` // unix microseconds
	Payload   json.RawMessage `json:"payload"`
}

type RespondentBatchPayload struct {
	Respondents []*RespondentData `json:"respondents" validate:"required,min=1,dive"`
}

type SessionOpenPayload struct {
	Title  string        `json:"title"`
	Config SessionConfig `json:"config" validate:"required"`
}

type SessionClosePayload struct {
	Reason string `json:"reason,omitempty"`
}
