package model

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/uptrace/bun"
)

type Session struct {
	bun.BaseModel `bun:"sessions,alias:se"`

	SessionID string          `bun:",pk" json:"sessionId"`
	Title     string          `json:"title"`
	Status    string          `json:"status"` // status can be: "open", "closed"
	Config    json.RawMessage `bun:"type:jsonb" json:"config"`
	CreatedAt *time.Time      `bun:"created_at" json:"createdAt"`
	ClosedAt  *time.Time      `bun:"closed_at,nullzero" json:"closedAt,omitempty"`
}
