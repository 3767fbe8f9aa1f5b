package model

import (
	"time"

	"github.com/uptrace/bun"
)

// SessionStatistics is a persisted snapshot of a session's full basis-split
// array, stored as an opaque JSON blob.
type SessionStatistics struct {
	bun.BaseModel `bun:"session_statistics,alias:ss"`

	StatisticsID int        `bun:",pk,autoincrement" json:"id"`
	SessionID    string     `json:"sessionId"`
	Content      string     `bun:"content" json:"content"`
	ValidCount   int        `json:"validCount"`
	InvalidCount int        `json:"invalidCount"`
	CreatedAt    *time.Time `bun:"created_at" json:"createdAt"`
}
