package model

import (
	"time"

	"github.com/uptrace/bun"
	"gopkg.in/guregu/null.v3"
)

// RespondentAnswer is one answered question of one respondent, as flattened
// rows delivered by the answer ingest. The engine never reads these rows
// directly; the repo joins them back into RespondentData batches.
type RespondentAnswer struct {
	bun.BaseModel `bun:"respondent_answers,alias:ra"`

	AnswerID     int        `bun:",pk,autoincrement" json:"id"`
	SessionID    string     `json:"sessionId"`
	RespondentID int        `json:"respondentId"`
	VarName      string     `json:"varName"`
	BatteryName  string     `json:"batteryName"`
	SubBattery   string     `json:"subBattery"`
	Response     null.Float `bun:",nullzero" json:"response"`
	CreatedAt    *time.Time `bun:"created_at" json:"createdAt"`
}
