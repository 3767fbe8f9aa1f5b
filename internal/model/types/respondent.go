package types

import (
	"gopkg.in/guregu/null.v3"
)

// RespondentResponse is one answered question of a respondent. Response is
// null when the respondent skipped the question.
type RespondentResponse struct {
	VarName     string     `json:"varName" validate:"required,lte=128"`
	BatteryName string     `json:"batteryName" validate:"lte=128"`
	SubBattery  string     `json:"subBattery" validate:"lte=128"`
	Response    null.Float `json:"response"`
}

// RespondentData is the transient classification input for one respondent,
// consumed once per engine update.
type RespondentData struct {
	RespondentID int                  `json:"respondentId" validate:"required"`
	Responses    []RespondentResponse `json:"responses" validate:"dive"`
}
