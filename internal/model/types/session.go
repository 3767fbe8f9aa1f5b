package types

import (
	"github.com/pulsepoll/backend/internal/model"
)

type ResponseGroupDef struct {
	Label  string `json:"label" validate:"required,lte=128"`
	Values []int  `json:"values" validate:"required,min=1"`
}

type QuestionDef struct {
	VarName     string `json:"varName" validate:"required,lte=128"`
	BatteryName string `json:"batteryName" validate:"lte=128"`
	SubBattery  string `json:"subBattery" validate:"lte=128"`

	Groups []ResponseGroupDef `json:"groups" validate:"required,min=1,dive"`
}

type ResponseQuestionDef struct {
	VarName     string `json:"varName" validate:"required,lte=128"`
	BatteryName string `json:"batteryName" validate:"lte=128"`
	SubBattery  string `json:"subBattery" validate:"lte=128"`

	Expanded  []ResponseGroupDef `json:"expanded" validate:"required,min=1,dive"`
	Collapsed []ResponseGroupDef `json:"collapsed" validate:"required,min=1,dive"`
}

type WeightQuestionDef struct {
	VarName     string `json:"varName" validate:"required,lte=128"`
	BatteryName string `json:"batteryName" validate:"lte=128"`
	SubBattery  string `json:"subBattery" validate:"lte=128"`
}

// LayoutConfig carries the visualization layout parameters consumed by the
// layout service, not the engine.
type LayoutConfig struct {
	CanvasWidth  float64 `json:"canvasWidth" validate:"gt=0" `
	CanvasHeight float64 `json:"canvasHeight" validate:"gt=0"`
	PointRadius  float64 `json:"pointRadius" validate:"gt=0"`
	PointGap     float64 `json:"pointGap" validate:"gte=0"`
	Columns      int     `json:"columns" validate:"gte=0"`
}

type SessionConfig struct {
	ResponseQuestion  ResponseQuestionDef `json:"responseQuestion" validate:"required"`
	GroupingQuestions []QuestionDef       `json:"groupingQuestions" validate:"dive"`
	WeightQuestion    *WeightQuestionDef  `json:"weightQuestion,omitempty" validate:"omitempty"`
	Layout            LayoutConfig        `json:"layout"`
}

type CreateSessionRequest struct {
	Title  string        `json:"title" validate:"required,lte=256"`
	Config SessionConfig `json:"config" validate:"required"`
}

func groupsToModel(defs []ResponseGroupDef) []model.ResponseGroup {
	groups := make([]model.ResponseGroup, len(defs))
	for i, d := range defs {
		groups[i] = model.ResponseGroup{Label: d.Label, Values: d.Values}
	}
	return groups
}

func (d *QuestionDef) ToModel() *model.Question {
	return &model.Question{
		VarName:     d.VarName,
		BatteryName: d.BatteryName,
		SubBattery:  d.SubBattery,
		Groups:      groupsToModel(d.Groups),
	}
}

func (d *ResponseQuestionDef) ToModel() *model.ResponseQuestion {
	return &model.ResponseQuestion{
		VarName:     d.VarName,
		BatteryName: d.BatteryName,
		SubBattery:  d.SubBattery,
		Expanded:    groupsToModel(d.Expanded),
		Collapsed:   groupsToModel(d.Collapsed),
	}
}

func (d *WeightQuestionDef) ToModel() *model.QuestionKey {
	return &model.QuestionKey{
		VarName:     d.VarName,
		BatteryName: d.BatteryName,
		SubBattery:  d.SubBattery,
	}
}

func (c *SessionConfig) GroupingQuestionsToModel() []*model.Question {
	questions := make([]*model.Question, len(c.GroupingQuestions))
	for i := range c.GroupingQuestions {
		questions[i] = c.GroupingQuestions[i].ToModel()
	}
	return questions
}
