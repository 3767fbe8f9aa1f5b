package stats

import (
	"gopkg.in/guregu/null.v3"

	"github.com/pulsepoll/backend/internal/model"
	"github.com/pulsepoll/backend/internal/model/types"
)

// The shared fixture mirrors a typical deployment: a satisfaction response
// question with four fine groups collapsing into two coarse ones, crossed by
// an age question (4 groups) and a gender question (3 groups), giving 12
// basis splits.

func satisfactionQuestion() *model.ResponseQuestion {
	return &model.ResponseQuestion{
		VarName: "satisfaction",
		Expanded: []model.ResponseGroup{
			{Label: "very satisfied", Values: []int{1}},
			{Label: "satisfied", Values: []int{2}},
			{Label: "dissatisfied", Values: []int{3}},
			{Label: "very dissatisfied", Values: []int{4}},
		},
		Collapsed: []model.ResponseGroup{
			{Label: "satisfied", Values: []int{1, 2}},
			{Label: "dissatisfied", Values: []int{3, 4}},
		},
	}
}

func ageQuestion() *model.Question {
	return &model.Question{
		VarName: "age",
		Groups: []model.ResponseGroup{
			{Label: "18-24", Values: []int{1}},
			{Label: "25-34", Values: []int{2}},
			{Label: "35-49", Values: []int{3}},
			{Label: "50+", Values: []int{4}},
		},
	}
}

func genderQuestion() *model.Question {
	return &model.Question{
		VarName: "gender",
		Groups: []model.ResponseGroup{
			{Label: "female", Values: []int{1}},
			{Label: "male", Values: []int{2}},
			{Label: "other", Values: []int{3}},
		},
	}
}

func fixtureConfig(withWeight bool) Config {
	cfg := Config{
		ResponseQuestion:  satisfactionQuestion(),
		GroupingQuestions: []*model.Question{ageQuestion(), genderQuestion()},
	}
	if withWeight {
		cfg.WeightQuestion = &model.QuestionKey{VarName: "weight"}
	}
	return cfg
}

func answer(varName string, value float64) types.RespondentResponse {
	return types.RespondentResponse{
		VarName:  varName,
		Response: null.FloatFrom(value),
	}
}

func skipped(varName string) types.RespondentResponse {
	return types.RespondentResponse{
		VarName:  varName,
		Response: null.Float{},
	}
}

func respondent(id int, responses ...types.RespondentResponse) *types.RespondentData {
	return &types.RespondentData{
		RespondentID: id,
		Responses:    responses,
	}
}
