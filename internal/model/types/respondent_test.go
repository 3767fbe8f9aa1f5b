package types

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"
)

func TestRespondentResponseJSON(t *testing.T) {
	t.Parallel()

	answered, err := json.Marshal(RespondentResponse{VarName: "q1", Response: null.FloatFrom(3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"varName":"q1","batteryName":"","subBattery":"","response":3}`, string(answered))

	skipped, err := json.Marshal(RespondentResponse{VarName: "q1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"varName":"q1","batteryName":"","subBattery":"","response":null}`, string(skipped))

	var decoded RespondentResponse
	require.NoError(t, json.Unmarshal(answered, &decoded))
	assert.True(t, decoded.Response.Valid)
	assert.Equal(t, 3.0, decoded.Response.Float64)
}
