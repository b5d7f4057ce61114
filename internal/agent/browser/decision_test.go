package browser

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-browserpilot/internal/agent/agenttest"
	"go-browserpilot/pkg/models"
)

func TestParseDecision(t *testing.T) {
	answer := "Here you go:\n```json\n" +
		`{"goal": "open reddit", "action": "navigate", "argument": "https://reddit.com", "evaluation": "nothing yet"}` +
		"\n```"

	dec, err := parseDecision(answer)
	require.NoError(t, err)
	assert.Equal(t, "navigate", dec.Action)
	assert.Equal(t, "https://reddit.com", dec.Argument)
	assert.Equal(t, "open reddit", dec.Goal)
}

func TestParseDecisionMissingAction(t *testing.T) {
	_, err := parseDecision(`{"goal": "think harder"}`)
	assert.Error(t, err)
}

func TestParseDecisionNotJSON(t *testing.T) {
	_, err := parseDecision("I give up")
	assert.Error(t, err)
}

func TestDecideFeedsHistoryIntoPrompt(t *testing.T) {
	client := agenttest.Client{
		From:   models.ProviderOpenAI,
		Answer: `{"goal": "finish", "action": "done", "argument": "42", "evaluation": "found it"}`,
	}
	history := []actionRecord{{Goal: "search", Action: "type", Argument: "#q||answer", Result: "ok"}}

	dec, err := decide(context.Background(), client, "find the answer", observation{URL: "https://example.com", Title: "Example"}, history)
	require.NoError(t, err)
	assert.Equal(t, actionDone, dec.Action)
	assert.Equal(t, "42", dec.Argument)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "click(#submit)", describe(decision{Action: "click", Argument: "#submit"}))
	assert.Equal(t, "done", describe(decision{Action: "done"}))
}

func TestActionRecordRoundTripsForThePrompt(t *testing.T) {
	history := []actionRecord{
		{Goal: "open page", Action: "navigate", Argument: "https://example.com", Result: "ok"},
		{Goal: "find box", Action: "click", Argument: "#missing", Result: "error: no node"},
	}
	raw, err := json.Marshal(history)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"error: no node"`)
}

func TestNewAppliesDefaults(t *testing.T) {
	a := New(Options{})
	assert.Equal(t, 40, a.opts.MaxActions)
	assert.Equal(t, 4000, a.opts.PageTextLimit)
	assert.NotZero(t, a.opts.StepTimeout)
}
