package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() ValidationReport {
	return ValidationReport{
		BuildingID: "plan",
		Location:   "Punjab",
		Passed:     false,
		Rules: []RuleResult{
			{Number: 1, Name: "Ground Coverage", Passed: false, Outcomes: []RuleOutcome{{
				Rule: "Ground Coverage", RecordedValue: 131.5, ExpectedValue: "≤ 116.19", Status: StatusFail, Reason: "Exceeds limit",
			}}},
			{Number: 2, Name: "FAR", Passed: true},
		},
		Logs: []string{"Map: plan", "Rule 1: Ground Coverage - Failed ❌"},
	}
}

func TestRuleKey(t *testing.T) {
	assert.Equal(t, "Rule 7: Staircase", RuleKey(7, "Staircase"))
	assert.Equal(t, "Rule 2: FAR", RuleResult{Number: 2, Name: "FAR"}.Key())
}

func TestVerdict(t *testing.T) {
	assert.Equal(t, VerdictRejected, sampleReport().Verdict())
	assert.Equal(t, VerdictApproved, ValidationReport{Passed: true}.Verdict())
}

func TestTranscript(t *testing.T) {
	assert.Equal(t, "Map: plan\nRule 1: Ground Coverage - Failed ❌", sampleReport().Transcript())
}

func TestStructured_EmptyRulesSerializeAsArray(t *testing.T) {
	s := sampleReport().Structured()
	require.Len(t, s, 2)
	assert.NotNil(t, s["Rule 2: FAR"])

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Rule 2: FAR":[]`)
}

func TestNewResult(t *testing.T) {
	a := sampleReport()
	b := ValidationReport{BuildingID: "other", Passed: true, Logs: []string{"Map: other"}}

	res := NewResult([]ValidationReport{a, b})
	assert.Equal(t, []string{a.Transcript(), "Map: other"}, res.Logs)
	require.Contains(t, res.Structured, "plan")
	assert.Len(t, res.Structured["plan"]["Rule 1: Ground Coverage"], 1)
	assert.Empty(t, res.Structured["other"])
}

func TestNewRun(t *testing.T) {
	run := NewRun("staging/plan.json", sampleReport())
	assert.Empty(t, run.ID)
	assert.Equal(t, "staging/plan.json", run.Source)
	assert.Equal(t, "plan", run.BuildingID)
	assert.Equal(t, "Punjab", run.Location)
	assert.Equal(t, VerdictRejected, run.Verdict)
	assert.Equal(t, 1, run.RulesPassed)
	assert.Equal(t, 2, run.RulesTotal)
}
