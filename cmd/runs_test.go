package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MannanGupta05/buildplanwizard/internal/model"
)

func sampleRuns() []model.Run {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	return []model.Run{
		{
			ID:          "abc12345-6789-0000-0000-000000000000",
			Source:      "staging/plan_a.json",
			BuildingID:  "plan_a",
			Verdict:     model.VerdictApproved,
			RulesPassed: 9,
			RulesTotal:  9,
			CreatedAt:   now,
		},
		{
			ID:          "def12345-6789-0000-0000-000000000000",
			Source:      "staging/a/very/long/directory/name/plan_b.json",
			BuildingID:  "plan_b",
			Verdict:     model.VerdictRejected,
			RulesPassed: 7,
			RulesTotal:  9,
			Report: model.ValidationReport{Rules: []model.RuleResult{
				{Number: 1, Name: "Ground Coverage", Passed: false},
				{Number: 3, Name: "Habitable Rooms", Passed: false},
				{Number: 2, Name: "FAR", Passed: true},
			}},
			CreatedAt: now.Add(-time.Hour),
		},
		{
			ID:          "0123",
			BuildingID:  "plan_c",
			Verdict:     model.VerdictRejected,
			RulesPassed: 8,
			RulesTotal:  9,
			Report: model.ValidationReport{Rules: []model.RuleResult{
				{Number: 1, Name: "Ground Coverage", Passed: false},
			}},
		},
	}
}

func TestFormatRunsList(t *testing.T) {
	var buf bytes.Buffer
	formatRunsList(&buf, sampleRuns())

	output := buf.String()
	assert.Contains(t, output, "BUILDING")
	assert.Contains(t, output, "VERDICT")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
	assert.Contains(t, output, "plan_a")
	assert.Contains(t, output, "approved")
	assert.Contains(t, output, "7/9")
	assert.Contains(t, output, "...")
	assert.Contains(t, output, "2025-06-15 10:30")
}

func TestComputeRunStats(t *testing.T) {
	s := computeRunStats(sampleRuns())
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Approved)
	assert.Equal(t, 2, s.Rejected)
	assert.Equal(t, 2, s.RuleFails["Rule 1: Ground Coverage"])
	assert.Equal(t, 1, s.RuleFails["Rule 3: Habitable Rooms"])
	assert.NotContains(t, s.RuleFails, "Rule 2: FAR")
	assert.InDelta(t, (1.0+7.0/9+8.0/9)/3, s.AvgPassRate, 1e-9)
}

func TestComputeRunStats_Empty(t *testing.T) {
	s := computeRunStats(nil)
	assert.Equal(t, 0, s.Total)
	assert.Zero(t, s.AvgPassRate)
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, computeRunStats(sampleRuns()))

	output := buf.String()
	assert.Contains(t, output, "Total runs:")
	assert.Contains(t, output, "Rejected:")
	assert.Contains(t, output, "Failures by rule:")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Rule 1: Ground Coverage")), bytes.Index(buf.Bytes(), []byte("Rule 3: Habitable Rooms")))
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
}
