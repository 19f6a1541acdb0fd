package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is the per-instance verdict of a rule.
type Status string

const (
	StatusPass Status = "Pass"
	StatusFail Status = "Fail"
)

// Verdict is the overall outcome for a building.
type Verdict string

const (
	VerdictApproved Verdict = "approved"
	VerdictRejected Verdict = "rejected"
)

// RuleOutcome records one validated instance (a room, a staircase, a plot
// entry). RecordedValue is a number when the input parsed and a string
// otherwise.
type RuleOutcome struct {
	Rule          string `json:"rule"`
	Floor         string `json:"floor,omitempty"`
	RecordedValue any    `json:"recorded_value"`
	ExpectedValue string `json:"expected_value"`
	Status        Status `json:"status"`
	Reason        string `json:"reason"`
}

// RuleResult is the outcome of one numbered rule for one building.
type RuleResult struct {
	Number   int           `json:"number"`
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Logs     []string      `json:"logs"`
	Outcomes []RuleOutcome `json:"outcomes"`
}

// RuleKey formats the stable identifier used as the structured report key.
func RuleKey(number int, name string) string {
	return fmt.Sprintf("Rule %d: %s", number, name)
}

// Key returns the stable report key, e.g. "Rule 1: Ground Coverage".
func (r RuleResult) Key() string {
	return RuleKey(r.Number, r.Name)
}

// ValidationReport is the full result for one building.
type ValidationReport struct {
	BuildingID string       `json:"building_id"`
	Location   string       `json:"location,omitempty"`
	Passed     bool         `json:"passed"`
	Rules      []RuleResult `json:"rules"`
	Logs       []string     `json:"logs"`
}

// Verdict maps the pass flag onto approved/rejected.
func (r ValidationReport) Verdict() Verdict {
	if r.Passed {
		return VerdictApproved
	}
	return VerdictRejected
}

// Transcript joins the human-readable lines into one block.
func (r ValidationReport) Transcript() string {
	return strings.Join(r.Logs, "\n")
}

// Structured returns rule key → outcomes. Rules with no instances map to an
// empty, non-nil slice so they serialize as [].
func (r ValidationReport) Structured() map[string][]RuleOutcome {
	out := make(map[string][]RuleOutcome, len(r.Rules))
	for _, rule := range r.Rules {
		outcomes := rule.Outcomes
		if outcomes == nil {
			outcomes = []RuleOutcome{}
		}
		out[rule.Key()] = outcomes
	}
	return out
}

// Result is the combined output for a set of buildings: one transcript
// block per building and building id → rule key → outcomes.
type Result struct {
	Logs       []string                            `json:"logs"`
	Structured map[string]map[string][]RuleOutcome `json:"structured"`
}

// Run is an archived validation of one building.
type Run struct {
	ID          string           `json:"id"`
	Source      string           `json:"source"`
	BuildingID  string           `json:"building_id"`
	Location    string           `json:"location,omitempty"`
	Verdict     Verdict          `json:"verdict"`
	RulesPassed int              `json:"rules_passed"`
	RulesTotal  int              `json:"rules_total"`
	Report      ValidationReport `json:"report"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NewResult merges building reports into the combined output, keeping the
// order of reports.
func NewResult(reports []ValidationReport) Result {
	res := Result{
		Logs:       make([]string, 0, len(reports)),
		Structured: make(map[string]map[string][]RuleOutcome, len(reports)),
	}
	for _, r := range reports {
		res.Logs = append(res.Logs, r.Transcript())
		res.Structured[r.BuildingID] = r.Structured()
	}
	return res
}

// NewRun prepares an archive entry for a report. The store assigns the id
// and creation time.
func NewRun(source string, r ValidationReport) Run {
	passed := 0
	for _, rule := range r.Rules {
		if rule.Passed {
			passed++
		}
	}
	return Run{
		Source:      source,
		BuildingID:  r.BuildingID,
		Location:    r.Location,
		Verdict:     r.Verdict(),
		RulesPassed: passed,
		RulesTotal:  len(r.Rules),
		Report:      r,
	}
}
