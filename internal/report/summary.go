// Package report renders validation reports for people: compliance
// summaries, a plain-text report and spreadsheet export.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/MannanGupta05/buildplanwizard/internal/model"
)

// RuleStatus is one line of a compliance summary.
type RuleStatus struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Fails  int    `json:"fails"`
}

// Summary condenses a report into rules passed out of total and a verdict.
type Summary struct {
	BuildingID  string        `json:"building_id"`
	Location    string        `json:"location,omitempty"`
	Verdict     model.Verdict `json:"verdict"`
	RulesPassed int           `json:"rules_passed"`
	RulesTotal  int           `json:"rules_total"`
	Rules       []RuleStatus  `json:"rules"`
}

// Summarize builds the compliance summary of one report.
func Summarize(r model.ValidationReport) Summary {
	s := Summary{
		BuildingID: r.BuildingID,
		Location:   r.Location,
		Verdict:    r.Verdict(),
		RulesTotal: len(r.Rules),
		Rules:      make([]RuleStatus, 0, len(r.Rules)),
	}
	for _, rule := range r.Rules {
		fails := 0
		for _, o := range rule.Outcomes {
			if o.Status == model.StatusFail {
				fails++
			}
		}
		if rule.Passed {
			s.RulesPassed++
		}
		s.Rules = append(s.Rules, RuleStatus{Key: rule.Key(), Name: rule.Name, Passed: rule.Passed, Fails: fails})
	}
	return s
}

// SummarizeAll summarizes reports in order.
func SummarizeAll(reports []model.ValidationReport) []Summary {
	out := make([]Summary, 0, len(reports))
	for _, r := range reports {
		out = append(out, Summarize(r))
	}
	return out
}

// TextOptions adds header details to the plain-text report.
type TextOptions struct {
	Source      string
	GeneratedAt time.Time
}

const ruleLine = 55

// RenderText writes a compliance report per building.
func RenderText(w io.Writer, summaries []Summary, opts TextOptions) error {
	var b strings.Builder
	for i, s := range summaries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Map Analysis Report for %s\n", s.BuildingID)
		if opts.Source != "" {
			fmt.Fprintf(&b, "Source: %s\n", opts.Source)
		}
		if s.Location != "" {
			fmt.Fprintf(&b, "Location: %s\n", s.Location)
		}
		if !opts.GeneratedAt.IsZero() {
			fmt.Fprintf(&b, "Analysis Date: %s\n", opts.GeneratedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(&b, "Overall Status: %s\n", strings.ToUpper(string(s.Verdict)))
		fmt.Fprintf(&b, "Rules Passed: %d/%d\n\n", s.RulesPassed, s.RulesTotal)

		b.WriteString("RULE COMPLIANCE SUMMARY:\n")
		b.WriteString(strings.Repeat("━", ruleLine) + "\n")
		for n, r := range s.Rules {
			status := "✅ PASSED"
			if !r.Passed {
				status = "❌ FAILED"
			}
			fmt.Fprintf(&b, "%2d. %-40s   %s\n", n+1, r.Name, status)
		}
		b.WriteString(strings.Repeat("━", ruleLine) + "\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return eris.Wrap(err, "report: write text")
	}
	return nil
}
