package rules

import (
	"fmt"
	"math"
	"strconv"

	"github.com/MannanGupta05/buildplanwizard/internal/coverage"
	"github.com/MannanGupta05/buildplanwizard/internal/dimension"
	"github.com/MannanGupta05/buildplanwizard/internal/model"
)

// Check is what one validator produces: an overall pass flag, failure log
// lines for the transcript and one outcome per validated instance.
type Check struct {
	Passed   bool
	Logs     []string
	Outcomes []model.RuleOutcome
}

func newCheck() Check {
	return Check{Passed: true, Logs: []string{}, Outcomes: []model.RuleOutcome{}}
}

func (c *Check) pass(o model.RuleOutcome) {
	o.Status = model.StatusPass
	o.Reason = "OK"
	c.Outcomes = append(c.Outcomes, o)
}

func (c *Check) fail(o model.RuleOutcome, reason, log string) {
	o.Status = model.StatusFail
	o.Reason = reason
	c.Passed = false
	c.Outcomes = append(c.Outcomes, o)
	if log != "" {
		c.Logs = append(c.Logs, log)
	}
}

// Combine merges sub-checks into one: it passes only if all of them pass,
// and keeps logs and outcomes in argument order.
func Combine(checks ...Check) Check {
	out := newCheck()
	for _, c := range checks {
		if !c.Passed {
			out.Passed = false
		}
		out.Logs = append(out.Logs, c.Logs...)
		out.Outcomes = append(out.Outcomes, c.Outcomes...)
	}
	return out
}

// CheckGroundCoverage compares covered area against the coverage schedule.
func CheckGroundCoverage(entries []model.AreaEntry, schedule coverage.Schedule) Check {
	c := newCheck()
	for _, e := range entries {
		maxCov := schedule.MaxCoverage(e.PlotArea)
		limit := formatNumber(round2(maxCov))
		o := model.RuleOutcome{
			Rule:          "Ground Coverage",
			RecordedValue: e.CoveredArea,
			ExpectedValue: "≤ " + limit,
		}
		if e.CoveredArea <= maxCov {
			c.pass(o)
			continue
		}
		c.fail(o, "Exceeded allowed coverage", fmt.Sprintf(
			"Covered area %s m² exceeds max coverage %s m² for plot area %s m².",
			formatNumber(e.CoveredArea), limit, formatNumber(e.PlotArea)))
	}
	return c
}

// CheckFAR caps covered area at multiplier × plot area.
func CheckFAR(entries []model.AreaEntry, multiplier float64) Check {
	c := newCheck()
	for _, e := range entries {
		maxFAR := multiplier * e.PlotArea
		limit := formatNumber(round2(maxFAR))
		o := model.RuleOutcome{
			Rule:          "FAR",
			RecordedValue: e.CoveredArea,
			ExpectedValue: "≤ " + limit,
		}
		if e.CoveredArea <= maxFAR {
			c.pass(o)
			continue
		}
		c.fail(o, "FAR exceeded", fmt.Sprintf(
			"Covered area %s m² exceeds max FAR %s m².", formatNumber(e.CoveredArea), limit))
	}
	return c
}

// CheckRoomDimensions validates every token of every entry against one
// room rule. Absent and unparseable tokens produce no outcome.
func CheckRoomDimensions(label string, rule RoomRule, entries []model.RoomEntry) Check {
	c := newCheck()
	expected := fmt.Sprintf("≥ %s m², width ≥ %s m", formatNumber(rule.MinArea), formatNumber(rule.MinWidth))

	for _, e := range entries {
		for _, token := range e.Tokens {
			d := dimension.ParseDimension(token)
			if d.Status != dimension.OK {
				continue
			}
			area := d.Area()
			o := model.RuleOutcome{
				Rule:          label + " Dimensions",
				Floor:         e.Floor,
				RecordedValue: fmt.Sprintf("%.2f m², width %.2f m", area, d.Width),
				ExpectedValue: expected,
			}
			if area >= rule.MinArea && d.Width >= rule.MinWidth {
				c.pass(o)
				continue
			}
			c.fail(o, "Area or width too small", fmt.Sprintf(
				"%s on %s – %s: Area %.2f m², Width %.2f m.", label, floorLabel(e.Floor), token, area, d.Width))
		}
	}
	return c
}

// CheckStaircase validates width, tread and riser. Entries with any field
// absent are skipped; non-numeric fields fail.
func CheckStaircase(rule StaircaseRule, entries []model.StaircaseEntry) Check {
	c := newCheck()
	expected := fmt.Sprintf("width ≥ %s, tread ≥ %s, riser ≤ %s",
		formatNumber(rule.MinWidth), formatNumber(rule.MinTread), formatNumber(rule.MaxRiser))

	for _, e := range entries {
		if dimension.IsAbsent(e.Width) || dimension.IsAbsent(e.Tread) || dimension.IsAbsent(e.Riser) {
			continue
		}
		width, ws := dimension.ParseNumber(e.Width)
		tread, ts := dimension.ParseNumber(e.Tread)
		riser, rs := dimension.ParseNumber(e.Riser)

		if ws != dimension.OK || ts != dimension.OK || rs != dimension.OK {
			raw := fmt.Sprintf("width: %s, tread: %s, riser: %s", e.Width, e.Tread, e.Riser)
			c.fail(model.RuleOutcome{
				Rule:          "Staircase",
				Floor:         e.Floor,
				RecordedValue: raw,
				ExpectedValue: "Valid numeric values",
			}, "Invalid or non-numeric value",
				fmt.Sprintf("Staircase on %s – non-numeric value (%s)", floorLabel(e.Floor), raw))
			continue
		}

		o := model.RuleOutcome{
			Rule:  "Staircase",
			Floor: e.Floor,
			RecordedValue: fmt.Sprintf("width %s, tread %s, riser %s",
				formatNumber(width), formatNumber(tread), formatNumber(riser)),
			ExpectedValue: expected,
		}
		if width >= rule.MinWidth && tread >= rule.MinTread && riser <= rule.MaxRiser {
			c.pass(o)
			continue
		}
		c.fail(o, "Dimension(s) invalid", fmt.Sprintf(
			"Staircase on %s – width: %s, tread: %s, riser: %s",
			floorLabel(e.Floor), formatNumber(width), formatNumber(tread), formatNumber(riser)))
	}
	return c
}

// CheckPlinthLevel caps the plinth level. Non-numeric values fail with the
// raw string recorded.
func CheckPlinthLevel(limit float64, entries []model.HeightPlinthEntry) Check {
	c := newCheck()
	bound := formatNumber(limit)

	for _, e := range entries {
		v, st := dimension.ParseLength(e.Plinth)
		switch st {
		case dimension.Absent:
			continue
		case dimension.Malformed:
			c.fail(model.RuleOutcome{
				Rule:          "Plinth Level",
				RecordedValue: e.Plinth,
				ExpectedValue: "Valid numeric ≤ " + bound,
			}, "Invalid or non-numeric",
				fmt.Sprintf("Plinth level %q is not numeric.", e.Plinth))
			continue
		}

		o := model.RuleOutcome{
			Rule:          "Plinth Level",
			RecordedValue: v,
			ExpectedValue: "≤ " + bound + " m",
		}
		if v <= limit {
			c.pass(o)
			continue
		}
		c.fail(o, "Plinth too high", fmt.Sprintf(
			"Plinth level %s m exceeds %s m limit.", formatNumber(v), bound))
	}
	return c
}

// CheckBuildingHeight caps the height measured from plinth. Entries where
// either height or plinth is absent are skipped.
func CheckBuildingHeight(limit float64, entries []model.HeightPlinthEntry) Check {
	c := newCheck()
	bound := formatNumber(limit)

	for _, e := range entries {
		if dimension.IsAbsent(e.Height) || dimension.IsAbsent(e.Plinth) {
			continue
		}
		v, st := dimension.ParseLength(e.Height)
		if st != dimension.OK {
			raw := fmt.Sprintf("height: %s, plinth: %s", e.Height, e.Plinth)
			c.fail(model.RuleOutcome{
				Rule:          "Building Height",
				RecordedValue: raw,
				ExpectedValue: "Valid numeric values",
			}, "Invalid or non-numeric value",
				fmt.Sprintf("Building height is not numeric (%s).", raw))
			continue
		}

		o := model.RuleOutcome{
			Rule:          "Building Height",
			RecordedValue: v,
			ExpectedValue: "≤ " + bound + " m",
		}
		if v <= limit {
			c.pass(o)
			continue
		}
		c.fail(o, "Height exceeds permissible limit", fmt.Sprintf(
			"Height %s m from plinth exceeds %s m limit.", formatNumber(v), bound))
	}
	return c
}

func floorLabel(floor string) string {
	if floor == "" {
		return "unspecified floor"
	}
	return floor
}

// formatNumber renders v in its shortest exact form, keeping one decimal
// place for whole numbers so limits read as 11.0 rather than 11.
func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v == math.Trunc(v) {
		s += ".0"
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
