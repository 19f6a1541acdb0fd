// Package rules validates building records against a municipal rule set and
// aggregates the per-rule results into a report.
package rules

import (
	"fmt"
	"slices"

	"github.com/MannanGupta05/buildplanwizard/internal/model"
)

// ruleSpec binds a numbered rule to the validator that evaluates it.
type ruleSpec struct {
	number int
	name   string
	check  func(cfg *Config, rec model.BuildingRecord) Check
}

func roomCheck(cfg *Config, rec model.BuildingRecord, category string) Check {
	return CheckRoomDimensions(cfg.LabelFor(category), cfg.Rooms[category], rec.RoomEntries(category))
}

// ruleTable is evaluated in order; numbers and names form the report keys.
var ruleTable = []ruleSpec{
	{1, "Ground Coverage", func(cfg *Config, rec model.BuildingRecord) Check {
		return CheckGroundCoverage(rec.PlotAreaFAR, cfg.Coverage)
	}},
	{2, "FAR", func(cfg *Config, rec model.BuildingRecord) Check {
		return CheckFAR(rec.PlotAreaFAR, cfg.FARMultiplier)
	}},
	{3, "Habitable Rooms", func(cfg *Config, rec model.BuildingRecord) Check {
		return Combine(
			roomCheck(cfg, rec, model.CategoryBedroom),
			roomCheck(cfg, rec, model.CategoryDrawingRoom),
			roomCheck(cfg, rec, model.CategoryStudyRoom),
		)
	}},
	{4, "Kitchen", func(cfg *Config, rec model.BuildingRecord) Check {
		return roomCheck(cfg, rec, model.CategoryKitchen)
	}},
	{5, "Bathroom Categories", func(cfg *Config, rec model.BuildingRecord) Check {
		return Combine(
			roomCheck(cfg, rec, model.CategoryBathroom),
			roomCheck(cfg, rec, model.CategoryWaterCloset),
			roomCheck(cfg, rec, model.CategoryCombinedBathWC),
		)
	}},
	{6, "Store", func(cfg *Config, rec model.BuildingRecord) Check {
		return roomCheck(cfg, rec, model.CategoryStore)
	}},
	{7, "Staircase", func(cfg *Config, rec model.BuildingRecord) Check {
		return CheckStaircase(cfg.Staircase, rec.Staircases)
	}},
	{8, "Plinth Level", func(cfg *Config, rec model.BuildingRecord) Check {
		return CheckPlinthLevel(cfg.MaxPlinthLevel, rec.HeightPlinth)
	}},
	{9, "Building Height", func(cfg *Config, rec model.BuildingRecord) Check {
		return CheckBuildingHeight(cfg.MaxBuildingHeight, rec.HeightPlinth)
	}},
}

// RuleInfo describes one rule of the table.
type RuleInfo struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Key    string `json:"key"`
}

// Engine evaluates building records. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	cfg   Config
	rules []ruleSpec
}

// NewEngine validates cfg and builds an engine around it.
func NewEngine(cfg Config) (*Engine, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg.Clone(), rules: ruleTable}, nil
}

// Config returns a copy of the rule set the engine evaluates.
func (e *Engine) Config() Config {
	return e.cfg.Clone()
}

// Rules lists the rules in evaluation order.
func (e *Engine) Rules() []RuleInfo {
	out := make([]RuleInfo, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, RuleInfo{Number: r.number, Name: r.name, Key: model.RuleKey(r.number, r.name)})
	}
	return out
}

// ValidateBuilding runs every rule against rec and builds the transcript:
// a map header, one status line per rule followed by its failure details,
// and the final verdict.
func (e *Engine) ValidateBuilding(id string, rec model.BuildingRecord) model.ValidationReport {
	report := model.ValidationReport{
		BuildingID: id,
		Location:   e.cfg.Location,
		Passed:     true,
		Rules:      make([]model.RuleResult, 0, len(e.rules)),
		Logs:       []string{"Map: " + id},
	}

	for _, spec := range e.rules {
		c := e.run(spec, rec)
		result := model.RuleResult{
			Number:   spec.number,
			Name:     spec.name,
			Passed:   c.Passed,
			Logs:     c.Logs,
			Outcomes: c.Outcomes,
		}
		report.Rules = append(report.Rules, result)

		status := "Passed ✅"
		if !c.Passed {
			status = "Failed ❌"
			report.Passed = false
		}
		report.Logs = append(report.Logs, result.Key()+" - "+status)
		for _, line := range c.Logs {
			report.Logs = append(report.Logs, "  - "+line)
		}
	}

	if report.Passed {
		report.Logs = append(report.Logs, "Final Verdict: ✅ Passed All Rules")
	} else {
		report.Logs = append(report.Logs, "Final Verdict: ❌ Failed One or More Rules")
	}
	return report
}

// ValidateAll validates every building, in building id order.
func (e *Engine) ValidateAll(buildings map[string]model.BuildingRecord) []model.ValidationReport {
	ids := make([]string, 0, len(buildings))
	for id := range buildings {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	reports := make([]model.ValidationReport, 0, len(ids))
	for _, id := range ids {
		reports = append(reports, e.ValidateBuilding(id, buildings[id]))
	}
	return reports
}

// run evaluates one rule. A panicking validator becomes a failed rule so
// one bad record cannot abort the whole report.
func (e *Engine) run(spec ruleSpec, rec model.BuildingRecord) (c Check) {
	defer func() {
		if r := recover(); r != nil {
			c = Check{
				Passed: false,
				Logs:   []string{fmt.Sprintf("internal error while evaluating rule: %v", r)},
				Outcomes: []model.RuleOutcome{{
					Rule:          spec.name,
					RecordedValue: "unavailable",
					ExpectedValue: "Evaluable input",
					Status:        model.StatusFail,
					Reason:        "Internal validation error",
				}},
			}
		}
	}()
	return spec.check(&e.cfg, rec)
}
