package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/MannanGupta05/buildplanwizard/internal/model"
)

// Sheet names in an exported workbook.
const (
	SummarySheet  = "Summary"
	OutcomesSheet = "Outcomes"
)

var (
	summaryHeader  = []string{"Building", "Location", "Verdict", "Rules Passed", "Rules Total"}
	outcomesHeader = []string{"Building", "Rule", "Check", "Floor", "Recorded", "Expected", "Status", "Reason"}
)

// BuildWorkbook lays out reports as a summary sheet and an outcome sheet
// with one row per validated instance.
func BuildWorkbook(reports []model.ValidationReport) (*xlsx.File, error) {
	f := xlsx.NewFile()

	summary, err := f.AddSheet(SummarySheet)
	if err != nil {
		return nil, eris.Wrap(err, "report: add summary sheet")
	}
	outcomes, err := f.AddSheet(OutcomesSheet)
	if err != nil {
		return nil, eris.Wrap(err, "report: add outcomes sheet")
	}

	addStringRow(summary, summaryHeader)
	addStringRow(outcomes, outcomesHeader)

	for _, r := range reports {
		s := Summarize(r)
		row := summary.AddRow()
		row.AddCell().SetString(s.BuildingID)
		row.AddCell().SetString(s.Location)
		row.AddCell().SetString(string(s.Verdict))
		row.AddCell().SetInt(s.RulesPassed)
		row.AddCell().SetInt(s.RulesTotal)

		for _, rule := range r.Rules {
			for _, o := range rule.Outcomes {
				row := outcomes.AddRow()
				row.AddCell().SetString(r.BuildingID)
				row.AddCell().SetString(rule.Key())
				row.AddCell().SetString(o.Rule)
				row.AddCell().SetString(o.Floor)
				setValue(row.AddCell(), o.RecordedValue)
				row.AddCell().SetString(o.ExpectedValue)
				row.AddCell().SetString(string(o.Status))
				row.AddCell().SetString(o.Reason)
			}
		}
	}
	return f, nil
}

// WriteXLSX saves the workbook for reports to path.
func WriteXLSX(path string, reports []model.ValidationReport) error {
	f, err := BuildWorkbook(reports)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

// EncodeXLSX streams the workbook for reports to w.
func EncodeXLSX(w io.Writer, reports []model.ValidationReport) error {
	f, err := BuildWorkbook(reports)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write xlsx")
	}
	return nil
}

func addStringRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func setValue(cell *xlsx.Cell, v any) {
	switch val := v.(type) {
	case float64:
		cell.SetFloat(val)
	case string:
		cell.SetString(val)
	case nil:
		cell.SetString("")
	default:
		cell.SetValue(val)
	}
}
