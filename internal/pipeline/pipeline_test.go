package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MannanGupta05/buildplanwizard/internal/adapter"
	"github.com/MannanGupta05/buildplanwizard/internal/metrics"
	"github.com/MannanGupta05/buildplanwizard/internal/model"
	"github.com/MannanGupta05/buildplanwizard/internal/rules"
	storemocks "github.com/MannanGupta05/buildplanwizard/internal/store/mocks"
)

func newEngine(t *testing.T) *rules.Engine {
	t.Helper()
	e, err := rules.NewEngine(rules.DefaultConfig())
	require.NoError(t, err)
	return e
}

func sampleBatch() adapter.Batch {
	return adapter.Batch{
		Shape: adapter.ShapeBuildingMap,
		Buildings: map[string]model.BuildingRecord{
			"plan_ok": {PlotAreaFAR: []model.AreaEntry{{PlotArea: 100, CoveredArea: 60}}},
			"plan_bad": {
				PlotAreaFAR: []model.AreaEntry{{PlotArea: 167.22, CoveredArea: 131.5}},
			},
		},
		Diagnostics: []adapter.Diagnostic{{BuildingID: "plan_bad", Field: "kitchen", Message: "unparseable"}},
	}
}

func TestValidate_NoSave(t *testing.T) {
	p := New(newEngine(t), nil, nil)

	res, err := p.Validate(context.Background(), "api", sampleBatch(), false)
	require.NoError(t, err)
	require.Len(t, res.Reports, 2)
	assert.Equal(t, "plan_bad", res.Reports[0].BuildingID)
	assert.False(t, res.Reports[0].Passed)
	assert.True(t, res.Reports[1].Passed)
	assert.Len(t, res.Diagnostics, 1)
	assert.Empty(t, res.RunIDs)
}

func TestValidate_SaveWithoutStore(t *testing.T) {
	p := New(newEngine(t), nil, nil)

	_, err := p.Validate(context.Background(), "api", sampleBatch(), true)
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestValidate_Archives(t *testing.T) {
	st := storemocks.NewMockStore(t)
	st.On("SaveRun", mock.Anything, mock.MatchedBy(func(r *model.Run) bool {
		return r.Source == "batch.json"
	})).Run(func(args mock.Arguments) {
		r := args.Get(1).(*model.Run)
		r.ID = "run-" + r.BuildingID
	}).Return(nil).Twice()

	p := New(newEngine(t), st, nil)
	res, err := p.Validate(context.Background(), "batch.json", sampleBatch(), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-plan_bad", "run-plan_ok"}, res.RunIDs)
}

func TestValidate_SaveError(t *testing.T) {
	st := storemocks.NewMockStore(t)
	st.On("SaveRun", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	p := New(newEngine(t), st, nil)
	res, err := p.Validate(context.Background(), "batch.json", sampleBatch(), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline: save run for plan_bad")
	require.NotNil(t, res)
	assert.Len(t, res.Reports, 2)
	assert.Empty(t, res.RunIDs)
}

func TestValidate_RecordsMetrics(t *testing.T) {
	rec := metrics.NewRecorder()
	p := New(newEngine(t), nil, rec)

	_, err := p.Validate(context.Background(), "api", sampleBatch(), false)
	require.NoError(t, err)

	families, err := rec.Registry().Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["planwizard_buildings_validated_total"])
	assert.True(t, names["planwizard_rule_outcomes_total"])
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site_42.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"total_plot_area": 100, "total_covered_area": 60}`), 0o644))

	p := New(newEngine(t), nil, nil)
	res, err := p.ValidateFile(context.Background(), path, false, false)
	require.NoError(t, err)
	require.Len(t, res.Reports, 1)
	assert.Equal(t, "site_42", res.Reports[0].BuildingID)
	assert.True(t, res.Reports[0].Passed)
	assert.Equal(t, path, res.Source)
}

func TestValidateFile_Missing(t *testing.T) {
	p := New(newEngine(t), nil, metrics.NewRecorder())
	_, err := p.ValidateFile(context.Background(), filepath.Join(t.TempDir(), "nope.json"), false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adapter: read")
}

func TestMerge_LaterWins(t *testing.T) {
	first := &Result{Source: "a.json", Reports: []model.ValidationReport{
		{BuildingID: "x", Passed: true},
		{BuildingID: "z", Passed: true},
	}}
	second := &Result{Source: "b.json", Reports: []model.ValidationReport{
		{BuildingID: "x", Passed: false},
		{BuildingID: "m", Passed: true},
	}}

	merged := Merge(first, nil, second)
	require.Len(t, merged, 3)
	assert.Equal(t, []string{"m", "x", "z"}, []string{merged[0].BuildingID, merged[1].BuildingID, merged[2].BuildingID})
	assert.False(t, merged[1].Passed)
}

func TestDiagnostics(t *testing.T) {
	a := &Result{Diagnostics: []adapter.Diagnostic{{Field: "a", Message: "1"}}}
	b := &Result{Diagnostics: []adapter.Diagnostic{{Field: "b", Message: "2"}}}
	got := Diagnostics(a, nil, b)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].Field)
}

func TestValidate_RetriesBusyStore(t *testing.T) {
	st := storemocks.NewMockStore(t)
	st.On("SaveRun", mock.Anything, mock.Anything).Return(errors.New("database is locked")).Once()
	st.On("SaveRun", mock.Anything, mock.Anything).Return(nil).Twice()

	p := New(newEngine(t), st, nil)
	res, err := p.Validate(context.Background(), "batch.json", sampleBatch(), true)
	require.NoError(t, err)
	assert.Len(t, res.RunIDs, 2)
}

func TestValidate_UnusableAreaIsNotAVerdict(t *testing.T) {
	p := New(newEngine(t), nil, nil)

	inputs := map[string]map[string]any{
		"placeholder plot": {
			adapter.KeyPlotAreaFAR: []any{map[string]any{
				adapter.KeyTotalPlotArea:    []any{"Not Sure"},
				adapter.KeyTotalCoveredArea: []any{120.0},
			}},
		},
		"non-numeric covered": {
			adapter.KeyTotalPlotArea:    "100",
			adapter.KeyTotalCoveredArea: "abc",
		},
	}
	for name, vars := range inputs {
		t.Run(name, func(t *testing.T) {
			res, err := p.Validate(context.Background(), "api", adapter.DecodeFlat(vars, "plan"), false)
			require.NoError(t, err)
			require.Len(t, res.Reports, 1)
			report := res.Reports[0]
			assert.True(t, report.Passed)
			assert.True(t, report.Rules[0].Passed)
			assert.Empty(t, report.Rules[0].Outcomes)
			assert.True(t, report.Rules[1].Passed)
			assert.Empty(t, report.Rules[1].Outcomes)
			assert.NotEmpty(t, res.Diagnostics)
		})
	}
}
