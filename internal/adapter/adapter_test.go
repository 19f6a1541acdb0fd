package adapter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MannanGupta05/buildplanwizard/internal/dimension"
	"github.com/MannanGupta05/buildplanwizard/internal/model"
)

func vars(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestFromVariablesRooms(t *testing.T) {
	rec, diags := FromVariables(vars(t, `{
		"bedroom": [[["10'x10'", "11'x12'"], "GROUND"], [["absent"], ["FIRST"]]],
		"kitchen": [{"dimensions": "8'x10'", "floor": "GROUND"}],
		"store": ["1.2x2.5"],
		"bathroom": "5'x7'",
		"water_closet": [[[["3'x4'"], ["4'x5'"]], "GROUND"]]
	}`))
	assert.Empty(t, diags)

	bed := rec.RoomEntries(model.CategoryBedroom)
	require.Len(t, bed, 2)
	assert.Equal(t, []string{"10'x10'", "11'x12'"}, bed[0].Tokens)
	assert.Equal(t, "GROUND", bed[0].Floor)
	assert.Equal(t, "FIRST", bed[1].Floor)

	kitchen := rec.RoomEntries(model.CategoryKitchen)
	require.Len(t, kitchen, 1)
	assert.Equal(t, []string{"8'x10'"}, kitchen[0].Tokens)

	assert.Equal(t, []model.RoomEntry{{Tokens: []string{"1.2x2.5"}}}, rec.RoomEntries(model.CategoryStore))
	assert.Equal(t, []model.RoomEntry{{Tokens: []string{"5'x7'"}}}, rec.RoomEntries(model.CategoryBathroom))
	assert.Equal(t, []string{"3'x4'", "4'x5'"}, rec.RoomEntries(model.CategoryWaterCloset)[0].Tokens)

	assert.Empty(t, rec.RoomEntries(model.CategoryStudyRoom))
}

func TestFromVariablesKitchenOnly(t *testing.T) {
	rec, _ := FromVariables(vars(t, `{"kitchen_only": [[["9'x10'"], "GROUND"]]}`))
	require.Len(t, rec.RoomEntries(model.CategoryKitchen), 1)

	// An explicit kitchen wins
	rec, _ = FromVariables(vars(t, `{"kitchen": [[["8'x8'"], "G"]], "kitchen_only": [[["9'x10'"], "G"]]}`))
	assert.Equal(t, []string{"8'x8'"}, rec.RoomEntries(model.CategoryKitchen)[0].Tokens)
}

func TestFromVariablesWrongShapes(t *testing.T) {
	rec, diags := FromVariables(vars(t, `{
		"bedroom": 42,
		"plot_area_far": "lots",
		"riser_treader_width": [7],
		"height_plinth": ["Plinth: 0.45, Building: 9.5"]
	}`))

	assert.True(t, rec.IsEmpty())
	require.Len(t, diags, 4)
	fields := make([]string, 0, len(diags))
	for _, d := range diags {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"bedroom", "plot_area_far", "riser_treader_width", "height_plinth"}, fields)
}

func TestFromVariablesAreas(t *testing.T) {
	rec, diags := FromVariables(vars(t, `{
		"plot_area_far": [{"total_plot_area": [100], "total_covered_area": [60]}, {"total_plot_area": "168.83 sq m"}]
	}`))
	assert.Empty(t, diags)
	require.Len(t, rec.PlotAreaFAR, 2)
	assert.Equal(t, model.AreaEntry{PlotArea: 100, CoveredArea: 60}, rec.PlotAreaFAR[0])
	assert.InDelta(t, 168.83, rec.PlotAreaFAR[1].PlotArea, 1e-9)
	assert.Zero(t, rec.PlotAreaFAR[1].CoveredArea)
}

func TestFromVariablesFlatAreas(t *testing.T) {
	rec, diags := FromVariables(vars(t, `{"total_plot_area": 167.22, "total_covered_area": "100.5 sqm"}`))
	assert.Empty(t, diags)
	require.Len(t, rec.PlotAreaFAR, 1)
	assert.InDelta(t, 167.22, rec.PlotAreaFAR[0].PlotArea, 1e-9)
	assert.InDelta(t, 100.5, rec.PlotAreaFAR[0].CoveredArea, 1e-9)

	rec, diags = FromVariables(vars(t, `{"total_plot_area": 167.22}`))
	assert.Empty(t, diags)
	assert.Equal(t, []model.AreaEntry{{PlotArea: 167.22}}, rec.PlotAreaFAR)
}

func TestFromVariablesUnusableAreasDropped(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"placeholder plot area", `{"plot_area_far": [{"total_plot_area": ["Not Sure"], "total_covered_area": [120]}]}`, KeyTotalPlotArea},
		{"non-numeric covered area", `{"plot_area_far": [{"total_plot_area": [200], "total_covered_area": ["abc"]}]}`, KeyTotalCoveredArea},
		{"empty plot list", `{"plot_area_far": [{"total_plot_area": [], "total_covered_area": [120]}]}`, KeyTotalPlotArea},
		{"flat placeholder plot area", `{"total_plot_area": "Not Sure", "total_covered_area": "120"}`, KeyTotalPlotArea},
		{"flat non-numeric covered area", `{"total_plot_area": 167.22, "total_covered_area": "abc"}`, KeyTotalCoveredArea},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, diags := FromVariables(vars(t, tt.input))
			assert.Empty(t, rec.PlotAreaFAR)
			require.Len(t, diags, 2)
			assert.Equal(t, tt.field, diags[0].Field)
			assert.Equal(t, KeyPlotAreaFAR, diags[1].Field)
		})
	}
}

func TestFromVariablesUnusableAreaKeepsOthers(t *testing.T) {
	rec, diags := FromVariables(vars(t, `{
		"plot_area_far": [{"total_plot_area": ["n/a"]}, {"total_plot_area": [100], "total_covered_area": [60]}]
	}`))
	assert.Equal(t, []model.AreaEntry{{PlotArea: 100, CoveredArea: 60}}, rec.PlotAreaFAR)
	assert.Len(t, diags, 2)
}

func TestFromVariablesStaircase(t *testing.T) {
	rec, diags := FromVariables(vars(t, `{
		"riser_treader_width": [
			{"staircase_width": ["0.95"], "staircase_tread": [0.3], "staircase_riser": ["0.17m"], "floor": ["GROUND"]},
			{"staircase_width": ["Not Sure"]}
		]
	}`))
	assert.Empty(t, diags)
	require.Len(t, rec.Staircases, 2)
	assert.Equal(t, model.StaircaseEntry{Width: "0.95", Tread: "0.3", Riser: "0.17", Floor: "GROUND"}, rec.Staircases[0])
	assert.Equal(t, dimension.AbsentToken, rec.Staircases[1].Width)
	assert.Equal(t, dimension.AbsentToken, rec.Staircases[1].Riser)
}

func TestFromVariablesFlatStaircase(t *testing.T) {
	rec, _ := FromVariables(vars(t, `{"staircase_width": ["1.2m"], "staircase_tread": ["0.25m"], "staircase_riser": ["abc"]}`))
	require.Len(t, rec.Staircases, 1)
	assert.Equal(t, "1.2", rec.Staircases[0].Width)
	assert.Equal(t, "0.25", rec.Staircases[0].Tread)
	assert.Equal(t, "abc", rec.Staircases[0].Riser)

	rec, _ = FromVariables(vars(t, `{"staircase": {"staircase_width": ["1.0"], "staircase_tread": ["0.28"], "staircase_riser": ["0.18"]}}`))
	require.Len(t, rec.Staircases, 1)
	assert.Equal(t, "1.0", rec.Staircases[0].Width)
}

func TestFromVariablesHeightPlinth(t *testing.T) {
	rec, diags := FromVariables(vars(t, `{"height_plinth": [{"height": ["7.60"], "plinth level": ["0.46"]}, {"height": "9", "plinth_level": "0.5"}]}`))
	assert.Empty(t, diags)
	assert.Equal(t, []model.HeightPlinthEntry{
		{Height: "7.60", Plinth: "0.46"},
		{Height: "9", Plinth: "0.5"},
	}, rec.HeightPlinth)

	rec, _ = FromVariables(vars(t, `{"building_height": ["10.5 m"], "plinth_height": ["Not Sure"]}`))
	assert.Equal(t, []model.HeightPlinthEntry{{Height: "10.5", Plinth: dimension.AbsentToken}}, rec.HeightPlinth)
}

func TestFromVariablesMultipleValuesDiagnosed(t *testing.T) {
	rec, diags := FromVariables(vars(t, `{"height_plinth": [{"height": ["7.6", "8.0"], "plinth level": ["0.46"]}]}`))
	assert.Equal(t, "7.6", rec.HeightPlinth[0].Height)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "using the first")
}

func TestFromVariablesEmpty(t *testing.T) {
	rec, diags := FromVariables(map[string]any{})
	assert.True(t, rec.IsEmpty())
	assert.Empty(t, diags)

	rec, _ = FromVariables(nil)
	assert.True(t, rec.IsEmpty())
}

func TestDiagnosticString(t *testing.T) {
	assert.Equal(t, "bedroom: bad", Diagnostic{Field: "bedroom", Message: "bad"}.String())
	assert.Equal(t, "p1/bedroom: bad", Diagnostic{BuildingID: "p1", Field: "bedroom", Message: "bad"}.String())
}

func TestDecodeBuildingMap(t *testing.T) {
	b, err := Decode([]byte(`{
		"plan_a": [{"bedroom": [[["11'x12'"], "GROUND"]], "plot_area_far": [{"total_plot_area": [100], "total_covered_area": [60]}]}],
		"plan_b": [],
		"plan_c": [{"store": [[["1x1"], "G"]]}, {"store": []}]
	}`), DecodeOptions{})
	require.NoError(t, err)

	assert.Equal(t, ShapeBuildingMap, b.Shape)
	assert.ElementsMatch(t, []string{"plan_a", "plan_b", "plan_c"}, b.IDs())
	assert.Len(t, b.Buildings["plan_a"].PlotAreaFAR, 1)
	assert.True(t, b.Buildings["plan_b"].IsEmpty())
	assert.Len(t, b.Buildings["plan_c"].RoomEntries(model.CategoryStore), 1)

	require.Len(t, b.Diagnostics, 2)
	for _, d := range b.Diagnostics {
		assert.Contains(t, []string{"plan_b", "plan_c"}, d.BuildingID)
	}
}

func TestDecodeFlat(t *testing.T) {
	b, err := Decode([]byte(`{"bedroom": [[["10'x10'"], "GROUND"]], "total_plot_area": 100}`), DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, ShapeFlat, b.Shape)
	assert.Equal(t, []string{DefaultBuildingID}, b.IDs())

	b, err = Decode([]byte(`{"bedroom": []}`), DecodeOptions{DefaultID: "house-7"})
	require.NoError(t, err)
	assert.Equal(t, []string{"house-7"}, b.IDs())
}

func TestDecodeForceFlat(t *testing.T) {
	// Without force this would be a building map with one building
	b, err := Decode([]byte(`{"mystery": [{"x": 1}]}`), DecodeOptions{ForceFlat: true, DefaultID: "f"})
	require.NoError(t, err)
	assert.Equal(t, ShapeFlat, b.Shape)
	assert.Equal(t, []string{"f"}, b.IDs())
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`[1, 2]`), DecodeOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adapter: decode json")

	_, err = Decode([]byte(`null`), DecodeOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a JSON object")
}

func TestDetectShape(t *testing.T) {
	assert.Equal(t, ShapeBuildingMap, DetectShape(vars(t, `{"a": [{"bedroom": []}], "b": {"kitchen": []}}`)))
	assert.Equal(t, ShapeFlat, DetectShape(vars(t, `{"kitchen": []}`)))
	assert.Equal(t, ShapeFlat, DetectShape(vars(t, `{"a": ["x"]}`)))
	assert.Equal(t, ShapeFlat, DetectShape(vars(t, `{"a": 3}`)))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan_42.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"store": [[["1.2x2.5"], "GROUND"]]}`), 0o644))

	b, err := LoadFile(path, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"plan_42"}, b.IDs())

	_, err = LoadFile(filepath.Join(dir, "missing.json"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adapter: read")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{oops`), 0o644))
	_, err = LoadFile(bad, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adapter: load")
}

func TestIDFromPath(t *testing.T) {
	assert.Equal(t, "plan", IDFromPath("/tmp/staging/plan.json"))
	assert.Equal(t, "plan.v2", IDFromPath("plan.v2.json"))
	assert.Equal(t, DefaultBuildingID, IDFromPath(".json"))
}
