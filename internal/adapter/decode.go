package adapter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/MannanGupta05/buildplanwizard/internal/model"
)

// DefaultBuildingID names the building of a flat variable dict when no
// better id is known.
const DefaultBuildingID = "building_plan"

// Shape is the layout of a staged extraction file.
type Shape string

const (
	// ShapeBuildingMap is {building id: [ {variables} ]}; element 0 is used.
	ShapeBuildingMap Shape = "building_map"
	// ShapeFlat is a single variable dict for one building.
	ShapeFlat Shape = "flat"
)

// Batch is the decoded content of one input.
type Batch struct {
	Shape       Shape
	Buildings   map[string]model.BuildingRecord
	Diagnostics []Diagnostic
}

// IDs returns the building ids in the batch.
func (b Batch) IDs() []string {
	ids := make([]string, 0, len(b.Buildings))
	for id := range b.Buildings {
		ids = append(ids, id)
	}
	return ids
}

// DecodeOptions controls shape detection.
type DecodeOptions struct {
	// DefaultID names the building of a flat dict.
	DefaultID string
	// ForceFlat skips detection and reads the input as a flat dict.
	ForceFlat bool
}

// Decode reads JSON extraction output of either shape.
func Decode(data []byte, opts DecodeOptions) (Batch, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Batch{}, eris.Wrap(err, "adapter: decode json")
	}
	if raw == nil {
		return Batch{}, eris.New("adapter: input is not a JSON object")
	}

	if opts.ForceFlat || DetectShape(raw) == ShapeFlat {
		return DecodeFlat(raw, opts.DefaultID), nil
	}
	return DecodeBuildingMap(raw), nil
}

// DecodeFlat reads one variable dict as a single building.
func DecodeFlat(vars map[string]any, id string) Batch {
	if id == "" {
		id = DefaultBuildingID
	}
	rec, diags := fromVariables(id, vars)
	return Batch{
		Shape:       ShapeFlat,
		Buildings:   map[string]model.BuildingRecord{id: rec},
		Diagnostics: diags,
	}
}

// DecodeBuildingMap reads {id: [ {variables}, ... ]}. Only the first
// variable dict of each building is used.
func DecodeBuildingMap(raw map[string]any) Batch {
	b := Batch{Shape: ShapeBuildingMap, Buildings: make(map[string]model.BuildingRecord, len(raw))}

	for id, v := range raw {
		var vars map[string]any
		switch val := v.(type) {
		case map[string]any:
			vars = val
		case []any:
			if len(val) == 0 {
				b.Diagnostics = append(b.Diagnostics, Diagnostic{BuildingID: id, Field: id, Message: "no variable dict, building has no data"})
				break
			}
			m, ok := val[0].(map[string]any)
			if !ok {
				b.Diagnostics = append(b.Diagnostics, Diagnostic{BuildingID: id, Field: id, Message: "first element is not an object, building has no data"})
				break
			}
			vars = m
			if len(val) > 1 {
				b.Diagnostics = append(b.Diagnostics, Diagnostic{BuildingID: id, Field: id, Message: "more than one variable dict, using the first"})
			}
		default:
			b.Diagnostics = append(b.Diagnostics, Diagnostic{BuildingID: id, Field: id, Message: "unsupported building value, building has no data"})
		}

		rec, diags := fromVariables(id, vars)
		b.Buildings[id] = rec
		b.Diagnostics = append(b.Diagnostics, diags...)
	}
	return b
}

// DetectShape reports whether raw is a building map or a flat dict. Any
// known variable key at the top level makes it flat.
func DetectShape(raw map[string]any) Shape {
	for key := range raw {
		if knownVariable(key) {
			return ShapeFlat
		}
	}
	for _, v := range raw {
		switch val := v.(type) {
		case map[string]any:
		case []any:
			if len(val) > 0 {
				if _, ok := val[0].(map[string]any); !ok {
					return ShapeFlat
				}
			}
		default:
			return ShapeFlat
		}
	}
	return ShapeBuildingMap
}

var variableKeys = map[string]bool{
	KeyPlotAreaFAR:      true,
	KeyStaircases:       true,
	KeyStaircase:        true,
	KeyHeightPlinth:     true,
	KeyTotalPlotArea:    true,
	KeyTotalCoveredArea: true,
	KeyStaircaseWidth:   true,
	KeyStaircaseTread:   true,
	KeyStaircaseRiser:   true,
	KeyBuildingHeight:   true,
	KeyPlinthHeight:     true,
	KeyKitchenOnly:      true,
}

func knownVariable(key string) bool {
	if variableKeys[key] {
		return true
	}
	for _, cat := range model.RoomCategories {
		if key == cat {
			return true
		}
	}
	return false
}

// LoadFile decodes a staged extraction file. A flat dict is named after
// the file.
func LoadFile(path string, forceFlat bool) (Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Batch{}, eris.Wrapf(err, "adapter: read %s", path)
	}
	b, err := Decode(data, DecodeOptions{DefaultID: IDFromPath(path), ForceFlat: forceFlat})
	if err != nil {
		return Batch{}, eris.Wrapf(err, "adapter: load %s", path)
	}
	return b, nil
}

// IDFromPath derives a building id from a file name without extension.
func IDFromPath(path string) string {
	base := filepath.Base(path)
	id := strings.TrimSuffix(base, filepath.Ext(base))
	if id == "" || id == "." {
		return DefaultBuildingID
	}
	return id
}
