// Package adapter turns loosely shaped extraction output into building
// records. Wrong-shaped fields are dropped with a diagnostic so a rule sees
// zero instances instead of the whole validation failing.
package adapter

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/MannanGupta05/buildplanwizard/internal/dimension"
	"github.com/MannanGupta05/buildplanwizard/internal/model"
)

// Diagnostic describes input the adapter could not use.
type Diagnostic struct {
	BuildingID string `json:"building_id,omitempty"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.BuildingID == "" {
		return d.Field + ": " + d.Message
	}
	return d.BuildingID + "/" + d.Field + ": " + d.Message
}

// Variable keys read from an extraction dict.
const (
	KeyPlotAreaFAR      = "plot_area_far"
	KeyStaircases       = "riser_treader_width"
	KeyStaircase        = "staircase"
	KeyHeightPlinth     = "height_plinth"
	KeyTotalPlotArea    = "total_plot_area"
	KeyTotalCoveredArea = "total_covered_area"
	KeyStaircaseWidth   = "staircase_width"
	KeyStaircaseTread   = "staircase_tread"
	KeyStaircaseRiser   = "staircase_riser"
	KeyBuildingHeight   = "building_height"
	KeyPlinthHeight     = "plinth_height"
	KeyKitchenOnly      = "kitchen_only"
	keyHeight           = "height"
	keyPlinthLevel      = "plinth level"
	keyPlinthLevelSnake = "plinth_level"
	keyFloor            = "floor"
	keyDimensions       = "dimensions"
)

// placeholders are extractor answers that mean nothing was found.
var placeholders = map[string]bool{
	"":         true,
	"not sure": true,
	"n/a":      true,
	"na":       true,
	"none":     true,
	"null":     true,
	"unknown":  true,
}

// unitSuffix strips a trailing metre or square-metre unit from a number.
var unitSuffix = regexp.MustCompile(`(?i)^\s*([+-]?(?:\d+\.?\d*|\.\d+))\s*(?:m|mtrs?|meters?|metres?|sq\.?\s*m(?:tr)?s?|sqm|m2|m²)\.?\s*$`)

type collector struct {
	id    string
	diags []Diagnostic
}

func (c *collector) add(field, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{BuildingID: c.id, Field: field, Message: fmt.Sprintf(format, args...)})
}

// FromVariables builds a record from one extraction dict. Missing keys mean
// zero instances.
func FromVariables(vars map[string]any) (model.BuildingRecord, []Diagnostic) {
	return fromVariables("", vars)
}

func fromVariables(id string, vars map[string]any) (model.BuildingRecord, []Diagnostic) {
	c := &collector{id: id}
	rec := model.BuildingRecord{Rooms: make(map[string][]model.RoomEntry)}

	for _, cat := range model.RoomCategories {
		if v, ok := vars[cat]; ok {
			rec.Rooms[cat] = c.rooms(cat, v)
		}
	}
	if len(rec.Rooms[model.CategoryKitchen]) == 0 {
		if v, ok := vars[KeyKitchenOnly]; ok {
			rec.Rooms[model.CategoryKitchen] = c.rooms(KeyKitchenOnly, v)
		}
	}

	if v, ok := vars[KeyPlotAreaFAR]; ok {
		rec.PlotAreaFAR = c.areas(v)
	}
	if len(rec.PlotAreaFAR) == 0 && (has(vars, KeyTotalPlotArea) || has(vars, KeyTotalCoveredArea)) {
		if entry, ok := c.area(vars); ok {
			rec.PlotAreaFAR = []model.AreaEntry{entry}
		}
	}

	if v, ok := vars[KeyStaircases]; ok {
		rec.Staircases = c.staircases(KeyStaircases, v)
	}
	if len(rec.Staircases) == 0 {
		if v, ok := vars[KeyStaircase]; ok {
			rec.Staircases = c.staircases(KeyStaircase, v)
		}
	}
	if len(rec.Staircases) == 0 && (has(vars, KeyStaircaseWidth) || has(vars, KeyStaircaseTread) || has(vars, KeyStaircaseRiser)) {
		rec.Staircases = []model.StaircaseEntry{{
			Width: c.measure(KeyStaircaseWidth, vars[KeyStaircaseWidth]),
			Tread: c.measure(KeyStaircaseTread, vars[KeyStaircaseTread]),
			Riser: c.measure(KeyStaircaseRiser, vars[KeyStaircaseRiser]),
		}}
	}

	if v, ok := vars[KeyHeightPlinth]; ok {
		rec.HeightPlinth = c.heights(v)
	}
	if len(rec.HeightPlinth) == 0 && (has(vars, KeyBuildingHeight) || has(vars, KeyPlinthHeight)) {
		rec.HeightPlinth = []model.HeightPlinthEntry{{
			Height: c.measure(KeyBuildingHeight, vars[KeyBuildingHeight]),
			Plinth: c.measure(KeyPlinthHeight, vars[KeyPlinthHeight]),
		}}
	}

	return rec, c.diags
}

func has(vars map[string]any, key string) bool {
	_, ok := vars[key]
	return ok
}

// rooms accepts a list of [tokens, floor] pairs or {dimensions, floor}
// objects, a bare list of tokens, or a single token.
func (c *collector) rooms(field string, v any) []model.RoomEntry {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return []model.RoomEntry{{Tokens: []string{val}}}
	case map[string]any:
		if e, ok := c.roomObject(field, val); ok {
			return []model.RoomEntry{e}
		}
		return nil
	case []any:
		if allStrings(val) {
			if len(val) == 0 {
				return nil
			}
			return []model.RoomEntry{{Tokens: c.tokens(field, val)}}
		}
		var out []model.RoomEntry
		for i, item := range val {
			switch it := item.(type) {
			case []any:
				if len(it) == 0 {
					continue
				}
				e := model.RoomEntry{Tokens: c.tokens(field, it[0])}
				if len(it) > 1 {
					e.Floor = c.floor(field, it[1])
				}
				if len(it) > 2 {
					c.add(field, "entry %d has %d elements, extra ignored", i, len(it))
				}
				out = append(out, e)
			case map[string]any:
				if e, ok := c.roomObject(field, it); ok {
					out = append(out, e)
				}
			case string:
				out = append(out, model.RoomEntry{Tokens: []string{it}})
			default:
				c.add(field, "entry %d has unsupported type %T", i, item)
			}
		}
		return out
	default:
		c.add(field, "unsupported type %T", v)
		return nil
	}
}

func (c *collector) roomObject(field string, m map[string]any) (model.RoomEntry, bool) {
	raw, ok := m[keyDimensions]
	if !ok {
		c.add(field, "entry has no %q key", keyDimensions)
		return model.RoomEntry{}, false
	}
	return model.RoomEntry{Tokens: c.tokens(field, raw), Floor: c.floor(field, m[keyFloor])}, true
}

// tokens flattens nested token lists, keeping only strings.
func (c *collector) tokens(field string, v any) []string {
	var out []string
	var walk func(any)
	walk = func(x any) {
		switch t := x.(type) {
		case string:
			out = append(out, t)
		case []any:
			for _, item := range t {
				walk(item)
			}
		case nil:
		default:
			c.add(field, "dimension token of type %T ignored", x)
		}
	}
	walk(v)
	return out
}

func (c *collector) floor(field string, v any) string {
	switch f := v.(type) {
	case nil:
		return ""
	case string:
		return f
	case []any:
		if len(f) == 0 {
			return ""
		}
		return c.floor(field, f[0])
	case float64:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		c.add(field, "floor of type %T ignored", v)
		return ""
	}
}

func (c *collector) areas(v any) []model.AreaEntry {
	var items []any
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		items = []any{val}
	case []any:
		items = val
	default:
		c.add(KeyPlotAreaFAR, "unsupported type %T", v)
		return nil
	}

	var out []model.AreaEntry
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			c.add(KeyPlotAreaFAR, "entry %d is %T, not an object", i, item)
			continue
		}
		if entry, ok := c.area(m); ok {
			out = append(out, entry)
		}
	}
	return out
}

// area reads both areas from m. A key that is missing counts as zero; a
// supplied value that is not a number drops the whole entry.
func (c *collector) area(m map[string]any) (model.AreaEntry, bool) {
	plot, plotOK := c.number(KeyTotalPlotArea, m[KeyTotalPlotArea])
	covered, coveredOK := c.number(KeyTotalCoveredArea, m[KeyTotalCoveredArea])
	if !plotOK || !coveredOK {
		c.add(KeyPlotAreaFAR, "area entry dropped")
		return model.AreaEntry{}, false
	}
	return model.AreaEntry{PlotArea: plot, CoveredArea: covered}, true
}

func (c *collector) staircases(field string, v any) []model.StaircaseEntry {
	var items []any
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		items = []any{val}
	case []any:
		items = val
	default:
		c.add(field, "unsupported type %T", v)
		return nil
	}

	var out []model.StaircaseEntry
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			c.add(field, "entry %d is %T, not an object", i, item)
			continue
		}
		out = append(out, model.StaircaseEntry{
			Width: c.measure(KeyStaircaseWidth, m[KeyStaircaseWidth]),
			Tread: c.measure(KeyStaircaseTread, m[KeyStaircaseTread]),
			Riser: c.measure(KeyStaircaseRiser, m[KeyStaircaseRiser]),
			Floor: c.floor(field, m[keyFloor]),
		})
	}
	return out
}

func (c *collector) heights(v any) []model.HeightPlinthEntry {
	var items []any
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		items = []any{val}
	case []any:
		items = val
	default:
		c.add(KeyHeightPlinth, "unsupported type %T", v)
		return nil
	}

	var out []model.HeightPlinthEntry
	for i, item := range items {
		switch it := item.(type) {
		case map[string]any:
			plinth, ok := it[keyPlinthLevel]
			if !ok {
				plinth = it[keyPlinthLevelSnake]
			}
			out = append(out, model.HeightPlinthEntry{
				Height: c.measure(keyHeight, it[keyHeight]),
				Plinth: c.measure(keyPlinthLevel, plinth),
			})
		case string:
			c.add(KeyHeightPlinth, "entry %d is a legacy summary string, dropped", i)
		default:
			c.add(KeyHeightPlinth, "entry %d is %T, not an object", i, item)
		}
	}
	return out
}

// measure reduces a one-element list, number or string to the raw string a
// validator parses. Missing values and extractor placeholders become the
// absent sentinel; a trailing metre unit is dropped.
func (c *collector) measure(field string, v any) string {
	switch val := v.(type) {
	case nil:
		return dimension.AbsentToken
	case string:
		s := strings.TrimSpace(val)
		if placeholders[strings.ToLower(s)] {
			return dimension.AbsentToken
		}
		if m := unitSuffix.FindStringSubmatch(s); m != nil {
			return m[1]
		}
		return s
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		if len(val) == 0 {
			return dimension.AbsentToken
		}
		if len(val) > 1 {
			c.add(field, "%d values given, using the first", len(val))
		}
		return c.measure(field, val[0])
	default:
		c.add(field, "unsupported type %T, treated as absent", v)
		return dimension.AbsentToken
	}
}

// number reads an area. A nil value is missing and reads as zero. Anything
// else that is not a finite number is reported and returns false.
func (c *collector) number(field string, v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			c.add(field, "non-finite value")
			return 0, false
		}
		return val, true
	case string:
		s := strings.TrimSpace(val)
		if placeholders[strings.ToLower(s)] {
			c.add(field, "placeholder %q", val)
			return 0, false
		}
		if m := unitSuffix.FindStringSubmatch(s); m != nil {
			s = m[1]
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			c.add(field, "non-numeric value %q", val)
			return 0, false
		}
		return f, true
	case []any:
		if len(val) == 0 {
			c.add(field, "empty list")
			return 0, false
		}
		if len(val) > 1 {
			c.add(field, "%d values given, using the first", len(val))
		}
		return c.number(field, val[0])
	default:
		c.add(field, "unsupported type %T", v)
		return 0, false
	}
}

func allStrings(items []any) bool {
	for _, item := range items {
		if _, ok := item.(string); !ok {
			return false
		}
	}
	return true
}
