package rules

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/MannanGupta05/buildplanwizard/internal/coverage"
	"github.com/MannanGupta05/buildplanwizard/internal/model"
)

// RoomRule sets the minimum floor area and clear width for a room category.
type RoomRule struct {
	Label    string  `yaml:"label,omitempty" json:"label,omitempty"`
	MinArea  float64 `yaml:"min_area_m2" json:"min_area_m2"`
	MinWidth float64 `yaml:"min_width_m" json:"min_width_m"`
}

// StaircaseRule holds the staircase ergonomics limits in meters.
type StaircaseRule struct {
	MinWidth float64 `yaml:"min_width_m" json:"min_width_m"`
	MinTread float64 `yaml:"min_tread_m" json:"min_tread_m"`
	MaxRiser float64 `yaml:"max_riser_m" json:"max_riser_m"`
}

// Config is a complete rule set. The compiled-in municipal values come from
// DefaultConfig; rule set files override them per jurisdiction.
type Config struct {
	Location          string              `yaml:"location,omitempty" json:"location,omitempty"`
	Rooms             map[string]RoomRule `yaml:"room_thresholds" json:"room_thresholds"`
	Staircase         StaircaseRule       `yaml:"staircase" json:"staircase"`
	MaxPlinthLevel    float64             `yaml:"max_plinth_level_m" json:"max_plinth_level_m"`
	MaxBuildingHeight float64             `yaml:"max_building_height_m" json:"max_building_height_m"`
	FARMultiplier     float64             `yaml:"far_multiplier" json:"far_multiplier"`
	Coverage          coverage.Schedule   `yaml:"coverage" json:"coverage"`
}

// Clone returns a copy of c that shares no maps or slices with it.
func (c Config) Clone() Config {
	c.Rooms = maps.Clone(c.Rooms)
	c.Coverage.Tiers = slices.Clone(c.Coverage.Tiers)
	return c
}

// DefaultConfig returns the municipal rule set.
func DefaultConfig() Config {
	return Config{
		Rooms: map[string]RoomRule{
			model.CategoryBedroom:        {Label: "Bedroom", MinArea: 9.5, MinWidth: 2.4},
			model.CategoryDrawingRoom:    {Label: "Drawing Room", MinArea: 9.5, MinWidth: 2.4},
			model.CategoryStudyRoom:      {Label: "Study Room", MinArea: 9.5, MinWidth: 2.4},
			model.CategoryBathroom:       {Label: "Bathroom", MinArea: 1.8, MinWidth: 1.2},
			model.CategoryWaterCloset:    {Label: "Water Closet", MinArea: 1.2, MinWidth: 0.9},
			model.CategoryCombinedBathWC: {Label: "Combined Bath & WC", MinArea: 2.8, MinWidth: 1.2},
			model.CategoryStore:          {Label: "Store", MinArea: 3.0, MinWidth: 1.2},
			model.CategoryKitchen:        {Label: "Kitchen", MinArea: 5.0, MinWidth: 1.8},
		},
		Staircase: StaircaseRule{
			MinWidth: 0.900,
			MinTread: 0.250,
			MaxRiser: 0.190,
		},
		MaxPlinthLevel:    0.9,
		MaxBuildingHeight: 11.0,
		FARMultiplier:     2.1,
		Coverage:          coverage.DefaultSchedule(),
	}
}

var titleCaser = cases.Title(language.English)

// LabelFor returns the display label of a room category, deriving one from
// the category key when the rule set does not name it.
func (c Config) LabelFor(category string) string {
	if r, ok := c.Rooms[category]; ok && r.Label != "" {
		return r.Label
	}
	return titleCaser.String(strings.ReplaceAll(category, "_", " "))
}

// ValidateConfig checks that a rule set is complete and internally consistent.
func ValidateConfig(c Config) error {
	var errs []string

	for _, cat := range model.RoomCategories {
		r, ok := c.Rooms[cat]
		if !ok {
			errs = append(errs, fmt.Sprintf("room_thresholds.%s is required", cat))
			continue
		}
		if r.MinArea <= 0 {
			errs = append(errs, fmt.Sprintf("room_thresholds.%s.min_area_m2 must be > 0", cat))
		}
		if r.MinWidth <= 0 {
			errs = append(errs, fmt.Sprintf("room_thresholds.%s.min_width_m must be > 0", cat))
		}
	}
	unknown := make([]string, 0)
	for cat := range c.Rooms {
		if !slices.Contains(model.RoomCategories, cat) {
			unknown = append(unknown, cat)
		}
	}
	slices.Sort(unknown)
	for _, cat := range unknown {
		errs = append(errs, fmt.Sprintf("room_thresholds.%s is not a known room category", cat))
	}

	if c.Staircase.MinWidth <= 0 || c.Staircase.MinTread <= 0 || c.Staircase.MaxRiser <= 0 {
		errs = append(errs, "staircase limits must be > 0")
	}
	if c.MaxPlinthLevel <= 0 {
		errs = append(errs, "max_plinth_level_m must be > 0")
	}
	if c.MaxBuildingHeight <= 0 {
		errs = append(errs, "max_building_height_m must be > 0")
	}
	if c.FARMultiplier <= 0 {
		errs = append(errs, "far_multiplier must be > 0")
	}
	if err := c.Coverage.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return eris.New("rules: invalid config: " + strings.Join(errs, "; "))
	}
	return nil
}

// LoadConfig reads a rule set file. Keys missing from the file keep their
// default values; a room listed in the file must give both thresholds.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, eris.Wrapf(err, "rules: read config %s", path)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML rule set over the defaults and validates it.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, eris.Wrap(err, "rules: parse config")
	}

	if cfg.Rooms == nil {
		cfg.Rooms = make(map[string]RoomRule)
	}
	for cat, def := range DefaultConfig().Rooms {
		r, ok := cfg.Rooms[cat]
		if !ok {
			cfg.Rooms[cat] = def
			continue
		}
		if r.Label == "" {
			r.Label = def.Label
			cfg.Rooms[cat] = r
		}
	}

	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
