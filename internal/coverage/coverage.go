// Package coverage evaluates the maximum permitted ground coverage for a
// plot as a continuous piecewise-linear function of plot area.
package coverage

import (
	"math"

	"github.com/rotisserie/eris"
)

// Tier is one linear segment of the schedule. A plot whose area lies in
// (previous tier's UpTo, UpTo] may cover Base + Slope × (area − previous UpTo).
// UpTo of zero marks the open-ended last tier.
type Tier struct {
	UpTo  float64 `yaml:"up_to" json:"up_to" mapstructure:"up_to"`
	Slope float64 `yaml:"slope" json:"slope" mapstructure:"slope"`
	Base  float64 `yaml:"base" json:"base" mapstructure:"base"`
}

// Schedule maps plot area to maximum ground coverage. Plots smaller than
// MinPlotArea get no coverage at all.
type Schedule struct {
	MinPlotArea float64 `yaml:"min_plot_area" json:"min_plot_area" mapstructure:"min_plot_area"`
	Tiers       []Tier  `yaml:"tiers" json:"tiers" mapstructure:"tiers"`
}

// continuityTolerance absorbs float noise when checking tier joins.
const continuityTolerance = 1e-6

// DefaultSchedule returns the municipal coverage schedule.
//
//	[60, 150]   0.70 × area
//	(150, 250]  105 + 0.65 × (area − 150)
//	(250, 350]  170 + 0.60 × (area − 250)
//	(350, 450]  230 + 0.50 × (area − 350)
//	(450, ∞)    280 + 0.40 × (area − 450)
func DefaultSchedule() Schedule {
	return Schedule{
		MinPlotArea: 60,
		Tiers: []Tier{
			{UpTo: 150, Slope: 0.70, Base: 0},
			{UpTo: 250, Slope: 0.65, Base: 105},
			{UpTo: 350, Slope: 0.60, Base: 170},
			{UpTo: 450, Slope: 0.50, Base: 230},
			{UpTo: 0, Slope: 0.40, Base: 280},
		},
	}
}

// MaxCoverage returns the permitted ground coverage in m² for plotArea m².
func (s Schedule) MaxCoverage(plotArea float64) float64 {
	if math.IsNaN(plotArea) || plotArea < s.MinPlotArea {
		return 0
	}

	lower := 0.0
	for _, t := range s.Tiers {
		if t.UpTo == 0 || plotArea <= t.UpTo {
			return t.Base + t.Slope*(plotArea-lower)
		}
		lower = t.UpTo
	}
	return 0
}

// Validate checks that tiers are ordered, slopes are positive, only the
// last tier is open-ended, and each tier starts where the previous one ended.
func (s Schedule) Validate() error {
	if s.MinPlotArea < 0 {
		return eris.New("coverage: min_plot_area must be >= 0")
	}
	if len(s.Tiers) == 0 {
		return eris.New("coverage: at least one tier is required")
	}

	lower := 0.0
	for i, t := range s.Tiers {
		last := i == len(s.Tiers)-1
		if t.Slope <= 0 {
			return eris.Errorf("coverage: tier %d slope must be > 0", i)
		}
		if t.UpTo == 0 && !last {
			return eris.Errorf("coverage: only the last tier may be open-ended (tier %d)", i)
		}
		if t.UpTo != 0 && t.UpTo <= lower {
			return eris.Errorf("coverage: tier %d bound %.2f must exceed %.2f", i, t.UpTo, lower)
		}
		if i > 0 {
			prev := s.Tiers[i-1]
			prevLower := 0.0
			if i > 1 {
				prevLower = s.Tiers[i-2].UpTo
			}
			joined := prev.Base + prev.Slope*(prev.UpTo-prevLower)
			if math.Abs(joined-t.Base) > continuityTolerance {
				return eris.Errorf("coverage: discontinuity at %.2f (%.4f vs %.4f)", prev.UpTo, joined, t.Base)
			}
		}
		lower = t.UpTo
	}
	return nil
}
