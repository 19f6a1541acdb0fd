package model

// Room categories recognised in a building record.
const (
	CategoryBedroom        = "bedroom"
	CategoryDrawingRoom    = "drawingroom"
	CategoryStudyRoom      = "studyroom"
	CategoryBathroom       = "bathroom"
	CategoryWaterCloset    = "water_closet"
	CategoryCombinedBathWC = "combined_bath_wc"
	CategoryStore          = "store"
	CategoryKitchen        = "kitchen"
)

// RoomCategories lists every room category in record order.
var RoomCategories = []string{
	CategoryBedroom,
	CategoryDrawingRoom,
	CategoryStudyRoom,
	CategoryBathroom,
	CategoryWaterCloset,
	CategoryCombinedBathWC,
	CategoryStore,
	CategoryKitchen,
}

// RoomEntry is one extraction hit for a room category: the dimension tokens
// found on a floor (one per room) and the floor's label. Floor labels are
// carried through to reports untouched.
type RoomEntry struct {
	Tokens []string `json:"dimensions"`
	Floor  string   `json:"floor"`
}

// AreaEntry holds plot and covered areas in square meters.
type AreaEntry struct {
	PlotArea    float64 `json:"total_plot_area"`
	CoveredArea float64 `json:"total_covered_area"`
}

// StaircaseEntry holds raw staircase measurements in meters. Each field is
// either a numeric string or the "absent" sentinel.
type StaircaseEntry struct {
	Width string `json:"staircase_width"`
	Tread string `json:"staircase_tread"`
	Riser string `json:"staircase_riser"`
	Floor string `json:"floor,omitempty"`
}

// HeightPlinthEntry holds the raw building height and plinth level strings.
type HeightPlinthEntry struct {
	Height string `json:"height"`
	Plinth string `json:"plinth_level"`
}

// BuildingRecord is everything the rule engine needs about one building.
// It is built once by the adapter and treated as read-only afterwards; a
// nil or empty slice means the rule sees zero instances.
type BuildingRecord struct {
	Rooms        map[string][]RoomEntry `json:"rooms,omitempty"`
	PlotAreaFAR  []AreaEntry            `json:"plot_area_far,omitempty"`
	Staircases   []StaircaseEntry       `json:"riser_treader_width,omitempty"`
	HeightPlinth []HeightPlinthEntry    `json:"height_plinth,omitempty"`
}

// RoomEntries returns the entries for a room category, or nil.
func (b BuildingRecord) RoomEntries(category string) []RoomEntry {
	if b.Rooms == nil {
		return nil
	}
	return b.Rooms[category]
}

// IsEmpty reports whether the record carries no data for any rule.
func (b BuildingRecord) IsEmpty() bool {
	for _, entries := range b.Rooms {
		if len(entries) > 0 {
			return false
		}
	}
	return len(b.PlotAreaFAR) == 0 && len(b.Staircases) == 0 && len(b.HeightPlinth) == 0
}
