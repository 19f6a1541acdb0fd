// Package dimension normalizes free-form dimension annotations taken from
// building plans into metric lengths.
//
// Tokens come in three flavours: the sentinel "absent", a metric pair such
// as "3.2x5.0", or an imperial pair in feet-inch notation such as
// 5'-9"x6'-9" or 10'x8'-6 1/2". Parsing never fails loudly; callers get a
// Status telling them whether to use the value, skip it, or report it.
package dimension

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Status classifies the outcome of parsing a single token.
type Status int

const (
	// OK means the value parsed into usable positive lengths.
	OK Status = iota
	// Absent means the token was the explicit "absent" sentinel.
	Absent
	// Malformed means data was supplied but could not be interpreted.
	Malformed
)

// String returns a lower-case name for the status.
func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case Absent:
		return "absent"
	default:
		return "malformed"
	}
}

// AbsentToken is the sentinel the extraction pipeline emits for features
// that were not found on the plan.
const AbsentToken = "absent"

const (
	metersPerFoot = 0.3048
	metersPerInch = 0.0254
)

// feetInchRe matches <feet>'[-<inches>]["] where inches is a decimal, a
// fraction, or a whole number followed by a fraction ("6 1/2").
var feetInchRe = regexp.MustCompile(`^(\d+)'(?:\s*-?\s*(?:(\d+(?:\.\d+)?)(?:\s+(\d+)/(\d+))?|(\d+)/(\d+)))?\s*"?$`)

// glyphs maps typographic marks that OCR and language models tend to emit
// onto their ASCII equivalents. NFKC folding runs first, so a double prime
// arrives here as two single primes.
var glyphs = strings.NewReplacer(
	"′′", `"`,
	"′", "'",
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"×", "x",
	"⁄", "/",
	"–", "-",
	"—", "-",
)

// vulgarFractions spells out single-glyph fractions before NFKC folding,
// which would otherwise glue the numerator onto the whole inches ("6½"
// becoming "61⁄2").
var vulgarFractions = strings.NewReplacer(
	"½", " 1/2",
	"¼", " 1/4",
	"¾", " 3/4",
	"⅛", " 1/8",
	"⅜", " 3/8",
	"⅝", " 5/8",
	"⅞", " 7/8",
)

// Dimension is a parsed width/length pair in meters.
type Dimension struct {
	Width  float64 `json:"width_m"`
	Length float64 `json:"length_m"`
	Status Status  `json:"-"`
}

// Area returns width × length in square meters.
func (d Dimension) Area() float64 {
	return d.Width * d.Length
}

// IsAbsent reports whether raw is the "absent" sentinel, ignoring case and
// surrounding whitespace.
func IsAbsent(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), AbsentToken)
}

// Clean folds compatibility characters and typographic marks so the
// grammars below only need to deal with ASCII.
func Clean(raw string) string {
	return strings.TrimSpace(glyphs.Replace(norm.NFKC.String(vulgarFractions.Replace(raw))))
}

// FeetInchToMeter converts a feet-inch annotation such as 5'-9" to meters,
// rounded to three decimals. ok is false when the value does not match the
// feet-inch grammar; a bare number is not accepted here.
func FeetInchToMeter(value string) (meters float64, ok bool) {
	m := feetInchRe.FindStringSubmatch(Clean(value))
	if m == nil {
		return 0, false
	}

	feet, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	var inches float64
	switch {
	case m[2] != "":
		inches, err = strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, false
		}
		if m[3] != "" {
			frac, ok := fraction(m[3], m[4])
			if !ok {
				return 0, false
			}
			inches += frac
		}
	case m[5] != "":
		frac, ok := fraction(m[5], m[6])
		if !ok {
			return 0, false
		}
		inches = frac
	}

	return round3(float64(feet)*metersPerFoot + inches*metersPerInch), true
}

// ParseDimension splits a token on a case-insensitive "x" and converts both
// sides to meters. Sides without any foot or inch mark are read as meters.
// The returned Status is Absent for the sentinel and Malformed for anything
// that does not yield two positive lengths.
func ParseDimension(token string) Dimension {
	if IsAbsent(token) {
		return Dimension{Status: Absent}
	}

	parts := strings.Split(strings.ToLower(Clean(token)), "x")
	if len(parts) != 2 {
		return Dimension{Status: Malformed}
	}

	width, ok := toMeters(parts[0])
	if !ok {
		return Dimension{Status: Malformed}
	}
	length, ok := toMeters(parts[1])
	if !ok {
		return Dimension{Status: Malformed}
	}

	return Dimension{Width: width, Length: length, Status: OK}
}

// ParseLength reads a single height-like value in meters. Foot and inch
// marks are stripped rather than interpreted, so 0.45' reads as 0.45.
func ParseLength(raw string) (float64, Status) {
	if IsAbsent(raw) {
		return 0, Absent
	}
	s := strings.NewReplacer("'", "", `"`, "").Replace(Clean(raw))
	return parseFloat(s)
}

// ParseNumber reads a plain numeric value such as a staircase riser.
func ParseNumber(raw string) (float64, Status) {
	if IsAbsent(raw) {
		return 0, Absent
	}
	return parseFloat(Clean(raw))
}

func parseFloat(s string) (float64, Status) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) {
		return 0, Malformed
	}
	return v, OK
}

func toMeters(side string) (float64, bool) {
	side = strings.TrimSpace(side)
	if side == "" {
		return 0, false
	}

	var v float64
	if !strings.ContainsAny(side, `'"`) {
		f, err := strconv.ParseFloat(side, 64)
		if err != nil {
			return 0, false
		}
		v = round3(f)
	} else {
		f, ok := FeetInchToMeter(side)
		if !ok {
			return 0, false
		}
		v = f
	}

	if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func fraction(num, den string) (float64, bool) {
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
