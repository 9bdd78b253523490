// Package format turns typed setting values into the canonical text tokens of
// the mission script.
package format

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"seacatgo/pkg/tables"
)

// DefaultPlaces selects the six decimal places used for coordinates.
const DefaultPlaces = -1

var (
	spaceRun      = regexp.MustCompile(` +`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// ParseBool recognises the usual spellings of a boolean:
// true/false, yes/no, on/off, y/n, t/f (any case).
func ParseBool(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "y", "t":
		return true, true
	case "false", "no", "off", "n", "f":
		return false, true
	}
	return false, false
}

// Integer renders a decimal integer.
func Integer(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Real renders v with a fixed number of decimal places, always with a '.'
// separator. Ties round half away from zero on the shortest decimal form of
// v, so 1.25 at one place is "1.3". Negative places select DefaultPlaces.
func Real(v float64, places int) string {
	if places < 0 {
		places = 6
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', places, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(int32(places))
}

// Name canonicalises a parameter name: spaces removed, upper case.
func Name(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(spaceRun.ReplaceAllString(name, ""))
}

// Text canonicalises a free text value: whitespace runs become underscores,
// upper case.
func Text(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(whitespaceRun.ReplaceAllString(value, "_"))
}

func parseInt(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}

func parseReal(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Formatter resolves values against the boolean replacement table.
type Formatter struct {
	tables *tables.Tables
}

// New creates a formatter over the given tables.
func New(t *tables.Tables) *Formatter {
	if t == nil {
		t = tables.New(nil, nil, nil)
	}
	return &Formatter{tables: t}
}

// Boolean replaces a boolean value by the text registered for the parameter,
// falling back to ON/OFF. Non boolean values come back trimmed and lower cased.
func (f *Formatter) Boolean(name, value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	b, ok := ParseBool(value)
	if !ok {
		return value
	}
	if pair, found := f.tables.Boolean(Name(name)); found {
		if b {
			return pair.True
		}
		return pair.False
	}
	if b {
		return "ON"
	}
	return "OFF"
}

// Value renders a header setting value: booleans through the replacement
// table, integers as decimals and reals with the given decimal places.
// Anything else is returned trimmed and untouched.
func (f *Formatter) Value(name, value string, places int) string {
	value = strings.TrimSpace(value)
	if _, ok := ParseBool(value); ok {
		return f.Boolean(name, value)
	}
	if v, ok := parseInt(value); ok {
		return Integer(v)
	}
	if v, ok := parseReal(value); ok {
		return Real(v, places)
	}
	return value
}

// IsNumeric reports whether value parses as an integer or a finite real.
func IsNumeric(value string) bool {
	value = strings.TrimSpace(value)
	if _, ok := parseInt(value); ok {
		return true
	}
	_, ok := parseReal(value)
	return ok
}

// PayloadValue renders a payload parameter value. Reals keep their shortest
// exact representation.
func (f *Formatter) PayloadValue(name, value string) string {
	value = strings.TrimSpace(value)
	if _, ok := ParseBool(value); ok {
		return Text(f.Boolean(name, value))
	}
	if v, ok := parseInt(value); ok {
		return Integer(v)
	}
	if v, ok := parseReal(value); ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return Text(value)
}
