// Package units converts weights between the canonical storage unit (pounds)
// and the user's display unit.
//
// Stored values are always pounds. Conversion happens only at the input and
// output boundary. Converting into kilograms rounds to one decimal; pound
// values pass through untouched, because the canonical value must never be
// altered by a display round-trip in the lbs case.
package units

import (
	"fmt"
	"math"
	"strings"
)

// Unit is a weight unit.
type Unit string

const (
	Pounds    Unit = "lbs"
	Kilograms Unit = "kg"
)

// KgPerLb is the exact international avoirdupois pound in kilograms.
const KgPerLb = 0.45359237

var aliases = map[string]Unit{
	"lb": Pounds, "lbs": Pounds, "pound": Pounds, "pounds": Pounds,
	"kg": Kilograms, "kgs": Kilograms, "kilogram": Kilograms, "kilograms": Kilograms,
}

// ParseUnit resolves a user-supplied unit name.
func ParseUnit(s string) (Unit, error) {
	u, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unsupported unit %q (use lbs or kg)", s)
	}
	return u, nil
}

// ToDisplay converts a canonical pounds value into unit.
func ToDisplay(valueLbs float64, unit Unit) float64 {
	if unit == Kilograms {
		return Round1(valueLbs * KgPerLb)
	}
	return valueLbs
}

// ToCanonical converts a value entered in unit into pounds. The result is not
// rounded.
func ToCanonical(value float64, unit Unit) float64 {
	if unit == Kilograms {
		return value / KgPerLb
	}
	return value
}

// ToDisplayPtr is ToDisplay for optional values; nil stays nil.
func ToDisplayPtr(valueLbs *float64, unit Unit) *float64 {
	if valueLbs == nil {
		return nil
	}
	v := ToDisplay(*valueLbs, unit)
	return &v
}

// ToCanonicalPtr is ToCanonical for optional values; nil stays nil.
func ToCanonicalPtr(value *float64, unit Unit) *float64 {
	if value == nil {
		return nil
	}
	v := ToCanonical(*value, unit)
	return &v
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
