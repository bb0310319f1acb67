package measurement

import (
	"fmt"
)

// Unit is the display unit for measurement labels
type Unit string

const (
	UnitMeters Unit = "m"
	UnitFeet   Unit = "ft"
)

const metersToFeet = 3.28084

// Valid reports whether the unit is supported
func (u Unit) Valid() bool {
	return u == UnitMeters || u == UnitFeet
}

// Convert turns a value in meters into the unit
func (u Unit) Convert(meters float64) float64 {
	if u == UnitFeet {
		return meters * metersToFeet
	}
	return meters
}

// FormatLabel renders a distance in meters as a label in the given unit,
// e.g. "1.00 m" or "3.28 ft". Unknown units fall back to meters.
func FormatLabel(meters float64, unit Unit) string {
	if !unit.Valid() {
		unit = UnitMeters
	}
	return fmt.Sprintf("%.2f %s", unit.Convert(meters), unit)
}
