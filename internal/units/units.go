// Package units provides shared constants and validation for the distance
// units accepted by the API and CLI.
package units

// Unit constants. Generation and storage always work in meters; conversion
// happens only at the display boundary.
const (
	Meters     = "m"
	Feet       = "ft"
	Kilometers = "km"
)

// ValidUnits contains all accepted unit values.
var ValidUnits = []string{Meters, Feet, Kilometers}

// IsValid checks whether the given unit is accepted.
func IsValid(unit string) bool {
	for _, valid := range ValidUnits {
		if unit == valid {
			return true
		}
	}
	return false
}

// ValidUnitsString returns a comma-separated list of accepted units for
// error messages.
func ValidUnitsString() string {
	return "m, ft, km"
}

// ConvertDistance converts a distance from meters to the target units.
// Unknown units pass the value through unchanged.
func ConvertDistance(meters float64, targetUnits string) float64 {
	switch targetUnits {
	case Feet:
		return meters * 3.28084
	case Kilometers:
		return meters * 0.001
	case Meters:
		return meters
	default:
		return meters
	}
}
