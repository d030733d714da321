package documents

import (
	"regexp"
	"strings"
)

var (
	gstinPattern   = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	vehiclePattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{1,2}[A-Z]{0,3}[0-9]{1,4}$`)
	vehicleStrip   = strings.NewReplacer(" ", "", "-", "", ".", "", "/", "")
)

// NormalizeGSTIN trims and upper-cases a tax id.
func NormalizeGSTIN(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidGSTIN reports whether s is a 15 character GSTIN: state code, PAN block,
// entity digit, the fixed "Z" and a check character.
func ValidGSTIN(s string) bool {
	return gstinPattern.MatchString(s)
}

// NormalizeVehicleNo strips separators so "mh 12-ab 1234" becomes "MH12AB1234".
func NormalizeVehicleNo(s string) string {
	return strings.ToUpper(vehicleStrip.Replace(strings.TrimSpace(s)))
}

// ValidVehicleNo checks a normalised registration number.
func ValidVehicleNo(s string) bool {
	return vehiclePattern.MatchString(s)
}
