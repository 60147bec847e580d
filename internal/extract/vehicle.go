package extract

import (
	"regexp"
	"strconv"
	"strings"
)

type Vehicle struct {
	Brand string
	Model string
	Year  int
}

const (
	MinVehicleYear = 1980
	MaxVehicleYear = 2035
)

var (
	// 1980-1999 or 2000-2039, not glued to other letters or digits.
	yearRE = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(19[89]\d|20[0-3]\d)(?:$|[^\p{L}\p{N}_])`)
	// everything except letters, digits, underscore, whitespace and hyphen
	vehiclePunctRE = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
)

// ExtractVehicle finds "brand model year". A vehicle is only recognised when a
// plausible year is present; the words before the year are brand and model.
func ExtractVehicle(text string) (Vehicle, bool) {
	m := yearRE.FindStringSubmatchIndex(text)
	if m == nil {
		return Vehicle{}, false
	}
	year, err := strconv.Atoi(text[m[2]:m[3]])
	if err != nil {
		return Vehicle{}, false
	}

	span := vehiclePunctRE.ReplaceAllString(text[:m[2]], "")
	words := strings.Fields(span)
	if len(words) == 0 {
		return Vehicle{}, false
	}
	return Vehicle{
		Brand: words[0],
		Model: strings.Join(words[1:], " "),
		Year:  year,
	}, true
}

// vehicleEnd is the byte offset right after the year of the vehicle found in
// text, or 0 when there is none.
func vehicleEnd(text string) int {
	if _, ok := ExtractVehicle(text); !ok {
		return 0
	}
	return yearRE.FindStringSubmatchIndex(text)[3]
}

func ValidateVehicleYear(year int) bool {
	return year >= MinVehicleYear && year <= MaxVehicleYear
}
