package location

import (
	"strings"
)

// Location is a city plus the full state name, as typed into the filter.
type Location struct {
	City  string
	State string
}

func (l Location) String() string {
	if l.State == "" {
		return l.City
	}
	return l.City + ", " + l.State
}

var stateNames = map[string]string{
	"AL": "Alabama",
	"AK": "Alaska",
	"AZ": "Arizona",
	"AR": "Arkansas",
	"CA": "California",
	"CO": "Colorado",
	"CT": "Connecticut",
	"DE": "Delaware",
	"FL": "Florida",
	"GA": "Georgia",
	"HI": "Hawaii",
	"ID": "Idaho",
	"IL": "Illinois",
	"IN": "Indiana",
	"IA": "Iowa",
	"KS": "Kansas",
	"KY": "Kentucky",
	"LA": "Louisiana",
	"ME": "Maine",
	"MD": "Maryland",
	"MA": "Massachusetts",
	"MI": "Michigan",
	"MN": "Minnesota",
	"MS": "Mississippi",
	"MO": "Missouri",
	"MT": "Montana",
	"NE": "Nebraska",
	"NV": "Nevada",
	"NH": "New Hampshire",
	"NJ": "New Jersey",
	"NM": "New Mexico",
	"NY": "New York",
	"NC": "North Carolina",
	"ND": "North Dakota",
	"OH": "Ohio",
	"OK": "Oklahoma",
	"OR": "Oregon",
	"PA": "Pennsylvania",
	"RI": "Rhode Island",
	"SC": "South Carolina",
	"SD": "South Dakota",
	"TN": "Tennessee",
	"TX": "Texas",
	"UT": "Utah",
	"VT": "Vermont",
	"VA": "Virginia",
	"WA": "Washington",
	"WV": "West Virginia",
	"WI": "Wisconsin",
	"WY": "Wyoming",
	"DC": "District of Columbia",
}

// Split parses "City, ST" into its two trimmed parts. Without a comma the
// whole string is the city and the state is empty.
func Split(s string) (city, state string) {
	city, state, ok := strings.Cut(s, ",")
	if !ok {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(city), strings.TrimSpace(state)
}

// FullStateName expands a two-letter abbreviation, case-insensitively.
// Anything it doesn't know is returned unchanged.
func FullStateName(abbr string) string {
	if name, ok := stateNames[strings.ToUpper(strings.TrimSpace(abbr))]; ok {
		return name
	}
	return abbr
}

// Parse splits and expands in one step.
func Parse(s string) Location {
	city, state := Split(s)
	return Location{City: city, State: FullStateName(state)}
}
