package domain

import "sort"

// stateNames maps each of the 50 US postal codes to its full name.
var stateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas", "CA": "California",
	"CO": "Colorado", "CT": "Connecticut", "DE": "Delaware", "FL": "Florida", "GA": "Georgia",
	"HI": "Hawaii", "ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi", "MO": "Missouri",
	"MT": "Montana", "NE": "Nebraska", "NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey",
	"NM": "New Mexico", "NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah", "VT": "Vermont",
	"VA": "Virginia", "WA": "Washington", "WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
}

// nameAliases are extra location spellings used by the vaccination feed. They
// resolve in addition to the canonical names, so both "New York" and
// "New York State" map to NY.
var nameAliases = map[string]string{
	"New York State": "NY",
}

// stateCodes is the reverse of stateNames plus aliases.
var stateCodes = func() map[string]string {
	m := make(map[string]string, len(stateNames)+len(nameAliases))
	for code, name := range stateNames {
		m[name] = code
	}
	for name, code := range nameAliases {
		m[name] = code
	}
	return m
}()

// IsStateCode reports whether code is one of the 50 US postal codes.
func IsStateCode(code string) bool {
	_, ok := stateNames[code]
	return ok
}

// CodeForName returns the postal code for a full state name.
func CodeForName(name string) (string, bool) {
	code, ok := stateCodes[name]
	return code, ok
}

// NameForCode returns the full name for a postal code.
func NameForCode(code string) (string, bool) {
	name, ok := stateNames[code]
	return name, ok
}

// StateCodes returns the 50 postal codes in alphabetical order.
func StateCodes() []string {
	codes := make([]string, 0, len(stateNames))
	for code := range stateNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
