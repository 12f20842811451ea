package intent

import "strings"

// nationalityEntry maps a Spanish demonym or country mention to the
// canonical country name the library backend stores.
type nationalityEntry struct {
	term    string
	country string
}

// nationalityLexicon is scanned in order; the first term contained in the
// question wins and the scan stops. Every synonym of a country maps to the
// same canonical value, so order only matters across countries.
var nationalityLexicon = []nationalityEntry{
	{"chilenos", "Chile"},
	{"chileno", "Chile"},
	{"chilena", "Chile"},
	{"chile", "Chile"},
	{"colombianos", "Colombia"},
	{"colombiano", "Colombia"},
	{"colombia", "Colombia"},
	{"argentinos", "Argentina"},
	{"argentino", "Argentina"},
	{"argentina", "Argentina"},
	{"peruanos", "Peru"},
	{"peruano", "Peru"},
	{"perú", "Peru"},
	{"peru", "Peru"},
	{"españoles", "España"},
	{"española", "España"},
	{"español", "España"},
	{"españa", "España"},
	{"mexicanos", "Mexico"},
	{"mexicano", "Mexico"},
	{"méxico", "Mexico"},
	{"mexico", "Mexico"},
}

// lookupNationality returns the canonical country mentioned in the
// lower-cased question, if any.
func lookupNationality(lower string) (string, bool) {
	for _, e := range nationalityLexicon {
		if strings.Contains(lower, e.term) {
			return e.country, true
		}
	}
	return "", false
}
