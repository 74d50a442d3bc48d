package evidence

import (
	"regexp"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

// provinceCountry is the only country whose sub-national regions are
// detected. It does not follow the configured home country.
const provinceCountry = "Canada"

type alias struct {
	re      *regexp.Regexp
	country string
}

// countryAliases are tried in order; the first match wins.
var countryAliases = []alias{
	{regexp.MustCompile(`(?i)\bcanada\b`), "Canada"},
	{regexp.MustCompile(`(?i)\bunited\s+kingdom\b`), "United Kingdom"},
	{regexp.MustCompile(`(?i)\buk\b`), "United Kingdom"},
	{regexp.MustCompile(`(?i)\bgreat\s+britain\b`), "United Kingdom"},
	{regexp.MustCompile(`(?i)\bengland\b`), "United Kingdom"},
	{regexp.MustCompile(`(?i)\bjapan\b`), "Japan"},
	{regexp.MustCompile(`(?i)\bspain\b`), "Spain"},
	{regexp.MustCompile(`(?i)\bitaly\b`), "Italy"},
	{regexp.MustCompile(`(?i)\bnetherlands\b`), "Netherlands"},
	{regexp.MustCompile(`(?i)\bgermany\b`), "Germany"},
	{regexp.MustCompile(`(?i)\bnorway\b`), "Norway"},
	{regexp.MustCompile(`(?i)\bbelgium\b`), "Belgium"},
	{regexp.MustCompile(`(?i)\bsweden\b`), "Sweden"},
	{regexp.MustCompile(`(?i)\baustralia\b`), "Australia"},
	{regexp.MustCompile(`(?i)\bfrance\b`), "France"},
}

type province struct {
	name *regexp.Regexp
	// abbr is matched case-sensitively: "ON" is Ontario, "on" is English.
	abbr     *regexp.Regexp
	province string
}

func prov(name, abbr, canonical string) province {
	return province{
		name:     regexp.MustCompile(`(?i)\b(?:` + name + `)\b`),
		abbr:     regexp.MustCompile(`\b(?:` + abbr + `)\b`),
		province: canonical,
	}
}

var provinces = []province{
	prov(`ontario`, `ON|ONT`, "Ontario"),
	prov(`qu[eé]bec`, `QC|PQ`, "Quebec"),
	prov(`british\s+columbia`, `BC`, "British Columbia"),
	prov(`alberta`, `AB|ALTA`, "Alberta"),
	prov(`manitoba`, `MB`, "Manitoba"),
	prov(`saskatchewan`, `SK`, "Saskatchewan"),
	prov(`nova\s+scotia`, `NS`, "Nova Scotia"),
	prov(`new\s+brunswick`, `NB`, "New Brunswick"),
	prov(`newfoundland(?:\s+and\s+labrador)?`, `NL`, "Newfoundland and Labrador"),
	prov(`prince\s+edward\s+island`, `PEI`, "Prince Edward Island"),
	prov(`yukon`, `YT`, "Yukon"),
	prov(`northwest\s+territories`, `NT|NWT`, "Northwest Territories"),
	prov(`nunavut`, `NU`, "Nunavut"),
}

// detectJurisdiction reads the country and Canadian province named in text.
// Without a named country the home country is assumed; a province is only
// reported for Canada.
func detectJurisdiction(text, home string) domain.Jurisdiction {
	j := domain.Jurisdiction{Country: home}
	for _, a := range countryAliases {
		if a.re.MatchString(text) {
			j.Country = a.country
			break
		}
	}
	if j.Country != provinceCountry {
		return j
	}
	for _, p := range provinces {
		if p.name.MatchString(text) {
			j.Province = p.province
			return j
		}
	}
	for _, p := range provinces {
		if p.abbr.MatchString(text) {
			j.Province = p.province
			return j
		}
	}
	return j
}
