// Package fusion combines deterministic pattern rules and LLM extraction
// into one accepted set of person fields with a confidence score.
package fusion

import (
	"strings"

	"github.com/civiclens/enrich-cli/internal/model"
)

// stateCodes maps full state and territory names (lowercased) to their
// two-letter codes. Injected wherever name-to-code resolution is needed.
var stateCodes = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY",
	"district of columbia": "DC", "american samoa": "AS", "guam": "GU",
	"northern mariana islands": "MP", "puerto rico": "PR", "virgin islands": "VI",
}

// validStateCodes is the reverse index of stateCodes.
var validStateCodes = func() map[string]bool {
	m := make(map[string]bool, len(stateCodes))
	for _, code := range stateCodes {
		m[code] = true
	}
	return m
}()

// StateCodeForName maps a state or territory name to its code.
func StateCodeForName(name string) (string, bool) {
	code, ok := stateCodes[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}

// IsValidStateCode reports whether code is a known two-letter state or
// territory code.
func IsValidStateCode(code string) bool {
	return validStateCodes[strings.ToUpper(strings.TrimSpace(code))]
}

// officeIndicators are the high-signal phrases whose lines are pulled into
// the extraction slice and anchor proximity state matching.
var officeIndicators = []string{
	"assumed office",
	"in office",
	"united states senator",
	"u.s. senator",
	"senator from",
	"united states representative",
	"u.s. representative",
	"member of the u.s. house",
	"member of the united states house",
	"house of representatives",
	"governor of",
	"mayor of",
	"secretary of",
	"president of the united states",
	"vice president of the united states",
	"speaker of the",
	"has served since",
	"incumbent",
}

// houseCues indicate House membership strongly enough to override a fused
// "senator" value, a known confusion between chamber-adjacent phrasing.
var houseCues = []string{
	"at-large",
	"member of the u.s. house",
	"member of the united states house",
	"house of representatives",
	"congressional district",
}

// roleHintKeywords maps free-text role hint keywords to office types, used
// to build search query variants and to seed extraction.
var roleHintKeywords = []struct {
	keyword string
	office  model.OfficeType
}{
	{"vice president", model.OfficeVicePresident},
	{"president", model.OfficePresident},
	{"senator", model.OfficeSenator},
	{"congressman", model.OfficeRepresentative},
	{"congresswoman", model.OfficeRepresentative},
	{"representative", model.OfficeRepresentative},
	{"governor", model.OfficeGovernor},
	{"mayor", model.OfficeMayor},
	{"secretary", model.OfficeCabinet},
	{"cabinet", model.OfficeCabinet},
	{"candidate", model.OfficeCandidate},
}

// RoleFromHint maps a free-text role hint to an office type keyword.
// Returns empty when no keyword matches.
func RoleFromHint(hint string) model.OfficeType {
	h := strings.ToLower(hint)
	for _, rk := range roleHintKeywords {
		if strings.Contains(h, rk.keyword) {
			return rk.office
		}
	}
	return ""
}

// validOffices gates LLM-returned enum values.
var validOffices = map[model.OfficeType]bool{
	model.OfficePresident:      true,
	model.OfficeVicePresident:  true,
	model.OfficeSenator:        true,
	model.OfficeRepresentative: true,
	model.OfficeGovernor:       true,
	model.OfficeMayor:          true,
	model.OfficeCabinet:        true,
	model.OfficeCandidate:      true,
	model.OfficeOfficial:       true,
}

// validParties gates LLM-returned party values.
var validParties = map[model.PartyType]bool{
	model.PartyRepublican:  true,
	model.PartyDemocrat:    true,
	model.PartyIndependent: true,
	model.PartyOther:       true,
}
