package fusion

import (
	"regexp"
	"strings"

	"github.com/civiclens/enrich-cli/internal/model"
)

const (
	sliceHeadChars    = 6_000
	sliceMaxChars     = 9_000
	sliceMaxIndicator = 50
)

// Slice reduces a corpus to its high-signal portion: the first 6,000
// characters plus up to 50 office-indicator lines from the rest, capped at
// 9,000 characters total.
func Slice(text string) string {
	runes := []rune(text)
	head := text
	if len(runes) > sliceHeadChars {
		head = string(runes[:sliceHeadChars])
	}

	var extra []string
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if count >= sliceMaxIndicator {
			break
		}
		lower := strings.ToLower(line)
		for _, ind := range officeIndicators {
			if strings.Contains(lower, ind) {
				extra = append(extra, strings.TrimSpace(line))
				count++
				break
			}
		}
	}

	combined := head
	if len(extra) > 0 {
		combined += "\n" + strings.Join(extra, "\n")
	}
	cr := []rune(combined)
	if len(cr) > sliceMaxChars {
		combined = string(cr[:sliceMaxChars])
	}
	return combined
}

// DetectOffice finds an office type from phrase cues in the slice. Most
// specific offices are checked first so "vice president" never reads as
// "president".
func DetectOffice(slice string) *model.OfficeType {
	s := strings.ToLower(slice)
	checks := []struct {
		office model.OfficeType
		cues   []string
	}{
		{model.OfficeVicePresident, []string{"vice president of the united states"}},
		{model.OfficePresident, []string{"president of the united states"}},
		{model.OfficeSenator, []string{"united states senator", "u.s. senator", "senator from"}},
		{model.OfficeRepresentative, []string{
			"member of the u.s. house", "member of the united states house",
			"united states representative", "u.s. representative",
			"congresswoman", "congressman",
		}},
		{model.OfficeGovernor, []string{"governor of"}},
		{model.OfficeMayor, []string{"mayor of"}},
		{model.OfficeCabinet, []string{"secretary of state", "secretary of defense", "secretary of the treasury", "cabinet of the united states"}},
		{model.OfficeCandidate, []string{"candidate for"}},
	}
	for _, c := range checks {
		for _, cue := range c.cues {
			if strings.Contains(s, cue) {
				office := c.office
				return &office
			}
		}
	}
	return nil
}

var (
	republicanRe  = regexp.MustCompile(`\brepublican\b`)
	democratRe    = regexp.MustCompile(`\bdemocrat(ic)?\b`)
	independentRe = regexp.MustCompile(`\bindependent politician\b|\ban independent\b`)
	formerRe      = regexp.MustCompile(`\bformer\b.{0,40}\b(senator|representative|governor|mayor|president|secretary)\b`)
)

// DetectParty finds a party affiliation from the slice.
func DetectParty(slice string) *model.PartyType {
	s := strings.ToLower(slice)
	var party model.PartyType
	switch {
	case strings.Contains(s, "republican party") || strings.Contains(s, "(r-") || republicanRe.MatchString(s):
		party = model.PartyRepublican
	case strings.Contains(s, "democratic party") || strings.Contains(s, "(d-") || democratRe.MatchString(s):
		party = model.PartyDemocrat
	case strings.Contains(s, "(i-") || independentRe.MatchString(s):
		party = model.PartyIndependent
	default:
		return nil
	}
	return &party
}

// DetectIncumbent reads incumbency cues. "Former" phrasing wins over
// service cues; nil means no signal either way.
func DetectIncumbent(slice string) *bool {
	s := strings.ToLower(slice)
	if formerRe.MatchString(s) {
		f := false
		return &f
	}
	if strings.Contains(s, "incumbent") ||
		strings.Contains(s, "has served since") ||
		strings.Contains(s, "assumed office") {
		tr := true
		return &tr
	}
	return nil
}

// codeAfterComma matches ", XX" style trailing state codes in infobox lines.
var codeAfterComma = regexp.MustCompile(`,\s*([A-Z]{2})\b`)

// ProximityState finds a state code on or near an office-indicator line.
// Restricting the search window prevents misattributing another person's
// state mentioned elsewhere in the text.
func ProximityState(slice string) *string {
	lines := strings.Split(slice, "\n")
	for i, line := range lines {
		lower := strings.ToLower(line)
		matched := false
		for _, ind := range officeIndicators {
			if strings.Contains(lower, ind) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		end := i + 3
		if end > len(lines) {
			end = len(lines)
		}
		window := strings.Join(lines[i:end], "\n")
		if code := stateInText(window); code != nil {
			return code
		}
	}
	return nil
}

// WeakScanState finds the first state name anywhere in the slice. Last
// resort only.
func WeakScanState(slice string) *string {
	return stateInText(slice)
}

func stateInText(text string) *string {
	lower := strings.ToLower(text)
	best := -1
	var bestCode string
	for name, code := range stateCodes {
		if idx := strings.Index(lower, name); idx >= 0 {
			if best < 0 || idx < best {
				best = idx
				bestCode = code
			}
		}
	}
	if best >= 0 {
		return &bestCode
	}
	if m := codeAfterComma.FindStringSubmatch(text); m != nil && IsValidStateCode(m[1]) {
		code := m[1]
		return &code
	}
	return nil
}

// HasHouseCues reports whether the slice carries strong House-membership
// phrasing.
func HasHouseCues(slice string) bool {
	s := strings.ToLower(slice)
	for _, cue := range houseCues {
		if strings.Contains(s, cue) {
			return true
		}
	}
	return false
}

// Deterministic runs the full pattern pass over a corpus slice.
func Deterministic(slice string) model.ExtractionResult {
	res := model.ExtractionResult{
		OfficeType: DetectOffice(slice),
		PartyType:  DetectParty(slice),
		Incumbent:  DetectIncumbent(slice),
		Source:     model.SourceDeterministic,
	}
	if code := ProximityState(slice); code != nil {
		res.StateCode = code
	} else {
		res.StateCode = WeakScanState(slice)
	}
	res.Confidence = deterministicConfidence(res)
	return res
}

func deterministicConfidence(res model.ExtractionResult) float64 {
	c := 0.0
	if res.OfficeType != nil {
		c += 0.25
	}
	if res.StateCode != nil {
		c += 0.20
	}
	if res.PartyType != nil {
		c += 0.15
	}
	if res.Incumbent != nil {
		c += 0.10
	}
	if c > 1 {
		c = 1
	}
	return c
}
