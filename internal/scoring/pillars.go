package scoring

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/civiclens/enrich-cli/internal/model"
)

const (
	corpusCeilingChars = 110_000
	sectionCeiling     = 25
	citationCeiling    = 150
	yearMentionCeiling = 1_500
	mediaHitCeiling    = 250
	tenureCeilingYears = 12
)

var (
	assumedOfficeRe = regexp.MustCompile(`(?i)(?:assumed office|has served since|in office since).{0,30}?((?:19|20)\d{2})`)
	sectionRe       = regexp.MustCompile(`(?m)^=+\s*.+?\s*=+\s*$|^[A-Z][A-Za-z ,]{2,40}$`)
	citationRe      = regexp.MustCompile(`\[\d+\]`)
	yearRe          = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

// Model computes influence pillars and scores. The clock is injectable so
// tenure math is testable.
type Model struct {
	now func() time.Time
}

// New creates a scoring model using wall-clock time.
func New() *Model {
	return &Model{now: time.Now}
}

// NewWithClock creates a scoring model with a fixed clock for tests.
func NewWithClock(now func() time.Time) *Model {
	return &Model{now: now}
}

// Pillars computes the six normalized signals from corpus text and office.
func (m *Model) Pillars(text string, office model.OfficeType) model.Pillars {
	lower := strings.ToLower(text)
	return model.Pillars{
		Structural:    m.structural(lower, office),
		Tenure:        m.tenure(text),
		Documentation: m.documentation(text),
		Prominence:    m.prominence(lower),
		Committee:     m.committee(lower, office),
		Movement:      m.movement(lower),
	}
}

// structural is the office base plus capped leadership boosts.
func (m *Model) structural(lower string, office model.OfficeType) float64 {
	base := officeBase[office]

	boost := 0.0
	for _, lb := range leadershipBoosts {
		if strings.Contains(lower, lb.cue) {
			boost += lb.boost
		}
	}
	if boost > leadershipBoostCap {
		boost = leadershipBoostCap
	}
	return clamp01(base + boost)
}

// tenure parses the service start year and normalizes against a 12-year
// ceiling. Tenure saturates quickly; differences beyond a decade do not
// further distinguish influence.
func (m *Model) tenure(text string) float64 {
	match := assumedOfficeRe.FindStringSubmatch(text)
	if match == nil {
		return 0
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	years := m.now().Year() - year
	if years < 0 {
		years = 0
	}
	if years > tenureCeilingYears {
		years = tenureCeilingYears
	}
	return float64(years) / tenureCeilingYears
}

// documentation blends sqrt-dampened length, section density, and citation
// density.
func (m *Model) documentation(text string) float64 {
	chars := float64(len([]rune(text)))
	lengthPart := math.Sqrt(math.Min(chars/corpusCeilingChars, 1))

	sections := float64(len(sectionRe.FindAllString(text, -1)))
	citations := float64(len(citationRe.FindAllString(text, -1)))

	return clamp01(0.5*lengthPart +
		0.3*math.Min(sections/sectionCeiling, 1) +
		0.2*math.Min(citations/citationCeiling, 1))
}

// prominence blends year-mention density and media keyword hits.
func (m *Model) prominence(lower string) float64 {
	years := float64(len(yearRe.FindAllString(lower, -1)))

	media := 0.0
	for _, kw := range mediaKeywords {
		media += float64(strings.Count(lower, kw))
	}

	return clamp01(0.5*math.Min(years/yearMentionCeiling, 1) +
		0.5*math.Min(media/mediaHitCeiling, 1))
}

// committee credits high-influence committee membership, legislators only.
func (m *Model) committee(lower string, office model.OfficeType) float64 {
	if office != model.OfficeSenator && office != model.OfficeRepresentative {
		return 0
	}
	credit := 0.0
	for _, name := range highInfluenceCommittees {
		if strings.Contains(lower, name) {
			credit += 0.02
		}
	}
	if credit > 0.10 {
		credit = 0.10
	}
	return credit
}

// movement is a binary flag for the named affiliation pattern.
func (m *Model) movement(lower string) float64 {
	for _, cue := range movementCues {
		if strings.Contains(lower, cue) {
			return 1
		}
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
