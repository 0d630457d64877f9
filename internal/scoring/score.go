package scoring

import (
	"math"

	"github.com/civiclens/enrich-cli/internal/model"
)

// Pillar weights. Structural power and prominence dominate.
const (
	wStructural    = 0.35
	wTenure        = 0.05
	wDocumentation = 0.20
	wProminence    = 0.30
	wCommittee     = 0.10
	wMovement      = 0.05
)

// Tier thresholds over the rounded score.
const (
	hardThreshold = 0.70
	softThreshold = 0.45
)

// Score combines the pillars into the capped, floored, 2-decimal influence
// score for the office.
func (m *Model) Score(p model.Pillars, office model.OfficeType) float64 {
	raw := wStructural*p.Structural +
		wTenure*p.Tenure +
		wDocumentation*p.Documentation +
		wProminence*p.Prominence +
		wCommittee*p.Committee +
		wMovement*p.Movement

	// Superstar override: a president or VP with near-maximal documentation
	// and prominence pins the raw score at the top.
	if (office == model.OfficePresident || office == model.OfficeVicePresident) &&
		p.Documentation >= 0.95 && p.Prominence >= 0.95 {
		raw = math.Max(raw, 1.0)
	}

	if limit, ok := scoreCaps[office]; ok {
		// Notability override: a representative with deep documentation,
		// high prominence, and a committee or movement signal earns the
		// raised cap.
		if office == model.OfficeRepresentative &&
			p.Documentation >= 0.90 && p.Prominence >= 0.85 &&
			(p.Committee >= 0.04 || p.Movement == 1) {
			limit = notableRepCap
		}
		if raw > limit {
			raw = limit
		}
	}

	if floor, ok := scoreFloors[office]; ok && raw < floor {
		raw = floor
	}

	return math.Round(raw*100) / 100
}

// TierFor maps a rounded score onto the access tier.
func TierFor(score float64) model.Tier {
	switch {
	case score >= hardThreshold:
		return model.TierHard
	case score >= softThreshold:
		return model.TierSoft
	default:
		return model.TierBase
	}
}

// normalizeOffice maps offices without a structural profile onto candidate,
// the lowest base, so an unrecognized office never scores below it.
func normalizeOffice(office model.OfficeType) model.OfficeType {
	if _, ok := officeBase[office]; !ok {
		return model.OfficeCandidate
	}
	return office
}

// Evaluate runs the full model: pillars, score, tier, and the one-tier
// demotion for non-incumbents. A score computed from historical text does
// not grant the same access as a current office-holder.
func (m *Model) Evaluate(text string, office model.OfficeType, incumbent bool) (float64, model.Tier) {
	office = normalizeOffice(office)
	pillars := m.Pillars(text, office)
	score := m.Score(pillars, office)
	tier := TierFor(score)
	if !incumbent {
		tier = tier.Demote()
	}
	return score, tier
}
