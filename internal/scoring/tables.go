// Package scoring converts corpus text and an inferred office into a
// six-pillar influence score and access tier.
package scoring

import "github.com/civiclens/enrich-cli/internal/model"

// officeBase is the structural-power base value per office.
var officeBase = map[model.OfficeType]float64{
	model.OfficePresident:      0.95,
	model.OfficeVicePresident:  0.85,
	model.OfficeSenator:        0.60,
	model.OfficeGovernor:       0.50,
	model.OfficeRepresentative: 0.35,
	model.OfficeCabinet:        0.30,
	model.OfficeMayor:          0.20,
	model.OfficeCandidate:      0.18,
}

// leadershipBoosts add structural credit for detected leadership roles.
// The total boost is capped.
var leadershipBoosts = []struct {
	cue   string
	boost float64
}{
	{"speaker of the house", 0.20},
	{"majority leader", 0.12},
	{"minority leader", 0.12},
	{"majority whip", 0.08},
	{"minority whip", 0.08},
	{"committee chair", 0.08},
	{"chairman of the", 0.08},
	{"chairwoman of the", 0.08},
	{"ranking member", 0.05},
	{"conference chair", 0.04},
	{"caucus chair", 0.04},
}

const leadershipBoostCap = 0.20

// scoreFloors guarantee minimums for structurally powerful offices
// regardless of corpus thinness.
var scoreFloors = map[model.OfficeType]float64{
	model.OfficePresident:     0.90,
	model.OfficeVicePresident: 0.85,
	model.OfficeSenator:       0.50,
	model.OfficeGovernor:      0.40,
}

// scoreCaps bound lower offices unless the notability override fires.
var scoreCaps = map[model.OfficeType]float64{
	model.OfficeRepresentative: 0.60,
	model.OfficeMayor:          0.40,
	model.OfficeCabinet:        0.40,
	model.OfficeCandidate:      0.40,
}

// notableRepCap replaces the representative cap when documentation,
// prominence, and a committee or movement signal are all strong.
const notableRepCap = 0.80

// highInfluenceCommittees are the committee names that earn network credit
// for legislators.
var highInfluenceCommittees = []string{
	"appropriations",
	"armed services",
	"judiciary",
	"ways and means",
	"foreign relations",
	"foreign affairs",
	"finance",
	"intelligence",
	"energy and commerce",
	"banking",
	"rules",
	"oversight",
	"homeland security",
	"budget",
}

// mediaKeywords proxy public prominence.
var mediaKeywords = []string{
	"twitter",
	"facebook",
	"instagram",
	"tiktok",
	"youtube",
	"viral",
	"controversy",
	"controversial",
	"scandal",
	"impeachment",
	"national attention",
	"media coverage",
	"prime time",
	"townhall",
	"protest",
}

// movementCues flag the organizational-affiliation pillar.
var movementCues = []string{
	"democratic socialists of america",
}
