package billmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/civiclens/enrich-cli/internal/model"
	"github.com/civiclens/enrich-cli/pkg/anthropic"
)

// metaTextLimit caps how much bill text is sent to the model. Bill pages
// front-load the summary block, so the head is where the metadata lives.
const metaTextLimit = 110_000

const billSystemPrompt = `You extract metadata from a United States bill page.
Respond with ONLY a JSON object, no prose, with exactly these keys:
{
  "bill_status": "processing" | "failed" | "passed",
  "date_pretty": "Month D, YYYY" (date of the latest recorded action),
  "sponsor_name": "First Last" (primary sponsor, no title),
  "sponsor_party": "R" | "D" | "I",
  "sponsor_state": two-letter USPS code
}
"passed" means the bill became law or passed both chambers. "failed" means it
was vetoed without override or failed of passage. Anything still moving is
"processing". Use null for any field the text does not state.`

type llmBillMeta struct {
	BillStatus   *string `json:"bill_status"`
	DatePretty   *string `json:"date_pretty"`
	SponsorName  *string `json:"sponsor_name"`
	SponsorParty *string `json:"sponsor_party"`
	SponsorState *string `json:"sponsor_state"`
}

// Resolver extracts bill status, latest-action date, and sponsor identity
// from raw bill text, preferring the model and falling back to pattern
// matching when the model result is unusable.
type Resolver struct {
	llm anthropic.Client
}

func NewResolver(llm anthropic.Client) *Resolver {
	return &Resolver{llm: llm}
}

// Resolve returns the best-effort metadata for the bill text. The model
// result is taken whole or not at all: a partial answer falls back to the
// deterministic parse entirely rather than mixing the two.
func (r *Resolver) Resolve(ctx context.Context, text string) model.BillMeta {
	if len(text) > metaTextLimit {
		text = text[:metaTextLimit]
	}
	if r.llm != nil {
		if meta, ok := r.llmPass(ctx, text); ok {
			return meta
		}
	}
	return deterministicMeta(text)
}

func (r *Resolver) llmPass(ctx context.Context, text string) (model.BillMeta, bool) {
	raw, err := r.llm.CompleteJSON(ctx, billSystemPrompt, text)
	if err != nil {
		zap.L().Warn("billmeta: llm pass failed, using deterministic parse", zap.Error(err))
		return model.BillMeta{}, false
	}
	var out llmBillMeta
	if err := json.Unmarshal(raw, &out); err != nil {
		zap.L().Warn("billmeta: unparseable llm reply", zap.Error(err))
		return model.BillMeta{}, false
	}
	meta, ok := out.validate()
	if !ok {
		zap.L().Debug("billmeta: incomplete llm reply, using deterministic parse")
	}
	return meta, ok
}

// validate accepts the model reply only when every field is present and
// well formed.
func (m llmBillMeta) validate() (model.BillMeta, bool) {
	if m.BillStatus == nil || m.DatePretty == nil || m.SponsorName == nil ||
		m.SponsorParty == nil || m.SponsorState == nil {
		return model.BillMeta{}, false
	}
	status := model.BillStatus(strings.ToLower(strings.TrimSpace(*m.BillStatus)))
	switch status {
	case model.BillProcessing, model.BillFailed, model.BillPassed:
	default:
		return model.BillMeta{}, false
	}
	date, ok := parseDate(strings.TrimSpace(*m.DatePretty))
	if !ok {
		return model.BillMeta{}, false
	}
	name := strings.TrimSpace(*m.SponsorName)
	party := strings.ToUpper(strings.TrimSpace(*m.SponsorParty))
	state := strings.ToUpper(strings.TrimSpace(*m.SponsorState))
	if name == "" || !validParty(party) || !validStateAbbr(state) {
		return model.BillMeta{}, false
	}
	return model.BillMeta{
		Status:       status,
		DatePretty:   prettyDate(date),
		SponsorName:  name,
		SponsorParty: party,
		SponsorState: state,
	}, true
}

var (
	// sponsorBracketRe matches the congress.gov member tag, e.g. [D-OH-3],
	// [R-WY], [I-VT-At-Large], including territory codes.
	sponsorBracketRe = regexp.MustCompile(`\[([RDI])-(AS|DC|GU|MP|PR|VI|[A-Z]{2})(?:-(?:At-Large|\d{1,3}))?\]`)

	// sponsorLineRe anchors on the sponsor row of a bill page.
	sponsorLineRe = regexp.MustCompile(`(?i)sponsor:?\s*(.+)`)

	// memberTitleRe strips the office prefix from a member name.
	memberTitleRe = regexp.MustCompile(`(?i)^(?:rep\.?|sen\.?|del\.?|representative|senator|delegate|resident commissioner)\s+`)

	numericDateRe = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	wordDateRe    = regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}\b`)
)

var stateAbbrs = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "FL": true, "GA": true, "HI": true, "ID": true,
	"IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true,
	"ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true,
	"OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true,
	"AS": true, "DC": true, "GU": true, "MP": true, "PR": true, "VI": true,
}

func validStateAbbr(s string) bool { return stateAbbrs[s] }

func validParty(p string) bool { return p == "R" || p == "D" || p == "I" }

// deterministicMeta is the no-model parse: latest action date from the
// action and introduction lines, sponsor from the sponsor row's bracket
// tag, status from enactment and veto phrasing.
func deterministicMeta(text string) model.BillMeta {
	meta := model.BillMeta{Status: statusFromText(text)}
	if date, ok := latestActionDate(text); ok {
		meta.DatePretty = prettyDate(date)
	}
	name, party, state := sponsorFromText(text)
	meta.SponsorName = name
	meta.SponsorParty = party
	meta.SponsorState = state
	return meta
}

func statusFromText(text string) model.BillStatus {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "became public law") ||
		strings.Contains(lower, "became law") ||
		strings.Contains(lower, "signed by president") ||
		strings.Contains(lower, "enacted"):
		return model.BillPassed
	case (strings.Contains(lower, "vetoed") && !strings.Contains(lower, "override")) ||
		strings.Contains(lower, "failed of passage") ||
		strings.Contains(lower, "failed passage"):
		return model.BillFailed
	default:
		return model.BillProcessing
	}
}

// latestActionDate scans the lines that carry action history and returns
// the most recent date found on them.
func latestActionDate(text string) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "latest action") && !strings.Contains(lower, "introduced") {
			continue
		}
		for _, raw := range append(numericDateRe.FindAllString(line, -1), wordDateRe.FindAllString(line, -1)...) {
			if d, ok := parseDate(raw); ok && (!found || d.After(latest)) {
				latest, found = d, true
			}
		}
	}
	return latest, found
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range []string{"01/02/2006", "1/2/2006", "January 2, 2006"} {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func prettyDate(d time.Time) string { return d.Format("January 2, 2006") }

// sponsorFromText reads the sponsor row, e.g.
// "Sponsor: Rep. Doe, Jane [D-OH-3] (Introduced 01/03/2025)".
func sponsorFromText(text string) (name, party, state string) {
	for _, line := range strings.Split(text, "\n") {
		m := sponsorLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rest := m[1]
		b := sponsorBracketRe.FindStringSubmatchIndex(rest)
		if b == nil {
			continue
		}
		party = rest[b[2]:b[3]]
		state = rest[b[4]:b[5]]
		name = cleanMemberName(rest[:b[0]])
		return name, party, state
	}
	return "", "", ""
}

// cleanMemberName strips the office prefix, reorders "Last, First" to
// "First Last", and drops any trailing annotation.
func cleanMemberName(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = memberTitleRe.ReplaceAllString(raw, "")
	if i := strings.Index(raw, "("); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSpace(strings.Trim(raw, " ,"))
	if last, first, ok := strings.Cut(raw, ","); ok {
		return strings.TrimSpace(first) + " " + strings.TrimSpace(last)
	}
	return raw
}

// ComposeSubName renders the bill byline "Month D, YYYY | First Last (P-ST)".
// Missing pieces are omitted rather than rendered as placeholders.
func ComposeSubName(meta model.BillMeta) string {
	sponsor := meta.SponsorName
	if sponsor != "" && meta.SponsorParty != "" && meta.SponsorState != "" {
		sponsor = fmt.Sprintf("%s (%s-%s)", sponsor, meta.SponsorParty, meta.SponsorState)
	}
	switch {
	case meta.DatePretty != "" && sponsor != "":
		return meta.DatePretty + " | " + sponsor
	case meta.DatePretty != "":
		return meta.DatePretty
	default:
		return sponsor
	}
}
