package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civiclens/enrich-cli/internal/corpus"
	"github.com/civiclens/enrich-cli/internal/fusion"
	"github.com/civiclens/enrich-cli/internal/limiter"
	"github.com/civiclens/enrich-cli/internal/model"
	"github.com/civiclens/enrich-cli/pkg/tavily"
	"github.com/civiclens/enrich-cli/pkg/wikipedia"
)

// minBodyLen rejects stub pages. A few paragraphs of the wrong almost-match
// poison extraction worse than no page at all.
const minBodyLen = 200

// maxRacedCandidates bounds how many search hits are raced at once.
const maxRacedCandidates = 4

// wikiFamilyHosts are excluded from the generic search fallback. If the
// subject had a usable wiki page the earlier stages would have found it.
var wikiFamilyHosts = []string{
	"wikipedia.org", "wikimedia.org", "wikidata.org", "wiktionary.org",
	"wikiquote.org", "wikisource.org", "fandom.com",
}

// officialTLDs rank a fallback host above the rest.
var officialTLDs = []string{".gov", ".edu", ".us", ".org"}

// PersonSource is the outcome of person source resolution. Weak marks a
// synthesized stub; Stored reports whether this run wrote the corpus (false
// when the storage-first check hit).
type PersonSource struct {
	Text   string
	URL    string
	Weak   bool
	Stored bool
}

// PersonResolver finds source text for a person: stored corpus, then exact
// Wikipedia title, then Wikipedia search, then general web search, then a
// stub. Every path ends with usable text.
type PersonResolver struct {
	wiki   wikipedia.Client
	search tavily.Client
	web    *WebExtractor
	corpus *corpus.Store
}

func NewPersonResolver(wiki wikipedia.Client, search tavily.Client, web *WebExtractor, store *corpus.Store) *PersonResolver {
	return &PersonResolver{wiki: wiki, search: search, web: web, corpus: store}
}

// Resolve produces source text for the person, bounded by conc concurrent
// network calls. The result is persisted exactly once so later runs
// short-circuit on storage.
func (r *PersonResolver) Resolve(ctx context.Context, p model.Person, conc int) (*PersonSource, error) {
	base := corpus.PersonBase(p.ID)

	exists, err := r.corpus.Exists(ctx, base)
	if err != nil {
		return nil, eris.Wrapf(err, "resolver: storage check for person %d", p.ID)
	}
	if exists {
		text, err := r.corpus.Load(ctx, base, conc)
		if err != nil {
			return nil, eris.Wrapf(err, "resolver: load stored corpus for person %d", p.ID)
		}
		zap.L().Debug("resolver: stored corpus hit", zap.Int64("person_id", p.ID))
		return &PersonSource{Text: text}, nil
	}

	src := r.fetch(ctx, p, conc)
	if _, err := r.corpus.Save(ctx, base, src.Text); err != nil {
		return nil, eris.Wrapf(err, "resolver: persist corpus for person %d", p.ID)
	}
	src.Stored = true
	return src, nil
}

// fetch runs the network stages. It never fails: a person without any
// findable source degrades to a flagged stub.
func (r *PersonResolver) fetch(ctx context.Context, p model.Person, conc int) *PersonSource {
	if src := r.exactTitle(ctx, p.Name); src != nil {
		return src
	}
	if src := r.searchWiki(ctx, p, conc); src != nil {
		return src
	}
	if src := r.genericFallback(ctx, p, conc); src != nil {
		return src
	}
	zap.L().Info("resolver: no source found, stubbing", zap.String("name", p.Name))
	return &PersonSource{Text: stubFor(p), Weak: true}
}

// exactTitle tries the name as a page title directly.
func (r *PersonResolver) exactTitle(ctx context.Context, name string) *PersonSource {
	src, err := r.tryTitle(ctx, name)
	if err != nil {
		zap.L().Debug("resolver: exact title miss", zap.String("name", name), zap.Error(err))
		return nil
	}
	return src
}

// tryTitle fetches summary then body for one candidate title, rejecting
// disambiguation pages and short bodies.
func (r *PersonResolver) tryTitle(ctx context.Context, title string) (*PersonSource, error) {
	sum, err := r.wiki.Summary(ctx, title)
	if err != nil {
		return nil, err
	}
	if sum.IsDisambiguation() || strings.Contains(strings.ToLower(sum.Title), "(disambiguation)") {
		return nil, eris.Errorf("resolver: %q is a disambiguation page", title)
	}
	text, err := r.wiki.Plaintext(ctx, sum.Title)
	if err != nil {
		return nil, err
	}
	if len(text) < minBodyLen {
		return nil, eris.Errorf("resolver: body for %q too short (%d chars)", title, len(text))
	}
	return &PersonSource{
		Text: text,
		URL:  "https://en.wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(sum.Title, " ", "_")),
	}, nil
}

// searchWiki collects candidate titles across the query variants and races
// them, first clean page wins.
func (r *PersonResolver) searchWiki(ctx context.Context, p model.Person, conc int) *PersonSource {
	var titles []string
	seen := map[string]bool{}
	for _, q := range queryVariants(p) {
		pages, err := r.wiki.SearchTitles(ctx, q, maxRacedCandidates)
		if err != nil {
			zap.L().Debug("resolver: title search failed", zap.String("query", q), zap.Error(err))
			continue
		}
		for _, pg := range pages {
			if !seen[pg.Title] {
				seen[pg.Title] = true
				titles = append(titles, pg.Title)
			}
		}
	}
	if len(titles) > maxRacedCandidates {
		titles = titles[:maxRacedCandidates]
	}
	return r.race(ctx, conc, titles, func(ctx context.Context, title string) (*PersonSource, error) {
		return r.tryTitle(ctx, title)
	})
}

// genericFallback searches the open web, preferring official hosts, and
// extracts the winning page.
func (r *PersonResolver) genericFallback(ctx context.Context, p model.Person, conc int) *PersonSource {
	queries := []string{
		p.Name + " official site",
		p.Name + " biography",
		p.Name + " site:.gov OR site:.edu OR site:.org OR site:.us",
	}
	var candidates []string
	seen := map[string]bool{}
	for _, q := range queries {
		results, err := r.search.Search(ctx, q, tavily.WithMaxResults(5))
		if err != nil {
			zap.L().Debug("resolver: web search failed", zap.String("query", q), zap.Error(err))
			continue
		}
		for _, res := range results {
			if isWikiFamily(res.URL) || seen[res.URL] {
				continue
			}
			seen[res.URL] = true
			candidates = append(candidates, res.URL)
		}
	}
	rankOfficialFirst(candidates)
	if len(candidates) > maxRacedCandidates {
		candidates = candidates[:maxRacedCandidates]
	}
	src := r.race(ctx, conc, candidates, func(ctx context.Context, u string) (*PersonSource, error) {
		text, err := r.web.Extract(ctx, u)
		if err != nil {
			return nil, err
		}
		if len(text) < minBodyLen {
			return nil, eris.Errorf("resolver: extracted body for %s too short", u)
		}
		return &PersonSource{Text: text, URL: u}, nil
	})
	if src != nil {
		// A non-encyclopedia source is usable but weaker signal.
		src.Weak = true
	}
	return src
}

// race runs candidate tasks through firstSuccessful. Losers are cancelled;
// all candidates are pure reads.
func (r *PersonResolver) race(ctx context.Context, conc int, candidates []string, try func(context.Context, string) (*PersonSource, error)) *PersonSource {
	if len(candidates) == 0 {
		return nil
	}
	tasks := make([]func(context.Context) (*PersonSource, error), len(candidates))
	for i, c := range candidates {
		c := c
		tasks[i] = func(ctx context.Context) (*PersonSource, error) {
			return try(ctx, c)
		}
	}
	src, err := limiter.FirstSuccessful(ctx, conc, tasks)
	if err != nil {
		zap.L().Debug("resolver: all raced candidates failed", zap.Error(err))
		return nil
	}
	return src
}

// queryVariants builds 1-3 search queries from the name and the role hint.
func queryVariants(p model.Person) []string {
	variants := []string{p.Name}
	if role := roleQueryWord(fusion.RoleFromHint(p.RoleHint)); role != "" {
		variants = append(variants, p.Name+" "+role, p.Name+" "+role+" United States")
	}
	return variants
}

func roleQueryWord(office model.OfficeType) string {
	switch office {
	case model.OfficeVicePresident:
		return "vice president"
	case model.OfficeCabinet:
		return "secretary"
	case "":
		return ""
	default:
		return string(office)
	}
}

func isWikiFamily(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Host)
	for _, w := range wikiFamilyHosts {
		if host == w || strings.HasSuffix(host, "."+w) {
			return true
		}
	}
	return false
}

// rankOfficialFirst stably moves government/education hosts ahead of the
// rest, preserving search order within each group.
func rankOfficialFirst(urls []string) {
	ranked := make([]string, 0, len(urls))
	var rest []string
	for _, raw := range urls {
		if isOfficialHost(raw) {
			ranked = append(ranked, raw)
		} else {
			rest = append(rest, raw)
		}
	}
	copy(urls, append(ranked, rest...))
}

func isOfficialHost(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Host)
	for _, tld := range officialTLDs {
		if strings.HasSuffix(host, tld) {
			return true
		}
	}
	return false
}

// stubFor synthesizes the minimal corpus for a person nothing was found
// about. The record carries weak=true alongside it.
func stubFor(p model.Person) string {
	if strings.TrimSpace(p.RoleHint) != "" {
		return fmt.Sprintf("%s. %s.", p.Name, strings.TrimSpace(p.RoleHint))
	}
	return p.Name + "."
}
