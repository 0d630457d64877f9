package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civiclens/enrich-cli/internal/billmeta"
	"github.com/civiclens/enrich-cli/internal/model"
	"github.com/civiclens/enrich-cli/pkg/tavily"
)

// LegislationSource is the outcome of bill source resolution: the canonical
// bill-detail URL and its extracted text. There is no degraded form, a bill
// without extractable text fails the run.
type LegislationSource struct {
	Text string
	URL  string
}

// LegislationResolver locates the congress.gov bill page for a piece of
// legislation and extracts its text. Always fetches fresh: bill status
// moves, so stored text is never trusted.
type LegislationResolver struct {
	search tavily.Client
	web    *WebExtractor
}

func NewLegislationResolver(search tavily.Client, web *WebExtractor) *LegislationResolver {
	return &LegislationResolver{search: search, web: web}
}

// Resolve finds and extracts the canonical bill page. Every failure here is
// fatal to the enrichment run.
func (r *LegislationResolver) Resolve(ctx context.Context, leg model.Legislation) (*LegislationSource, error) {
	root, err := r.findBillURL(ctx, leg)
	if err != nil {
		return nil, err
	}

	text, err := r.web.Extract(ctx, root)
	if err != nil {
		return nil, eris.Wrapf(err, "resolver: extract bill page %s", root)
	}
	if strings.TrimSpace(text) == "" {
		return nil, eris.Errorf("resolver: bill page %s extracted empty", root)
	}
	zap.L().Debug("resolver: bill source resolved",
		zap.Int64("legislation_id", leg.ID), zap.String("url", root))
	return &LegislationSource{Text: text, URL: root}, nil
}

// findBillURL searches congress.gov for the bill and returns the first hit
// normalized to its canonical root.
func (r *LegislationResolver) findBillURL(ctx context.Context, leg model.Legislation) (string, error) {
	for _, query := range billQueries(leg) {
		results, err := r.search.Search(ctx, query,
			tavily.WithDomains("congress.gov"), tavily.WithMaxResults(5))
		if err != nil {
			zap.L().Debug("resolver: bill search failed", zap.String("query", query), zap.Error(err))
			continue
		}
		for _, res := range results {
			if root, ok := billmeta.NormalizeRoot(res.URL); ok {
				return root, nil
			}
		}
	}
	return "", eris.Errorf("resolver: no bill page found for %q", leg.Name)
}

// billQueries builds the search attempts: collapsed identifier with a
// congress hint when known, then the raw name pinned to the domain.
func billQueries(leg model.Legislation) []string {
	collapsed := billmeta.CollapseBillName(leg.Name)
	var queries []string
	if collapsed != "" {
		if leg.Congress != nil && *leg.Congress != "" {
			queries = append(queries, fmt.Sprintf("%s %s congress", collapsed, *leg.Congress))
		}
		queries = append(queries, collapsed)
	}
	queries = append(queries, leg.Name+" site:congress.gov")
	return queries
}
