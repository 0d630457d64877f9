// Package resolver turns entity names into source text: Wikipedia-first for
// people, congress.gov-first for legislation, with a shared three-tier web
// extractor underneath.
package resolver

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civiclens/enrich-cli/internal/resilience"
	"github.com/civiclens/enrich-cli/pkg/jina"
	"github.com/civiclens/enrich-cli/pkg/tavily"
)

// browserUA is sent on direct HTML fetches. Government sites return 403 to
// default Go user agents.
const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// WebExtractor pulls readable text from an arbitrary URL through three
// tiers: the managed extraction API (retried once), a direct HTML fetch
// parsed for readability, and finally a reader proxy. The first non-empty
// result wins.
type WebExtractor struct {
	extract tavily.Client
	reader  jina.Client
	http    *http.Client
}

func NewWebExtractor(extract tavily.Client, reader jina.Client) *WebExtractor {
	return &WebExtractor{
		extract: extract,
		reader:  reader,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient overrides the client used for direct HTML fetches.
func (w *WebExtractor) WithHTTPClient(hc *http.Client) *WebExtractor {
	w.http = hc
	return w
}

// Extract runs the tier chain for the URL. It fails only when every tier
// returns nothing.
func (w *WebExtractor) Extract(ctx context.Context, targetURL string) (string, error) {
	text, err := resilience.DoVal(ctx, resilience.Single(), func(ctx context.Context) (string, error) {
		return w.extract.Extract(ctx, targetURL)
	})
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if err != nil {
		zap.L().Debug("resolver: managed extraction failed", zap.String("url", targetURL), zap.Error(err))
	}

	text, err = w.fetchHTML(ctx, targetURL)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if err != nil {
		zap.L().Debug("resolver: direct fetch failed", zap.String("url", targetURL), zap.Error(err))
	}

	text, err = w.reader.Read(ctx, targetURL)
	if err != nil {
		return "", eris.Wrapf(err, "resolver: all extraction tiers failed for %s", targetURL)
	}
	if strings.TrimSpace(text) == "" {
		return "", eris.Errorf("resolver: all extraction tiers returned empty for %s", targetURL)
	}
	return text, nil
}

// fetchHTML requests the page directly with a browser user agent and a
// same-domain referer, then reduces the HTML to readable text.
func (w *WebExtractor) fetchHTML(ctx context.Context, targetURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "resolver: build request")
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if u, perr := url.Parse(targetURL); perr == nil {
		req.Header.Set("Referer", u.Scheme+"://"+u.Host+"/")
	}

	resp, err := w.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "resolver: fetch html")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("resolver: fetch html: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", eris.Wrap(err, "resolver: read html body")
	}

	parsed, _ := url.Parse(targetURL)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.TextContent, nil
	}
	return stripTags(string(body)), nil
}

var (
	scriptRe = regexp.MustCompile(`(?is)<script\b.*?</script>|<style\b.*?</style>|<noscript\b.*?</noscript>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
)

// stripTags is the crude fallback when readability cannot find an article
// body: drop script and style blocks, remove tags, collapse blank runs.
func stripTags(html string) string {
	text := scriptRe.ReplaceAllString(html, " ")
	text = tagRe.ReplaceAllString(text, "\n")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	return blankRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
}
