// Package billmeta resolves legislation metadata: canonical bill ids from
// congress.gov URLs, and status/date/sponsor extraction from bill text.
package billmeta

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/civiclens/enrich-cli/internal/model"
)

// billPathRe matches the bill-detail path shape
// /bill/{ordinal}-congress/{type}/{number}, ignoring any sub-page suffix.
var billPathRe = regexp.MustCompile(`^/bill/(\d+(?:st|nd|rd|th))-congress/([a-z-]+)/(\d+)`)

// billTypePrefix maps congress.gov bill-type path segments to canonical id
// prefixes.
var billTypePrefix = map[string]string{
	"house-bill":                   "H.R.",
	"senate-bill":                  "S.",
	"house-joint-resolution":       "H.J.Res.",
	"senate-joint-resolution":      "S.J.Res.",
	"house-concurrent-resolution":  "H.Con.Res.",
	"senate-concurrent-resolution": "S.Con.Res.",
	"house-resolution":             "H.Res.",
	"house-simple-resolution":      "H.Res.",
	"senate-resolution":            "S.Res.",
	"senate-simple-resolution":     "S.Res.",
}

// NormalizeRoot truncates a congress.gov bill URL to its canonical root,
// stripping /text, /actions, and any other sub-page suffix. The same bill
// is linked from many sub-pages and must be treated as one source.
func NormalizeRoot(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}
	if !strings.HasSuffix(strings.ToLower(u.Host), "congress.gov") {
		return "", false
	}
	m := billPathRe.FindStringSubmatch(u.Path)
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("https://%s/bill/%s-congress/%s/%s", u.Host, m[1], m[2], m[3]), true
}

// BillIDFromURL derives the canonical bill id (e.g. "H.R.146") from a
// normalized bill URL via the fixed type-to-prefix table.
func BillIDFromURL(root string) (string, bool) {
	u, err := url.Parse(root)
	if err != nil {
		return "", false
	}
	m := billPathRe.FindStringSubmatch(u.Path)
	if m == nil {
		return "", false
	}
	prefix, ok := billTypePrefix[m[2]]
	if !ok {
		return "", false
	}
	return prefix + m[3], true
}

// CongressFromURL derives the congress ordinal (e.g. "119th") from a
// normalized bill URL.
func CongressFromURL(root string) (string, bool) {
	u, err := url.Parse(root)
	if err != nil {
		return "", false
	}
	m := billPathRe.FindStringSubmatch(u.Path)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// CollapseBillName reduces a display bill id to its collapsed search form:
// lowercased, non-alphanumerics stripped ("H.Res.537" -> "hres537").
func CollapseBillName(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// InferBillLevel classifies the bill by its source host. congress.gov is
// the only national source the pipeline targets.
func InferBillLevel(root string) model.BillLevel {
	u, err := url.Parse(root)
	if err == nil && strings.HasSuffix(strings.ToLower(u.Host), "congress.gov") {
		return model.BillNational
	}
	return model.BillState
}
