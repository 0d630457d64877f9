package billmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/enrich-cli/internal/model"
)

func TestNormalizeRoot_StripsSubPages(t *testing.T) {
	want := "https://www.congress.gov/bill/119th-congress/senate-bill/146"
	for _, raw := range []string{
		"https://www.congress.gov/bill/119th-congress/senate-bill/146",
		"https://www.congress.gov/bill/119th-congress/senate-bill/146/text",
		"https://www.congress.gov/bill/119th-congress/senate-bill/146/actions",
		"https://www.congress.gov/bill/119th-congress/senate-bill/146/cosponsors?s=1",
	} {
		got, ok := NormalizeRoot(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestNormalizeRoot_Rejects(t *testing.T) {
	for _, raw := range []string{
		"https://www.congress.gov/member/jane-doe/D000001",
		"https://example.com/bill/119th-congress/senate-bill/146",
		"not a url",
		"",
	} {
		_, ok := NormalizeRoot(raw)
		assert.False(t, ok, raw)
	}
}

func TestBillIDFromURL(t *testing.T) {
	cases := map[string]string{
		"https://www.congress.gov/bill/119th-congress/house-bill/25":                   "H.R.25",
		"https://www.congress.gov/bill/119th-congress/senate-bill/146":                 "S.146",
		"https://www.congress.gov/bill/118th-congress/house-joint-resolution/7":        "H.J.Res.7",
		"https://www.congress.gov/bill/118th-congress/senate-joint-resolution/12":      "S.J.Res.12",
		"https://www.congress.gov/bill/119th-congress/house-concurrent-resolution/3":   "H.Con.Res.3",
		"https://www.congress.gov/bill/119th-congress/senate-concurrent-resolution/9":  "S.Con.Res.9",
		"https://www.congress.gov/bill/119th-congress/house-resolution/537":            "H.Res.537",
		"https://www.congress.gov/bill/119th-congress/senate-resolution/44":            "S.Res.44",
	}
	for root, want := range cases {
		got, ok := BillIDFromURL(root)
		require.True(t, ok, root)
		assert.Equal(t, want, got)
	}

	_, ok := BillIDFromURL("https://www.congress.gov/bill/119th-congress/unknown-type/1")
	assert.False(t, ok)
}

func TestCongressFromURL(t *testing.T) {
	got, ok := CongressFromURL("https://www.congress.gov/bill/119th-congress/senate-bill/146")
	require.True(t, ok)
	assert.Equal(t, "119th", got)

	got, ok = CongressFromURL("https://www.congress.gov/bill/103rd-congress/house-bill/1")
	require.True(t, ok)
	assert.Equal(t, "103rd", got)
}

func TestCollapseBillName(t *testing.T) {
	assert.Equal(t, "hres537", CollapseBillName("H.Res.537"))
	assert.Equal(t, "hr25", CollapseBillName("H.R. 25"))
	assert.Equal(t, "sjres12", CollapseBillName("S.J.Res. 12"))
}

func TestInferBillLevel(t *testing.T) {
	assert.Equal(t, model.BillNational,
		InferBillLevel("https://www.congress.gov/bill/119th-congress/senate-bill/146"))
	assert.Equal(t, model.BillState,
		InferBillLevel("https://legislature.ohio.gov/bills/hb-33"))
}
