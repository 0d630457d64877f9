package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/enrich-cli/internal/billmeta"
	"github.com/civiclens/enrich-cli/internal/blob"
	"github.com/civiclens/enrich-cli/internal/corpus"
	"github.com/civiclens/enrich-cli/internal/fusion"
	"github.com/civiclens/enrich-cli/internal/model"
	"github.com/civiclens/enrich-cli/internal/resolver"
	"github.com/civiclens/enrich-cli/internal/scoring"
	"github.com/civiclens/enrich-cli/internal/store"
	"github.com/civiclens/enrich-cli/internal/summary"
	"github.com/civiclens/enrich-cli/pkg/anthropic"
)

type mockLLM struct {
	reply string
	err   error
}

func (m *mockLLM) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return nil, m.err
}

func (m *mockLLM) CompleteJSON(ctx context.Context, system, user string) (json.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return json.RawMessage(m.reply), nil
}

type mockPersonSourcer struct {
	src *resolver.PersonSource
	err error
}

func (m *mockPersonSourcer) Resolve(ctx context.Context, p model.Person, conc int) (*resolver.PersonSource, error) {
	return m.src, m.err
}

type mockBillSourcer struct {
	src *resolver.LegislationSource
	err error
}

func (m *mockBillSourcer) Resolve(ctx context.Context, leg model.Legislation) (*resolver.LegislationSource, error) {
	return m.src, m.err
}

type mockDigest struct {
	err   error
	calls int
}

func (m *mockDigest) Summarize(ctx context.Context, text string) (*summary.BillSummary, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &summary.BillSummary{Overview: "o", Agenda: "a", Impact: "i"}, nil
}

const senatorCorpus = `Jane Doe is an American politician serving as the junior United States Senator from Ohio.
Assumed office January 3, 2021
She is a member of the Democratic Party.
`

const fullLLMReply = `{
	"office_type": "senator",
	"party": "D",
	"state_code": "OH",
	"state_name": "Ohio",
	"incumbent": true,
	"evidence": {
		"office": "junior United States Senator",
		"party": "member of the Democratic Party",
		"state": "Senator from Ohio"
	}
}`

func newTestPipeline(t *testing.T, llm anthropic.Client, people PersonSourcer, bills LegislationSourcer, digest summary.Summarizer) (*Pipeline, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	bucket, err := blob.NewFS(t.TempDir())
	require.NoError(t, err)
	cs := corpus.New(bucket)

	clock := func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	p := New(st, cs, people, bills,
		fusion.NewExtractor(llm),
		scoring.NewWithClock(clock),
		billmeta.NewResolver(llm),
		digest,
	)
	return p, st
}

func TestEnrichPerson_FillsEmptyRecord(t *testing.T) {
	people := &mockPersonSourcer{src: &resolver.PersonSource{Text: senatorCorpus, URL: "https://en.wikipedia.org/wiki/Jane_Doe"}}
	p, st := newTestPipeline(t, &mockLLM{reply: fullLLMReply}, people, nil, nil)
	ctx := context.Background()

	rec, err := st.CreatePerson(ctx, "Jane Doe", "junior senator from Ohio")
	require.NoError(t, err)

	got, err := p.EnrichPerson(ctx, rec.ID, 5)
	require.NoError(t, err)

	require.NotNil(t, got.OfficeType)
	assert.Equal(t, model.OfficeSenator, *got.OfficeType)
	require.NotNil(t, got.PartyType)
	assert.Equal(t, model.PartyDemocrat, *got.PartyType)
	require.NotNil(t, got.StateCode)
	assert.Equal(t, "OH", *got.StateCode)
	require.NotNil(t, got.GovLevel)
	assert.Equal(t, model.GovFederal, *got.GovLevel)
	require.NotNil(t, got.Slug)
	assert.Equal(t, "jane-doe", *got.Slug)
	require.NotNil(t, got.LimitScore)
	require.NotNil(t, got.Tier)
	assert.False(t, got.Weak)
	assert.True(t, got.Indexed)
}

func TestEnrichPerson_WriteOnceKeepsLowConfidence(t *testing.T) {
	// LLM down: deterministic-only confidence stays under the overwrite
	// threshold, so the stored party survives a conflicting fresh value.
	people := &mockPersonSourcer{src: &resolver.PersonSource{Text: senatorCorpus}}
	p, st := newTestPipeline(t, &mockLLM{err: assert.AnError}, people, nil, nil)
	ctx := context.Background()

	rec, err := st.CreatePerson(ctx, "Jane Doe", "")
	require.NoError(t, err)
	require.NoError(t, st.PatchPerson(ctx, rec.ID, model.PersonPatch{
		PartyType: model.Ptr(model.PartyRepublican),
	}))

	got, err := p.EnrichPerson(ctx, rec.ID, 5)
	require.NoError(t, err)

	require.NotNil(t, got.PartyType)
	assert.Equal(t, model.PartyRepublican, *got.PartyType)
	// Empty fields still fill regardless of confidence.
	require.NotNil(t, got.OfficeType)
	assert.Equal(t, model.OfficeSenator, *got.OfficeType)
	require.NotNil(t, got.StateCode)
	assert.Equal(t, "OH", *got.StateCode)
}

func TestEnrichPerson_HighConfidenceOverwrites(t *testing.T) {
	people := &mockPersonSourcer{src: &resolver.PersonSource{Text: senatorCorpus}}
	p, st := newTestPipeline(t, &mockLLM{reply: fullLLMReply}, people, nil, nil)
	ctx := context.Background()

	rec, err := st.CreatePerson(ctx, "Jane Doe", "")
	require.NoError(t, err)
	require.NoError(t, st.PatchPerson(ctx, rec.ID, model.PersonPatch{
		PartyType: model.Ptr(model.PartyRepublican),
	}))

	got, err := p.EnrichPerson(ctx, rec.ID, 5)
	require.NoError(t, err)
	require.NotNil(t, got.PartyType)
	assert.Equal(t, model.PartyDemocrat, *got.PartyType)
}

func TestEnrichPerson_WeakStubStillCompletes(t *testing.T) {
	people := &mockPersonSourcer{src: &resolver.PersonSource{Text: "Jane Doe. county official.", Weak: true, Stored: true}}
	p, st := newTestPipeline(t, &mockLLM{err: assert.AnError}, people, nil, nil)
	ctx := context.Background()

	rec, err := st.CreatePerson(ctx, "Jane Doe", "county official")
	require.NoError(t, err)

	got, err := p.EnrichPerson(ctx, rec.ID, 5)
	require.NoError(t, err)
	assert.True(t, got.Weak)
	assert.True(t, got.Indexed)
	// No extraction signal: the role hint cannot name an office either, so
	// the generic fallback lands.
	require.NotNil(t, got.OfficeType)
	assert.Equal(t, model.OfficeOfficial, *got.OfficeType)
	require.NotNil(t, got.LimitScore)
	require.NotNil(t, got.Tier)
}

func TestEnrichPerson_UnknownIncumbencyDemotesTier(t *testing.T) {
	// No incumbency signal anywhere: the corpus is past tense and the LLM
	// reply omits the field. The tier is demoted one step as if non-incumbent.
	pastCorpus := `Jane Doe is an American politician. She was a United States Senator from Ohio.
She is a member of the Democratic Party.
`
	noIncumbentReply := `{
	"office_type": "senator",
	"party": "D",
	"state_code": "OH",
	"state_name": "Ohio",
	"evidence": {
		"office": "United States Senator",
		"party": "member of the Democratic Party",
		"state": "Senator from Ohio"
	}
}`
	people := &mockPersonSourcer{src: &resolver.PersonSource{Text: pastCorpus}}
	p, st := newTestPipeline(t, &mockLLM{reply: noIncumbentReply}, people, nil, nil)
	ctx := context.Background()

	rec, err := st.CreatePerson(ctx, "Jane Doe", "")
	require.NoError(t, err)

	got, err := p.EnrichPerson(ctx, rec.ID, 5)
	require.NoError(t, err)

	// Senator floor is 0.50, which maps to soft; the demotion lands on base.
	require.NotNil(t, got.LimitScore)
	assert.GreaterOrEqual(t, *got.LimitScore, 0.50)
	require.NotNil(t, got.Tier)
	assert.Equal(t, model.TierBase, *got.Tier)
}

func TestEnrichPerson_FormerRoleHintForcesBaseTier(t *testing.T) {
	// Incumbency cues in the corpus do not matter when the stored role hint
	// already calls the person former.
	people := &mockPersonSourcer{src: &resolver.PersonSource{Text: senatorCorpus}}
	p, st := newTestPipeline(t, &mockLLM{reply: fullLLMReply}, people, nil, nil)
	ctx := context.Background()

	rec, err := st.CreatePerson(ctx, "Jane Doe", "former United States senator")
	require.NoError(t, err)

	got, err := p.EnrichPerson(ctx, rec.ID, 5)
	require.NoError(t, err)
	require.NotNil(t, got.LimitScore)
	assert.GreaterOrEqual(t, *got.LimitScore, 0.50)
	require.NotNil(t, got.Tier)
	assert.Equal(t, model.TierBase, *got.Tier)
}

func TestEnrichPerson_ScoreAndTierWriteOnce(t *testing.T) {
	people := &mockPersonSourcer{src: &resolver.PersonSource{Text: senatorCorpus}}
	p, st := newTestPipeline(t, &mockLLM{reply: fullLLMReply}, people, nil, nil)
	ctx := context.Background()

	rec, err := st.CreatePerson(ctx, "Jane Doe", "")
	require.NoError(t, err)
	require.NoError(t, st.PatchPerson(ctx, rec.ID, model.PersonPatch{
		LimitScore: model.Ptr(0.33),
		Tier:       model.Ptr(model.TierBase),
	}))

	got, err := p.EnrichPerson(ctx, rec.ID, 5)
	require.NoError(t, err)
	assert.InDelta(t, 0.33, *got.LimitScore, 1e-9)
	assert.Equal(t, model.TierBase, *got.Tier)
}

func TestEnrichPerson_ResolveFailureIsFatal(t *testing.T) {
	people := &mockPersonSourcer{err: eris.New("storage down")}
	p, st := newTestPipeline(t, &mockLLM{}, people, nil, nil)
	ctx := context.Background()

	rec, err := st.CreatePerson(ctx, "Jane Doe", "")
	require.NoError(t, err)
	_, err = p.EnrichPerson(ctx, rec.ID, 5)
	assert.Error(t, err)
}

const billPage = `S.146 - Example Act of 2025
Sponsor: Sen. Doe, Jane [D-OH] (Introduced 01/15/2025)
Latest Action: Senate - 03/20/2025 Read twice and referred to committee.
`

func TestEnrichLegislation_Success(t *testing.T) {
	root := "https://www.congress.gov/bill/119th-congress/senate-bill/146"
	bills := &mockBillSourcer{src: &resolver.LegislationSource{Text: billPage, URL: root}}
	digest := &mockDigest{}
	p, st := newTestPipeline(t, &mockLLM{err: assert.AnError}, nil, bills, digest)
	ctx := context.Background()

	rec, err := st.CreateLegislation(ctx, "S.146", "")
	require.NoError(t, err)

	got, err := p.EnrichLegislation(ctx, rec.ID, 5)
	require.NoError(t, err)

	require.NotNil(t, got.BillID)
	assert.Equal(t, "S.146", *got.BillID)
	require.NotNil(t, got.Congress)
	assert.Equal(t, "119th", *got.Congress)
	require.NotNil(t, got.BillLevel)
	assert.Equal(t, model.BillNational, *got.BillLevel)
	require.NotNil(t, got.BillStatus)
	assert.Equal(t, model.BillProcessing, *got.BillStatus)
	require.NotNil(t, got.SubName)
	assert.Equal(t, "March 20, 2025 | Jane Doe (D-OH)", *got.SubName)
	assert.Equal(t, 1, digest.calls)
}

func TestEnrichLegislation_KeepsExistingFields(t *testing.T) {
	// Re-running enrichment never rewrites a field that already has a value:
	// a hand-set status and byline survive, while still-empty fields fill.
	root := "https://www.congress.gov/bill/119th-congress/senate-bill/146"
	bills := &mockBillSourcer{src: &resolver.LegislationSource{Text: billPage, URL: root}}
	p, st := newTestPipeline(t, &mockLLM{err: assert.AnError}, nil, bills, nil)
	ctx := context.Background()

	rec, err := st.CreateLegislation(ctx, "S.146", "")
	require.NoError(t, err)
	require.NoError(t, st.PatchLegislation(ctx, rec.ID, model.LegislationPatch{
		BillStatus: model.Ptr(model.BillPassed),
		SubName:    model.Ptr("curated byline"),
	}))

	got, err := p.EnrichLegislation(ctx, rec.ID, 5)
	require.NoError(t, err)

	require.NotNil(t, got.BillStatus)
	assert.Equal(t, model.BillPassed, *got.BillStatus)
	require.NotNil(t, got.SubName)
	assert.Equal(t, "curated byline", *got.SubName)
	require.NotNil(t, got.BillID)
	assert.Equal(t, "S.146", *got.BillID)
	require.NotNil(t, got.Congress)
	assert.Equal(t, "119th", *got.Congress)
	require.NotNil(t, got.BillLevel)
	assert.Equal(t, model.BillNational, *got.BillLevel)
}

func TestEnrichLegislation_DigestFailureIsNotFatal(t *testing.T) {
	root := "https://www.congress.gov/bill/119th-congress/senate-bill/146"
	bills := &mockBillSourcer{src: &resolver.LegislationSource{Text: billPage, URL: root}}
	p, st := newTestPipeline(t, &mockLLM{err: assert.AnError}, nil, bills, &mockDigest{err: assert.AnError})
	ctx := context.Background()

	rec, err := st.CreateLegislation(ctx, "S.146", "")
	require.NoError(t, err)
	_, err = p.EnrichLegislation(ctx, rec.ID, 5)
	assert.NoError(t, err)
}

func TestEnrichLegislation_FailureLeavesRecordUntouched(t *testing.T) {
	bills := &mockBillSourcer{err: eris.New("no bill page found")}
	p, st := newTestPipeline(t, &mockLLM{}, nil, bills, nil)
	ctx := context.Background()

	rec, err := st.CreateLegislation(ctx, "H.R.9999", "")
	require.NoError(t, err)

	_, err = p.EnrichLegislation(ctx, rec.ID, 5)
	require.Error(t, err)

	got, err := st.GetLegislation(ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got.BillID)
	assert.Nil(t, got.BillStatus)
	assert.Nil(t, got.SubName)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "jane-doe", Slugify("Jane Doe"))
	assert.Equal(t, "martin-o-malley", Slugify("Martin O'Malley"))
	assert.Equal(t, "a-b", Slugify("  A  &  B  "))
}

func TestKeyedMutex_Serializes(t *testing.T) {
	km := newKeyedMutex()
	var active, peak int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("person/1")
			defer unlock()
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, peak)
	assert.Empty(t, km.locks)
}

func TestKeyedMutex_DistinctKeysDoNotContend(t *testing.T) {
	km := newKeyedMutex()
	unlockA := km.Lock("person/1")
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("legislation/1")
		unlockB()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("distinct keys must not block each other")
	}
	unlockA()
}
