// Package pipeline orchestrates enrichment runs: resolve sources, extract
// and fuse facts, score influence, and assemble a single end-of-run patch.
package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/civiclens/enrich-cli/internal/billmeta"
	"github.com/civiclens/enrich-cli/internal/corpus"
	"github.com/civiclens/enrich-cli/internal/fusion"
	"github.com/civiclens/enrich-cli/internal/model"
	"github.com/civiclens/enrich-cli/internal/resolver"
	"github.com/civiclens/enrich-cli/internal/scoring"
	"github.com/civiclens/enrich-cli/internal/store"
	"github.com/civiclens/enrich-cli/internal/summary"
)

// PersonSourcer yields source text for a person. Implemented by
// resolver.PersonResolver.
type PersonSourcer interface {
	Resolve(ctx context.Context, p model.Person, conc int) (*resolver.PersonSource, error)
}

// LegislationSourcer yields the canonical page for a bill. Implemented by
// resolver.LegislationResolver.
type LegislationSourcer interface {
	Resolve(ctx context.Context, leg model.Legislation) (*resolver.LegislationSource, error)
}

// Pipeline wires the enrichment stages together.
type Pipeline struct {
	store     store.Store
	corpus    *corpus.Store
	people    PersonSourcer
	bills     LegislationSourcer
	extractor *fusion.Extractor
	scorer    *scoring.Model
	billmeta  *billmeta.Resolver
	digest    summary.Summarizer
	locks     *keyedMutex
}

func New(
	st store.Store,
	cs *corpus.Store,
	people PersonSourcer,
	bills LegislationSourcer,
	extractor *fusion.Extractor,
	scorer *scoring.Model,
	meta *billmeta.Resolver,
	digest summary.Summarizer,
) *Pipeline {
	return &Pipeline{
		store:     st,
		corpus:    cs,
		people:    people,
		bills:     bills,
		extractor: extractor,
		scorer:    scorer,
		billmeta:  meta,
		digest:    digest,
		locks:     newKeyedMutex(),
	}
}

// EnrichPerson runs the full person pipeline for one record. The record is
// patched exactly once at the end; re-running cannot degrade it.
func (p *Pipeline) EnrichPerson(ctx context.Context, id int64, conc int) (*model.Person, error) {
	unlock := p.locks.Lock(fmt.Sprintf("person/%d", id))
	defer unlock()

	rec, err := p.store.GetPerson(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: load person %d", id)
	}
	log := zap.L().With(zap.Int64("person_id", id), zap.String("name", rec.Name))

	src, err := p.people.Resolve(ctx, *rec, conc)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: resolve sources for person %d", id)
	}

	res := p.extractor.Extract(ctx, src.Text, rec.Name, rec.RoleHint)
	patch := p.personPatch(rec, src, res)

	if patch.IsZero() {
		log.Debug("pipeline: nothing new to write")
		return rec, nil
	}
	if err := p.store.PatchPerson(ctx, id, patch); err != nil {
		return nil, eris.Wrapf(err, "pipeline: patch person %d", id)
	}
	log.Info("pipeline: person enriched",
		zap.Bool("weak", src.Weak),
		zap.Float64("confidence", res.Confidence))
	return p.store.GetPerson(ctx, id)
}

// personPatch assembles the single sparse write for the run. Existing
// values survive unless the extraction confidence clears the overwrite
// threshold.
func (p *Pipeline) personPatch(rec *model.Person, src *resolver.PersonSource, res model.ExtractionResult) model.PersonPatch {
	var patch model.PersonPatch

	office := finalOffice(rec, res)
	patch.OfficeType = writeDecision(rec.OfficeType, office, res.Confidence)
	patch.PartyType = writeDecision(rec.PartyType, res.PartyType, res.Confidence)
	patch.StateCode = writeDecision(rec.StateCode, res.StateCode, res.Confidence)

	if level := govLevelFor(valueOr(rec.OfficeType, office)); level != nil {
		patch.GovLevel = writeDecision(rec.GovLevel, level, res.Confidence)
	}

	// Score and tier are write-once, never reconsidered.
	if rec.LimitScore == nil || rec.Tier == nil {
		// Unknown incumbency counts as not incumbent.
		incumbent := res.Incumbent != nil && *res.Incumbent
		score, tier := p.scorer.Evaluate(src.Text, scoringOffice(rec, office), incumbent)
		// A role hint already marking the person as former pins the tier
		// to base no matter what the corpus says.
		if strings.Contains(strings.ToLower(rec.RoleHint), "former") {
			tier = model.TierBase
		}
		if rec.LimitScore == nil {
			patch.LimitScore = &score
		}
		if rec.Tier == nil {
			patch.Tier = &tier
		}
	}

	// Weak is sticky: set when the run degraded, never cleared.
	if src.Weak && !rec.Weak {
		patch.Weak = model.Ptr(true)
	}
	if rec.Slug == nil {
		patch.Slug = model.Ptr(Slugify(rec.Name))
	}
	if !rec.Indexed {
		patch.Indexed = model.Ptr(true)
	}
	return patch
}

// finalOffice picks the office to record: the fused extraction first, then
// the role hint, then the generic fallback.
func finalOffice(rec *model.Person, res model.ExtractionResult) *model.OfficeType {
	if res.OfficeType != nil {
		return res.OfficeType
	}
	if hinted := fusion.RoleFromHint(rec.RoleHint); hinted != "" {
		return &hinted
	}
	return model.Ptr(model.OfficeOfficial)
}

// scoringOffice is the office the scorer sees: the stored one when write-
// once keeps it, else the freshly derived one.
func scoringOffice(rec *model.Person, fresh *model.OfficeType) model.OfficeType {
	if rec.OfficeType != nil {
		return *rec.OfficeType
	}
	if fresh != nil {
		return *fresh
	}
	return model.OfficeOfficial
}

// writeDecision turns the keep-or-overwrite rule into a patch field: nil
// means leave the column alone.
func writeDecision[T any](existing, fresh *T, confidence float64) *T {
	chosen := fusion.Prefer(existing, fresh, confidence, fusion.OverwriteThreshold)
	if chosen == existing {
		return nil
	}
	return chosen
}

func valueOr[T any](primary, fallback *T) *T {
	if primary != nil {
		return primary
	}
	return fallback
}

func govLevelFor(office *model.OfficeType) *model.GovLevel {
	if office == nil {
		return nil
	}
	switch *office {
	case model.OfficePresident, model.OfficeVicePresident, model.OfficeSenator,
		model.OfficeRepresentative, model.OfficeCabinet:
		return model.Ptr(model.GovFederal)
	case model.OfficeGovernor:
		return model.Ptr(model.GovState)
	case model.OfficeMayor:
		return model.Ptr(model.GovLocal)
	default:
		return nil
	}
}

// EnrichLegislation runs the bill pipeline. Any failure leaves the record
// untouched; there is no degraded outcome for a bill.
func (p *Pipeline) EnrichLegislation(ctx context.Context, id int64, conc int) (*model.Legislation, error) {
	unlock := p.locks.Lock(fmt.Sprintf("legislation/%d", id))
	defer unlock()

	rec, err := p.store.GetLegislation(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: load legislation %d", id)
	}
	log := zap.L().With(zap.Int64("legislation_id", id), zap.String("name", rec.Name))

	src, err := p.bills.Resolve(ctx, *rec)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: resolve legislation %d", id)
	}

	link, err := p.store.CreateSourceLink(ctx, rec.ID, false, src.URL)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: record source link for legislation %d", id)
	}
	base := corpus.LegislationBase(rec.ID, link.ID)
	if _, err := p.corpus.Save(ctx, base, src.Text); err != nil {
		return nil, eris.Wrapf(err, "pipeline: persist corpus for legislation %d", id)
	}
	if err := p.store.UpdateSourceLinkPath(ctx, link.ID, base); err != nil {
		return nil, eris.Wrapf(err, "pipeline: finalize source link %d", link.ID)
	}

	meta := p.billmeta.Resolve(ctx, src.Text)
	patch := legislationPatch(rec, src.URL, meta)
	if !patch.IsZero() {
		if err := p.store.PatchLegislation(ctx, id, patch); err != nil {
			return nil, eris.Wrapf(err, "pipeline: patch legislation %d", id)
		}
	}
	log.Info("pipeline: legislation enriched",
		zap.String("url", src.URL), zap.String("status", string(meta.Status)))

	// The digest is best effort; its failure never fails the run.
	if p.digest != nil {
		if _, derr := p.digest.Summarize(ctx, src.Text); derr != nil {
			log.Warn("pipeline: bill digest failed", zap.Error(derr))
		}
	}
	return p.store.GetLegislation(ctx, id)
}

// legislationPatch maps the resolved metadata onto the record. Every field
// is fill-if-empty: a value already on the record survives the run. The
// bill id and congress come from the URL alone.
func legislationPatch(rec *model.Legislation, root string, meta model.BillMeta) model.LegislationPatch {
	var patch model.LegislationPatch
	if rec.BillLevel == nil {
		patch.BillLevel = model.Ptr(billmeta.InferBillLevel(root))
	}
	if rec.BillStatus == nil {
		patch.BillStatus = model.Ptr(meta.Status)
	}
	if rec.BillID == nil {
		if billID, ok := billmeta.BillIDFromURL(root); ok {
			patch.BillID = &billID
		}
	}
	if rec.Congress == nil {
		if congress, ok := billmeta.CongressFromURL(root); ok {
			patch.Congress = &congress
		}
	}
	if rec.SubName == nil {
		if sub := billmeta.ComposeSubName(meta); sub != "" {
			patch.SubName = &sub
		}
	}
	return patch
}

var slugCleanRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify renders a display name as a URL slug.
func Slugify(name string) string {
	lowered := cases.Lower(language.AmericanEnglish).String(name)
	slug := slugCleanRe.ReplaceAllString(lowered, "-")
	return strings.Trim(slug, "-")
}
