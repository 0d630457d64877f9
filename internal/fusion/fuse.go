package fusion

import (
	"context"

	"go.uber.org/zap"

	"github.com/civiclens/enrich-cli/internal/model"
	"github.com/civiclens/enrich-cli/pkg/anthropic"
)

// OverwriteThreshold is the confidence a fresh extraction must clear to
// replace a value that is already stored on a record.
const OverwriteThreshold = 0.8

// Prefer implements the write-once rule as a pure function: keep existing
// unless it is empty, or the fresh extraction's confidence clears the
// threshold.
func Prefer[T any](existing, fresh *T, confidence, threshold float64) *T {
	if existing == nil {
		return fresh
	}
	if fresh == nil {
		return existing
	}
	if confidence >= threshold {
		return fresh
	}
	return existing
}

// Extractor fuses the deterministic and LLM extraction passes.
type Extractor struct {
	llm anthropic.Client
}

// NewExtractor creates an Extractor backed by the given model client.
func NewExtractor(llm anthropic.Client) *Extractor {
	return &Extractor{llm: llm}
}

// Extract produces the fused field set for a person corpus. A failed or
// malformed LLM pass degrades to the deterministic result; it is never a
// pipeline failure.
func (e *Extractor) Extract(ctx context.Context, corpus, name, roleHint string) model.ExtractionResult {
	slice := Slice(corpus)
	det := Deterministic(slice)

	llmRes, err := llmPass(ctx, e.llm, slice, name, roleHint)
	if err != nil {
		zap.L().Warn("llm extraction pass failed, using deterministic result",
			zap.String("name", name),
			zap.Error(err),
		)
		return applyHouseOverride(det, slice)
	}

	fused := model.ExtractionResult{
		Source:   model.SourceLLM,
		Evidence: llmRes.Evidence,
	}

	// LLM values win where present; deterministic fills the gaps.
	fused.OfficeType = coalesce(llmRes.office(), det.OfficeType)
	fused.PartyType = coalesce(llmRes.party(), det.PartyType)
	fused.Incumbent = coalesce(llmRes.Incumbent, det.Incumbent)

	// State resolution order: LLM code, LLM name via table, deterministic
	// proximity, deterministic weak scan.
	if code := llmRes.state(); code != nil {
		fused.StateCode = code
	} else if code := ProximityState(slice); code != nil {
		fused.StateCode = code
	} else {
		fused.StateCode = WeakScanState(slice)
	}

	fused.Confidence = llmConfidence(fused, llmRes)
	return applyHouseOverride(fused, slice)
}

// applyHouseOverride forces senator to representative when the slice
// carries strong House cues, regardless of which pass produced the value.
func applyHouseOverride(res model.ExtractionResult, slice string) model.ExtractionResult {
	if res.OfficeType != nil && *res.OfficeType == model.OfficeSenator && HasHouseCues(slice) {
		rep := model.OfficeRepresentative
		res.OfficeType = &rep
	}
	return res
}

// llmConfidence builds the additive confidence score for an LLM-backed
// result: corroborated fields count more than merely present ones.
func llmConfidence(fused model.ExtractionResult, llmRes *llmExtraction) float64 {
	c := 0.0
	if fused.OfficeType != nil {
		if llmRes.evidenceFor("office") {
			c += 0.35
		} else {
			c += 0.25
		}
	}
	if fused.StateCode != nil {
		if llmRes.evidenceFor("state") {
			c += 0.30
		} else {
			c += 0.20
		}
	}
	if fused.PartyType != nil {
		if llmRes.evidenceFor("party") {
			c += 0.20
		} else {
			c += 0.15
		}
	}
	if fused.Incumbent != nil {
		c += 0.10
	}
	if c > 1 {
		c = 1
	}
	return c
}

func coalesce[T any](a, b *T) *T {
	if a != nil {
		return a
	}
	return b
}
