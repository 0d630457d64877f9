package fusion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/civiclens/enrich-cli/internal/model"
	"github.com/civiclens/enrich-cli/pkg/anthropic"
)

const personSystemPrompt = `You extract political facts about ONE specific person from text.
Return ONLY a JSON object, no prose, with exactly these keys:
{
  "office_type": "president"|"vice_president"|"senator"|"representative"|"governor"|"mayor"|"cabinet"|"candidate"|"official"|null,
  "party": "R"|"D"|"I"|"other"|null,
  "state_code": two-letter US state/territory code or null,
  "state_name": full state name or null,
  "incumbent": true|false|null,
  "evidence": { "office": verbatim snippet or null, "party": verbatim snippet or null, "state": verbatim snippet or null }
}
Rules:
- Only report a fact if the text states it explicitly for THIS person. The
  text may mention other politicians; never attribute their offices,
  parties, or states to the subject.
- Return null rather than guess. Evidence snippets must be copied verbatim
  from the text.
- "incumbent" is true only if the text indicates current service.`

// llmExtraction mirrors the strict-JSON response shape.
type llmExtraction struct {
	OfficeType *string           `json:"office_type"`
	Party      *string           `json:"party"`
	StateCode  *string           `json:"state_code"`
	StateName  *string           `json:"state_name"`
	Incumbent  *bool             `json:"incumbent"`
	Evidence   map[string]string `json:"evidence"`
}

// llmPass sends the slice and role hint to the extraction model and parses
// the strict-JSON response.
func llmPass(ctx context.Context, llm anthropic.Client, slice, name, roleHint string) (*llmExtraction, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Subject: %s\n", name)
	if roleHint != "" {
		fmt.Fprintf(&sb, "Role hint (may be imprecise): %s\n", roleHint)
	}
	sb.WriteString("\nText:\n")
	sb.WriteString(slice)

	raw, err := llm.CompleteJSON(ctx, personSystemPrompt, sb.String())
	if err != nil {
		return nil, eris.Wrap(err, "fusion: llm extraction")
	}

	var out llmExtraction
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, eris.Wrap(err, "fusion: unmarshal llm extraction")
	}
	return &out, nil
}

// office validates and converts the LLM office value.
func (e *llmExtraction) office() *model.OfficeType {
	if e.OfficeType == nil {
		return nil
	}
	o := model.OfficeType(strings.ToLower(strings.TrimSpace(*e.OfficeType)))
	if !validOffices[o] {
		return nil
	}
	return &o
}

// party validates and converts the LLM party value.
func (e *llmExtraction) party() *model.PartyType {
	if e.Party == nil {
		return nil
	}
	p := model.PartyType(strings.TrimSpace(*e.Party))
	if p != model.PartyOther {
		p = model.PartyType(strings.ToUpper(string(p)))
	}
	if !validParties[p] {
		return nil
	}
	return &p
}

// state resolves the LLM state fields: explicit code first, then the name
// mapped through the state table.
func (e *llmExtraction) state() *string {
	if e.StateCode != nil {
		code := strings.ToUpper(strings.TrimSpace(*e.StateCode))
		if IsValidStateCode(code) {
			return &code
		}
	}
	if e.StateName != nil {
		if code, ok := StateCodeForName(*e.StateName); ok {
			return &code
		}
	}
	return nil
}

func (e *llmExtraction) evidenceFor(key string) bool {
	return strings.TrimSpace(e.Evidence[key]) != ""
}
