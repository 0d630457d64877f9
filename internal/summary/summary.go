// Package summary produces the reader-facing bill digest from a stored
// corpus. Triggered after enrichment; a failure here never fails the run.
package summary

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/civiclens/enrich-cli/pkg/anthropic"
)

// Word budgets per section. The model is asked to stay under these; replies
// that overshoot by more than the tolerance are trimmed at a word boundary.
const (
	overviewWords    = 80
	agendaWords      = 50
	impactWords      = 50
	defaultTolerance = 10
)

// corpusLimit caps how much bill text goes into the prompt.
const corpusLimit = 110_000

// BillSummary is the three-section digest shown to readers.
type BillSummary struct {
	Overview string `json:"overview"`
	Agenda   string `json:"agenda"`
	Impact   string `json:"impact"`
}

// Summarizer turns a bill corpus into a digest.
type Summarizer interface {
	Summarize(ctx context.Context, corpus string) (*BillSummary, error)
}

const systemPrompt = `You summarize a United States bill for a general audience.
Respond with ONLY a JSON object with exactly these keys:
{
  "overview": what the bill does, at most %OVERVIEW% words,
  "agenda": the policy goal behind it, at most %AGENDA% words,
  "impact": who is affected and how, at most %IMPACT% words
}
Plain language, no legislative jargon, no editorializing.`

// LLMSummarizer is the model-backed Summarizer.
type LLMSummarizer struct {
	llm       anthropic.Client
	tolerance int
}

// Option configures the summarizer.
type Option func(*LLMSummarizer)

// WithTolerance sets how many words past a section budget a reply may run
// before it is trimmed.
func WithTolerance(words int) Option {
	return func(s *LLMSummarizer) {
		if words >= 0 {
			s.tolerance = words
		}
	}
}

func New(llm anthropic.Client, opts ...Option) *LLMSummarizer {
	s := &LLMSummarizer{llm: llm, tolerance: defaultTolerance}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LLMSummarizer) Summarize(ctx context.Context, corpus string) (*BillSummary, error) {
	if strings.TrimSpace(corpus) == "" {
		return nil, eris.New("summary: empty corpus")
	}
	if len(corpus) > corpusLimit {
		corpus = corpus[:corpusLimit]
	}

	prompt := strings.NewReplacer(
		"%OVERVIEW%", strconv.Itoa(overviewWords),
		"%AGENDA%", strconv.Itoa(agendaWords),
		"%IMPACT%", strconv.Itoa(impactWords),
	).Replace(systemPrompt)

	raw, err := s.llm.CompleteJSON(ctx, prompt, corpus)
	if err != nil {
		return nil, eris.Wrap(err, "summary: llm call")
	}
	var out BillSummary
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, eris.Wrap(err, "summary: unparseable reply")
	}
	if out.Overview == "" {
		return nil, eris.New("summary: reply missing overview")
	}

	out.Overview = s.trim(out.Overview, overviewWords)
	out.Agenda = s.trim(out.Agenda, agendaWords)
	out.Impact = s.trim(out.Impact, impactWords)
	return &out, nil
}

// trim cuts text back to the budget when it overshoots past the tolerance.
// Overshoots within tolerance pass through untouched.
func (s *LLMSummarizer) trim(text string, budget int) string {
	words := strings.Fields(text)
	if len(words) <= budget+s.tolerance {
		return text
	}
	return strings.Join(words[:budget], " ")
}
