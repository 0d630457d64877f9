package model

// ExtractionSource identifies which pass produced an extraction result.
type ExtractionSource string

const (
	SourceLLM           ExtractionSource = "llm"
	SourceDeterministic ExtractionSource = "deterministic"
)

// ExtractionResult is the transient output of a person extraction pass.
// Never persisted directly; only fused, accepted fields land on a record.
type ExtractionResult struct {
	OfficeType *OfficeType
	PartyType  *PartyType
	StateCode  *string
	Incumbent  *bool
	Evidence   map[string]string
	Confidence float64
	Source     ExtractionSource
}

// Pillars holds the six normalized influence signals, each in [0,1].
type Pillars struct {
	Structural    float64 // P1: office base + leadership boosts
	Tenure        float64 // P2: years in role / 12
	Documentation float64 // P3: corpus depth
	Prominence    float64 // P4: media/year density
	Committee     float64 // P5: committee network, legislators only
	Movement      float64 // P6: organizational affiliation flag
}

// BillMeta is the transient output of legislation metadata resolution.
type BillMeta struct {
	Status       BillStatus
	DatePretty   string
	SponsorName  string
	SponsorParty string
	SponsorState string
}
