// Package model defines the entity records and enumerations shared across
// the enrichment pipeline.
package model

import "time"

// OfficeType classifies the office a person holds or seeks.
type OfficeType string

const (
	OfficePresident      OfficeType = "president"
	OfficeVicePresident  OfficeType = "vice_president"
	OfficeSenator        OfficeType = "senator"
	OfficeRepresentative OfficeType = "representative"
	OfficeGovernor       OfficeType = "governor"
	OfficeMayor          OfficeType = "mayor"
	OfficeCabinet        OfficeType = "cabinet"
	OfficeCandidate      OfficeType = "candidate"
	OfficeOfficial       OfficeType = "official"
)

// PartyType is a party affiliation code.
type PartyType string

const (
	PartyRepublican  PartyType = "R"
	PartyDemocrat    PartyType = "D"
	PartyIndependent PartyType = "I"
	PartyOther       PartyType = "other"
)

// GovLevel is the level of government an office belongs to.
type GovLevel string

const (
	GovFederal GovLevel = "federal"
	GovState   GovLevel = "state"
	GovLocal   GovLevel = "local"
)

// Tier gates how much content the app reveals for an entity.
type Tier string

const (
	TierBase Tier = "base"
	TierSoft Tier = "soft"
	TierHard Tier = "hard"
)

// Demote lowers a tier by exactly one step. Base is a fixed point.
func (t Tier) Demote() Tier {
	switch t {
	case TierHard:
		return TierSoft
	case TierSoft:
		return TierBase
	default:
		return TierBase
	}
}

// BillStatus is the lifecycle state of a piece of legislation.
type BillStatus string

const (
	BillProcessing BillStatus = "processing"
	BillFailed     BillStatus = "failed"
	BillPassed     BillStatus = "passed"
)

// BillLevel distinguishes national from state legislation.
type BillLevel string

const (
	BillNational BillLevel = "national"
	BillState    BillLevel = "state"
)

// Person is an entity record for a public figure. The id and name are
// read-only inputs; pointer fields are fillable by the pipeline and nil
// while unset.
type Person struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	RoleHint string `json:"role_hint,omitempty"`

	OfficeType *OfficeType `json:"office_type,omitempty"`
	GovLevel   *GovLevel   `json:"gov_level,omitempty"`
	PartyType  *PartyType  `json:"party_type,omitempty"`
	StateCode  *string     `json:"state_code,omitempty"`
	Slug       *string     `json:"slug,omitempty"`
	LimitScore *float64    `json:"limit_score,omitempty"`
	Tier       *Tier       `json:"tier,omitempty"`
	Weak       bool        `json:"weak"`
	Indexed    bool        `json:"indexed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Legislation is an entity record for a bill. Name is the display title;
// SponsorHint is free text used to disambiguate search.
type Legislation struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	SponsorHint string `json:"sponsor_hint,omitempty"`

	BillLevel  *BillLevel  `json:"bill_level,omitempty"`
	SubName    *string     `json:"sub_name,omitempty"`
	BillStatus *BillStatus `json:"bill_status,omitempty"`
	BillID     *string     `json:"bill_id,omitempty"`
	Congress   *string     `json:"congress,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PersonPatch is the sparse update assembled at the end of an enrichment
// run. Only non-nil fields are written; the store never touches anything
// else.
type PersonPatch struct {
	OfficeType *OfficeType
	GovLevel   *GovLevel
	PartyType  *PartyType
	StateCode  *string
	Slug       *string
	LimitScore *float64
	Tier       *Tier
	Weak       *bool
	Indexed    *bool
}

// IsZero reports whether the patch carries no writes.
func (p PersonPatch) IsZero() bool {
	return p.OfficeType == nil && p.GovLevel == nil && p.PartyType == nil &&
		p.StateCode == nil && p.Slug == nil && p.LimitScore == nil &&
		p.Tier == nil && p.Weak == nil && p.Indexed == nil
}

// LegislationPatch is the sparse update for a bill record.
type LegislationPatch struct {
	BillLevel  *BillLevel
	SubName    *string
	BillStatus *BillStatus
	BillID     *string
	Congress   *string
}

// IsZero reports whether the patch carries no writes.
func (p LegislationPatch) IsZero() bool {
	return p.BillLevel == nil && p.SubName == nil && p.BillStatus == nil &&
		p.BillID == nil && p.Congress == nil
}

// SourceLink records that a stored corpus blob was derived from Link and
// lives at Path. Mirrors the web_content table.
type SourceLink struct {
	ID       int64     `json:"id"`
	OwnerID  int64     `json:"owner_id"`
	IsPerson bool      `json:"is_person"`
	Path     string    `json:"path"`
	Link     string    `json:"link"`
	Used     bool      `json:"used"`
	Created  time.Time `json:"created_at"`
}

// Ptr returns a pointer to v. Convenience for assembling patches.
func Ptr[T any](v T) *T { return &v }
