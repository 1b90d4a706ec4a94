// Package insights turns a month of transactions and budgets into
// model-generated spending insights.
package insights

import (
	"encoding/json"

	"google.golang.org/genai"
)

// Response field names. The prompt contract and the response schema are
// both generated from responseFields so the two cannot drift apart.
const (
	FieldBreakdown   = "breakdown"
	FieldSavingTips  = "saving_tips"
	FieldRiskAreas   = "risk_areas"
	FieldHealthScore = "financial_health_score"
)

const (
	// MinHealthScore and MaxHealthScore bound financial_health_score.
	MinHealthScore = 0
	MaxHealthScore = 100

	jsonMIMEType = "application/json"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindStringArray
	kindNumber
)

type responseField struct {
	name        string
	kind        fieldKind
	contract    string
	description string
}

var responseFields = []responseField{
	{name: FieldBreakdown, kind: kindString, contract: "string", description: "Detailed breakdown of spending patterns"},
	{name: FieldSavingTips, kind: kindStringArray, contract: "array of strings", description: "List of actionable saving tips"},
	{name: FieldRiskAreas, kind: kindStringArray, contract: "array of strings", description: "Financial areas that need attention"},
	{name: FieldHealthScore, kind: kindNumber, contract: "number from 0-100", description: "Financial health score from 0-100"},
}

// Request is the payload accepted by the insights endpoint. Transactions and
// budgets are opaque records; only their JSON text reaches the prompt.
type Request struct {
	Transactions json.RawMessage `json:"transactions" validate:"required,jsonarray"`
	Budgets      json.RawMessage `json:"budgets" validate:"required,jsonarray"`
	Month        int             `json:"month" validate:"required,min=1,max=12"`
	Year         int             `json:"year" validate:"required,min=1900,max=9999"`
}

// Response is the structured result relayed from the model. Every field is
// optional because the provider output is untrusted; absent fields are
// omitted when encoded.
type Response struct {
	Breakdown   *string  `json:"breakdown,omitempty"`
	SavingTips  []string `json:"saving_tips,omitempty"`
	RiskAreas   []string `json:"risk_areas,omitempty"`
	HealthScore *float64 `json:"financial_health_score,omitempty"`

	// passthrough holds the model's object exactly as parsed. When set it is
	// what gets encoded, including mistyped and unknown keys.
	passthrough json.RawMessage
}

// MarshalJSON relays the parsed model object when one was kept. Otherwise it
// encodes the typed fields, keeping empty-but-present arrays as [].
func (r Response) MarshalJSON() ([]byte, error) {
	if len(r.passthrough) > 0 {
		return r.passthrough, nil
	}
	type wire struct {
		Breakdown   *string   `json:"breakdown,omitempty"`
		SavingTips  *[]string `json:"saving_tips,omitempty"`
		RiskAreas   *[]string `json:"risk_areas,omitempty"`
		HealthScore *float64  `json:"financial_health_score,omitempty"`
	}
	out := wire{Breakdown: r.Breakdown, HealthScore: r.HealthScore}
	if r.SavingTips != nil {
		out.SavingTips = &r.SavingTips
	}
	if r.RiskAreas != nil {
		out.RiskAreas = &r.RiskAreas
	}
	return json.Marshal(out)
}

// IsEmpty reports whether the response encodes as {}.
func (r Response) IsEmpty() bool {
	return len(r.passthrough) == 0 &&
		r.Breakdown == nil && r.SavingTips == nil && r.RiskAreas == nil && r.HealthScore == nil
}

// Typed drops the relayed model object so only the typed fields are encoded.
func (r Response) Typed() Response {
	r.passthrough = nil
	return r
}

// Complete reports whether every field is present and the score is in range.
func (r Response) Complete() bool {
	return r.Breakdown != nil && r.SavingTips != nil && r.RiskAreas != nil &&
		r.HealthScore != nil && ScoreInRange(*r.HealthScore)
}

// Invocation is the per-request model call configuration. It is built fresh
// for each call from the process-wide Config and never mutated afterwards.
type Invocation struct {
	ID       string
	APIKey   string
	Model    string
	MIMEType string
	Schema   *genai.Schema
}
