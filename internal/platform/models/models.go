package models

import "time"

// KeyCapability selects which provisioning endpoint backs a new key and
// which credential fields the server populates on it.
type KeyCapability string

const (
	CapabilityFull   KeyCapability = "full"
	CapabilityLLM    KeyCapability = "llm"
	CapabilityVector KeyCapability = "vector"
)

func (c KeyCapability) Valid() bool {
	switch c {
	case CapabilityFull, CapabilityLLM, CapabilityVector:
		return true
	}
	return false
}

// PrivateAIKey is a provisioned credential resource. Ownership is exactly one
// of OwnerID (a user) or TeamID (a team). The client never mutates these
// fields locally; budget and spend state live in SpendSnapshot.
type PrivateAIKey struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Region           string `json:"region"`
	DatabaseName     string `json:"database_name,omitempty"`
	DatabaseHost     string `json:"database_host,omitempty"`
	DatabaseUsername string `json:"database_username,omitempty"`
	DatabasePassword string `json:"database_password,omitempty"`
	LiteLLMToken     string `json:"litellm_token,omitempty"`
	LiteLLMAPIURL    string `json:"litellm_api_url,omitempty"`
	OwnerID          *int   `json:"owner_id,omitempty"`
	TeamID           *int   `json:"team_id,omitempty"`
}

// Meterable reports whether the key carries a metering identity. Keys
// without one have no spend to fetch and stay out of the spend cache.
func (k *PrivateAIKey) Meterable() bool {
	return k.LiteLLMToken != ""
}

type Region struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type Team struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	AdminEmail string `json:"admin_email,omitempty"`
}

type User struct {
	ID      int    `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// SpendSnapshot is the metered-usage record for one key. It exists only after
// an explicit load; absence is distinct from zero spend.
type SpendSnapshot struct {
	Spend          float64    `json:"spend"`
	MaxBudget      *float64   `json:"max_budget,omitempty"`
	BudgetDuration *string    `json:"budget_duration,omitempty"`
	BudgetResetAt  *time.Time `json:"budget_reset_at,omitempty"`
}

// KeyView is the aggregator's joined row: the key plus denormalized display
// metadata. The embedded key is never mutated by the join.
type KeyView struct {
	PrivateAIKey
	TeamName   string `json:"team_name,omitempty"`
	OwnerEmail string `json:"owner_email,omitempty"`
}
