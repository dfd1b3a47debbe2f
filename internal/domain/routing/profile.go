// Package routing holds model profiles, routing rules and related value types.
package routing

// Profile is a downstream model configuration selected by the router.
type Profile struct {
	ID                 string  `json:"id"`
	Model              string  `json:"model"`
	Description        string  `json:"description,omitempty"`
	MaxTokens          int     `json:"max_tokens"`
	Temperature        float64 `json:"temperature"`
	TopP               float64 `json:"top_p"`
	CostPerThousand    float64 `json:"cost_per_thousand"`
	ContextWindowLimit int     `json:"context_window_limit"`
}

// EstimateCost returns the estimated cost of tokens on this profile.
func (p Profile) EstimateCost(tokens int64) float64 {
	return float64(tokens) / 1000 * p.CostPerThousand
}

// ConversationContext describes the conversation a query belongs to.
type ConversationContext struct {
	TotalTokens int `json:"total_tokens"`
}

// Decision is the outcome of routing a single query.
type Decision struct {
	Profile    Profile
	Reasoning  string
	Rule       string // empty when the profile was forced
	Downgraded bool
}

// UsageStat aggregates tracked usage for one profile.
type UsageStat struct {
	Profile       string  `json:"profile"`
	Requests      int64   `json:"requests"`
	Tokens        int64   `json:"tokens"`
	EstimatedCost float64 `json:"estimated_cost"`
}
