package routing

import "regexp"

// Built-in profile identifiers.
const (
	ProfileFast          = "fast"
	ProfileInstruction   = "instruction"
	ProfileDeepReasoning = "deep-reasoning"
	ProfileMultiStage    = "multi-stage"
)

// DefaultDowngradeThreshold is the conversation size (tokens) above which
// expensive profiles are swapped for cheaper equivalents.
const DefaultDowngradeThreshold = 50000

// DefaultProfiles returns the built-in profile catalog.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			ID: ProfileFast, Model: "llama-3.1-8b-instant",
			Description: "Short factual answers and greetings",
			MaxTokens:   1024, Temperature: 0.3, TopP: 0.9,
			CostPerThousand: 0.05, ContextWindowLimit: 8192,
		},
		{
			ID: ProfileInstruction, Model: "mixtral-8x7b-instruct",
			Description: "Drafting, summarising and explaining",
			MaxTokens:   2048, Temperature: 0.5, TopP: 0.95,
			CostPerThousand: 0.24, ContextWindowLimit: 32768,
		},
		{
			ID: ProfileDeepReasoning, Model: "deepseek-r1-distill-llama-70b",
			Description: "Legal reasoning over statutes and case law",
			MaxTokens:   4096, Temperature: 0.2, TopP: 0.9,
			CostPerThousand: 0.99, ContextWindowLimit: 131072,
		},
		{
			ID: ProfileMultiStage, Model: "llama-3.3-70b-versatile",
			Description: "Long multi-part analysis",
			MaxTokens:   4096, Temperature: 0.4, TopP: 0.9,
			CostPerThousand: 0.79, ContextWindowLimit: 131072,
		},
	}
}

// DefaultRules returns the built-in rule set. The last rule is the catch-all.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "greeting", Target: ProfileFast,
			MinWords: 1, MaxWords: 6, Priority: 1,
			Keywords: []string{"hello", "hi ", "thanks", "thank you", "good morning", "good evening"},
		},
		{
			Name: "legal", Target: ProfileDeepReasoning,
			MinWords: 1, Priority: 3,
			Keywords: []string{
				"labour", "labor", "law", "court", "ccma", "dismissal", "contract",
				"employment", "statute", "legal", "rights", "tribunal", "constitution",
			},
		},
		{
			Name: "complex", Target: ProfileMultiStage,
			MinWords: 25, Priority: 4,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\bvery complex\b`),
				regexp.MustCompile(`(?i)\b(compare|contrast|analy[sz]e|evaluate)\b`),
				regexp.MustCompile(`(?i)\bstep[- ]by[- ]step\b`),
			},
		},
		{
			Name: "instruction", Target: ProfileInstruction,
			MinWords: 1, Priority: 2,
			Keywords: []string{"write", "draft", "summarize", "summarise", "explain", "list", "translate"},
		},
		{
			Name: "default", Target: ProfileFast,
			Priority: 0,
		},
	}
}

// DefaultDowngrades maps expensive profiles to their long-conversation substitutes.
func DefaultDowngrades() map[string]string {
	return map[string]string{
		ProfileDeepReasoning: ProfileInstruction,
		ProfileMultiStage:    ProfileFast,
	}
}
