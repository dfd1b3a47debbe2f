package routing

import domrouting "github.com/kailas-cloud/searchcore/internal/domain/routing"

// ContextResult is the trimmed conversation.
type ContextResult struct {
	Messages     []domrouting.Message
	RemovedCount int
	Tokens       int
}

// OptimizeContext keeps the longest run of most recent messages whose
// estimated token cost fits maxTokens. Kept messages stay in chronological order.
func OptimizeContext(messages []domrouting.Message, maxTokens int) ContextResult {
	start := len(messages)
	total := 0
	for i := len(messages) - 1; i >= 0; i-- {
		cost := domrouting.EstimateTokens(messages[i].Content)
		if total+cost > maxTokens {
			break
		}
		total += cost
		start = i
	}

	kept := make([]domrouting.Message, len(messages)-start)
	copy(kept, messages[start:])
	return ContextResult{
		Messages:     kept,
		RemovedCount: start,
		Tokens:       total,
	}
}

// OptimizeContext trims messages to maxTokens. A non-positive maxTokens uses
// the context window of the given profile when it is known.
func (r *Router) OptimizeContext(messages []domrouting.Message, maxTokens int, profile string) ContextResult {
	if maxTokens <= 0 {
		if p, ok := r.profiles[profile]; ok {
			maxTokens = p.ContextWindowLimit
		}
	}
	return OptimizeContext(messages, maxTokens)
}
