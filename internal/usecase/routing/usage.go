package routing

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/searchcore/internal/domain"
	domrouting "github.com/kailas-cloud/searchcore/internal/domain/routing"
	"github.com/kailas-cloud/searchcore/internal/metrics"
)

// TrackUsage adds one request and tokens to the profile's counters.
func (r *Router) TrackUsage(profile string, tokens int64) error {
	if _, ok := r.profiles[profile]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownProfile, profile)
	}
	if tokens < 0 {
		return fmt.Errorf("%w: tokens must not be negative", domain.ErrInvalidRequest)
	}

	r.mu.Lock()
	c, ok := r.usage[profile]
	if !ok {
		c = &counter{}
		r.usage[profile] = c
	}
	c.requests++
	c.tokens += tokens
	r.mu.Unlock()

	metrics.RouterTokensTotal.WithLabelValues(profile).Add(float64(tokens))
	return nil
}

// UsageStats returns tracked usage per profile, most tokens first.
func (r *Router) UsageStats() []domrouting.UsageStat {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := make([]domrouting.UsageStat, 0, len(r.usage))
	for id, c := range r.usage {
		stats = append(stats, domrouting.UsageStat{
			Profile:       id,
			Requests:      c.requests,
			Tokens:        c.tokens,
			EstimatedCost: r.profiles[id].EstimateCost(c.tokens),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Tokens != stats[j].Tokens {
			return stats[i].Tokens > stats[j].Tokens
		}
		return stats[i].Profile < stats[j].Profile
	})
	return stats
}

// ResetStats clears every usage counter.
func (r *Router) ResetStats() {
	r.mu.Lock()
	r.usage = make(map[string]*counter)
	r.mu.Unlock()
}
