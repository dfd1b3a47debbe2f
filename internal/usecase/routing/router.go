// Package routing selects a model profile for each query and tracks usage per profile.
package routing

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchcore/internal/domain"
	domrouting "github.com/kailas-cloud/searchcore/internal/domain/routing"
	"github.com/kailas-cloud/searchcore/internal/metrics"
)

// Decision reasons reported in metrics.
const (
	ReasonForced    = "forced"
	ReasonRule      = "rule"
	ReasonFallback  = "fallback"
	ReasonDowngrade = "downgrade"
)

// Catalog is the static routing configuration.
type Catalog struct {
	Profiles           []domrouting.Profile
	Rules              []domrouting.Rule
	Downgrades         map[string]string
	DowngradeThreshold int
}

// DefaultCatalog returns the built-in profiles, rules and downgrades.
func DefaultCatalog() Catalog {
	return Catalog{
		Profiles:           domrouting.DefaultProfiles(),
		Rules:              domrouting.DefaultRules(),
		Downgrades:         domrouting.DefaultDowngrades(),
		DowngradeThreshold: domrouting.DefaultDowngradeThreshold,
	}
}

type counter struct {
	requests int64
	tokens   int64
}

// Router evaluates rules against queries. Rules and profiles are immutable
// after construction; only usage counters change.
type Router struct {
	profiles   map[string]domrouting.Profile
	order      []string
	rules      []domrouting.Rule
	downgrades map[string]string
	threshold  int
	logger     *zap.Logger

	mu    sync.Mutex
	usage map[string]*counter
}

// New validates the catalog and creates a Router. The catalog must contain a
// catch-all rule and every rule and downgrade must name a known profile.
func New(cat Catalog, logger *zap.Logger) (*Router, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cat.Profiles) == 0 {
		return nil, fmt.Errorf("%w: no profiles configured", domain.ErrInvalidRouting)
	}

	r := &Router{
		profiles:   make(map[string]domrouting.Profile, len(cat.Profiles)),
		rules:      append([]domrouting.Rule(nil), cat.Rules...),
		downgrades: make(map[string]string, len(cat.Downgrades)),
		threshold:  cat.DowngradeThreshold,
		logger:     logger,
		usage:      make(map[string]*counter),
	}
	if r.threshold <= 0 {
		r.threshold = domrouting.DefaultDowngradeThreshold
	}

	for _, p := range cat.Profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: profile without id", domain.ErrInvalidRouting)
		}
		if _, dup := r.profiles[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate profile %q", domain.ErrInvalidRouting, p.ID)
		}
		r.profiles[p.ID] = p
		r.order = append(r.order, p.ID)
	}

	catchAll := false
	for _, rule := range r.rules {
		if _, ok := r.profiles[rule.Target]; !ok {
			return nil, fmt.Errorf("%w: rule %q targets %w %q",
				domain.ErrInvalidRouting, rule.Name, domain.ErrUnknownProfile, rule.Target)
		}
		if rule.MaxWords > 0 && rule.MinWords > rule.MaxWords {
			return nil, fmt.Errorf("%w: rule %q has min words above max words", domain.ErrInvalidRouting, rule.Name)
		}
		catchAll = catchAll || rule.CatchAll()
	}
	if !catchAll {
		return nil, fmt.Errorf("%w: no catch-all rule", domain.ErrInvalidRouting)
	}

	for from, to := range cat.Downgrades {
		_, okFrom := r.profiles[from]
		_, okTo := r.profiles[to]
		if !okFrom || !okTo {
			return nil, fmt.Errorf("%w: downgrade %s -> %s references %w",
				domain.ErrInvalidRouting, from, to, domain.ErrUnknownProfile)
		}
		r.downgrades[from] = to
	}

	return r, nil
}

// Route picks the profile for query. A known forced profile is returned as is.
// Otherwise the highest priority matching rule wins, the first declared on
// ties, and the last rule when nothing matches. Conversations above the
// downgrade threshold are moved to the cheaper substitute profile.
func (r *Router) Route(query, forced string, conv *domrouting.ConversationContext) domrouting.Decision {
	if forced != "" {
		if p, ok := r.profiles[forced]; ok {
			metrics.RouterDecisionsTotal.WithLabelValues(p.ID, ReasonForced).Inc()
			return domrouting.Decision{
				Profile:   p,
				Reasoning: fmt.Sprintf("Forced profile %q", p.ID),
			}
		}
		r.logger.Warn("Ignoring unknown forced profile", zap.String("profile", forced))
	}

	words := len(strings.Fields(query))
	lower := strings.ToLower(query)

	best := -1
	for i, rule := range r.rules {
		if !rule.Matches(words, lower, query) {
			continue
		}
		if best < 0 || rule.Priority > r.rules[best].Priority {
			best = i
		}
	}

	reason := ReasonRule
	var reasoning string
	if best < 0 {
		best = len(r.rules) - 1
		reason = ReasonFallback
		reasoning = fmt.Sprintf("No rule matched; using last rule %q", r.rules[best].Name)
	} else {
		reasoning = fmt.Sprintf("Matched rule %q (priority %d, %d words)",
			r.rules[best].Name, r.rules[best].Priority, words)
	}

	rule := r.rules[best]
	d := domrouting.Decision{
		Profile:   r.profiles[rule.Target],
		Reasoning: reasoning,
		Rule:      rule.Name,
	}

	if conv != nil && conv.TotalTokens > r.threshold {
		if to, ok := r.downgrades[d.Profile.ID]; ok {
			d.Reasoning = fmt.Sprintf("%s; downgraded from %s to %s (conversation %d tokens > %d)",
				d.Reasoning, d.Profile.ID, to, conv.TotalTokens, r.threshold)
			d.Profile = r.profiles[to]
			d.Downgraded = true
			reason = ReasonDowngrade
		}
	}

	metrics.RouterDecisionsTotal.WithLabelValues(d.Profile.ID, reason).Inc()
	return d
}

// Profiles returns the configured profiles in declaration order.
func (r *Router) Profiles() []domrouting.Profile {
	out := make([]domrouting.Profile, len(r.order))
	for i, id := range r.order {
		out[i] = r.profiles[id]
	}
	return out
}

// Rules returns the configured rules in declaration order.
func (r *Router) Rules() []domrouting.Rule {
	return append([]domrouting.Rule(nil), r.rules...)
}

// Profile looks up a profile by id.
func (r *Router) Profile(id string) (domrouting.Profile, bool) {
	p, ok := r.profiles[id]
	return p, ok
}
