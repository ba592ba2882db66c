package ratelimit

import "time"

// LimitConfig is a maximum number of requests per window.
type LimitConfig struct {
	Max    int64
	Window time.Duration
}

// Policy maps scopes to the limits enforced for them.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// PolicyBuilder assembles a Policy.
type PolicyBuilder struct {
	policy *Policy
}

// NewPolicyBuilder creates an empty policy builder.
func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{
		policy: &Policy{Limits: make(map[Scope][]LimitConfig)},
	}
}

// AddLimit appends a limit for the scope. A scope may carry several windows.
func (b *PolicyBuilder) AddLimit(scope Scope, maxRequests int64, window time.Duration) *PolicyBuilder {
	b.policy.Limits[scope] = append(b.policy.Limits[scope], LimitConfig{Max: maxRequests, Window: window})

	return b
}

// Build returns the assembled policy.
func (b *PolicyBuilder) Build() *Policy {
	return b.policy
}

// DefaultScanPolicy limits each short code to 1000 scans per hour and each client to 100 per minute.
func DefaultScanPolicy() *Policy {
	return NewPolicyBuilder().
		AddLimit(ScopeShortCode, 1000, time.Hour).
		AddLimit(ScopeIP, 100, time.Minute).
		Build()
}
