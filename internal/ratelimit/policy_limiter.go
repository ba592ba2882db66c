package ratelimit

import (
	"context"
	"slices"
)

// Decision is the combined outcome of every limit checked for a request.
type Decision struct {
	Allowed bool
	// Scope and Result describe the strictest limit: a limited one if any,
	// otherwise the one with the fewest remaining requests.
	Scope  Scope
	Result Result
	// Checked is false when no limit applied to the request.
	Checked bool
}

// PolicyLimiter enforces rate limits based on a policy.
type PolicyLimiter struct {
	limiter Limiter
	policy  *Policy
}

// NewPolicyLimiter creates a new policy-based rate limiter.
func NewPolicyLimiter(limiter Limiter, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{
		limiter: limiter,
		policy:  policy,
	}
}

// Allow checks every configured limit for the given scope identifiers.
// All limits are counted, even after one has already been exceeded.
// Scopes with an empty identifier or no configured limit are skipped.
func (l *PolicyLimiter) Allow(ctx context.Context, identifiers map[Scope]string) (Decision, error) {
	scopes := make([]Scope, 0, len(identifiers))
	for scope := range identifiers {
		scopes = append(scopes, scope)
	}

	slices.Sort(scopes)

	decision := Decision{Allowed: true}

	for _, scope := range scopes {
		identifier := identifiers[scope]
		if identifier == "" {
			continue
		}

		for _, limit := range l.policy.Limits[scope] {
			res, err := l.limiter.Check(ctx, scope, identifier, limit.Max, limit.Window)
			if err != nil {
				return Decision{}, err
			}

			if !decision.Checked || stricter(res, decision.Result) {
				decision.Scope = scope
				decision.Result = res
				decision.Checked = true
			}

			if res.Limited {
				decision.Allowed = false
			}
		}
	}

	return decision, nil
}

// stricter reports whether a should be surfaced instead of b.
func stricter(a, b Result) bool {
	if a.Limited != b.Limited {
		return a.Limited
	}

	if a.Remaining != b.Remaining {
		return a.Remaining < b.Remaining
	}

	return a.ResetTime.After(b.ResetTime)
}

// Policy returns the enforced policy.
func (l *PolicyLimiter) Policy() *Policy {
	return l.policy
}
