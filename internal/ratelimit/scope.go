package ratelimit

import "github.com/danielgtaylor/huma/v2"

// Scope categorizes what a rate limit is counted against.
type Scope string

const (
	// ScopeShortCode counts every scan of a single short code, whoever sends it.
	ScopeShortCode Scope = "shortcode"
	// ScopeIP counts every request from a single client address.
	ScopeIP Scope = "ip"
)

// MetadataKey is the key used to store rate limit config in operation metadata.
const MetadataKey = "rateLimit"

// EndpointConfig defines per-endpoint rate limit configuration.
// This can be attached to Huma operations via the Metadata field.
type EndpointConfig struct {
	// Scopes lists the policy scopes checked for the endpoint.
	// Every scope is checked on each request; the request is rejected if any is exceeded.
	Scopes []Scope

	// PathParam names the path parameter identifying the ScopeShortCode subject.
	PathParam string

	// Disabled skips rate limiting entirely for this endpoint.
	Disabled bool
}

// GetEndpointConfig extracts the EndpointConfig from operation metadata, if present.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}
