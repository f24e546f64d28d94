package ratelimit

import "strings"

// MatchEndpoint resolves a request path and method to its endpoint tier.
// Exact matches win over prefix matches; a tier path ending in "/" matches
// any request underneath it (so "/applications/" covers "/applications/{id}").
// Returns nil when only the default tier applies.
func MatchEndpoint(path, method string, tiers []EndpointConfig) *EndpointConfig {
	// The health check is never throttled.
	if path == "/health" && method == "GET" {
		return &EndpointConfig{}
	}

	for i := range tiers {
		if tiers[i].Path == path && tiers[i].Method == method {
			return &tiers[i]
		}
	}

	for i := range tiers {
		t := &tiers[i]
		if t.Method == method && strings.HasSuffix(t.Path, "/") && strings.HasPrefix(path, t.Path) {
			return t
		}
	}

	return nil
}
