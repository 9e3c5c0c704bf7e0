package llm

import "context"

// Router sends each request to the provider configured for its purpose and
// applies that purpose's token and temperature overrides. Purposes without
// a route use the default provider.
type Router struct {
	fallback Provider
	routes   map[Purpose]route
}

type route struct {
	provider Provider
	tuning   PurposeConfig
}

// NewRouter returns a Router that sends everything to fallback until
// routes are added.
func NewRouter(fallback Provider) *Router {
	return &Router{fallback: fallback, routes: make(map[Purpose]route)}
}

// Route sets the provider and overrides for purpose. A nil provider keeps
// the default provider and only applies the overrides.
func (r *Router) Route(purpose Purpose, provider Provider, tuning PurposeConfig) *Router {
	if provider == nil {
		provider = r.fallback
	}
	r.routes[purpose] = route{provider: provider, tuning: tuning}
	return r
}

// For returns the provider that serves purpose.
func (r *Router) For(purpose Purpose) Provider {
	if rt, ok := r.routes[purpose]; ok {
		return rt.provider
	}
	return r.fallback
}

func (r *Router) Generate(ctx context.Context, req Request) (*Response, error) {
	rt, ok := r.routes[req.Purpose]
	if !ok {
		return r.fallback.Generate(ctx, req)
	}
	if rt.tuning.MaxTokens > 0 {
		req.MaxTokens = rt.tuning.MaxTokens
	}
	if rt.tuning.Temperature != nil {
		req.Temperature = *rt.tuning.Temperature
	}
	return rt.provider.Generate(ctx, req)
}

// ModelID reports the default provider's model.
func (r *Router) ModelID() string { return r.fallback.ModelID() }

func (r *Router) Name() string { return ProviderName(r.fallback) }
