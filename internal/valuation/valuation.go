// Package valuation implements the Valuation Router: resolving a spot
// price for any token in terms of the chain's reference (wrapped-native)
// token by searching the pool graph, multi-hop if necessary. No direct
// teacher equivalent exists (the arbitrage bot has no multi-hop graph);
// the DFS algorithm follows spec.md §4.3's contract, with the teacher's
// sentinel-error idiom (apperr) applied to path-not-found/unquotable
// cases and golang.org/x/sync/errgroup used to fan out concurrent
// spot-price evaluation across a token's candidate edges.
package valuation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"tychoorderbook/internal/apperr"
	"tychoorderbook/internal/domain"
	"tychoorderbook/internal/state"
)

// SpotPricer is the minimal capability the router needs from a pool
// simulator: the instantaneous price of one unit of tokenIn expressed in
// tokenOut.
type SpotPricer interface {
	SpotPrice(tokenIn, tokenOut string) (float64, error)
}

// Router resolves token prices against a fixed reference token (e.g.
// WETH) by DFS over the pool graph built from a Shared State Store
// snapshot.
type Router struct {
	reference string // lower-cased 0x address
	maxDepth  int
}

// New builds a Router for the given reference token address.
func New(referenceToken string, maxDepth int) *Router {
	if maxDepth <= 0 {
		maxDepth = 4
	}
	return &Router{reference: lower(referenceToken), maxDepth: maxDepth}
}

func lower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// edge is one hop: a pool component and the simulator backing it.
type edge struct {
	component domain.PoolComponent
	sim       state.Simulator
}

// adjacency builds, for every token address, the list of edges leaving it
// (i.e. every other token reachable through a pool that also lists this
// token).
func adjacency(snap state.Snapshot) map[string][]edge {
	graph := make(map[string][]edge)
	for id, c := range snap.Components {
		sim, ok := snap.Simulators[id]
		if !ok {
			continue
		}
		for _, t := range c.Tokens {
			graph[lower(t.Address)] = append(graph[lower(t.Address)], edge{component: c, sim: sim})
		}
	}
	return graph
}

// ValueInReference returns the price of one unit of token, expressed in
// the reference token, by DFS over the pool graph. Concurrent candidate
// edges at each hop are evaluated in parallel via errgroup; the first
// successful full path to the reference token wins (DFS order is
// preserved by only exploring the next hop after this hop's edges are
// evaluated).
func (r *Router) ValueInReference(ctx context.Context, snap state.Snapshot, token string) (float64, error) {
	token = lower(token)
	if token == r.reference {
		return 1, nil
	}
	graph := adjacency(snap)
	visited := map[string]bool{token: true}
	price, ok, err := r.dfs(ctx, graph, token, visited, 0)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, apperr.New(apperr.CodeUnquotable, "no valuation path to reference token for "+token)
	}
	return price, nil
}

// dfs returns the price of `from` in terms of the reference token, or
// ok=false if no path was found within maxDepth.
func (r *Router) dfs(ctx context.Context, graph map[string][]edge, from string, visited map[string]bool, depth int) (float64, bool, error) {
	if depth >= r.maxDepth {
		return 0, false, nil
	}
	edges := graph[from]
	if len(edges) == 0 {
		return 0, false, nil
	}

	type candidate struct {
		price float64
		ok    bool
	}
	results := make([]candidate, len(edges))

	g, gctx := errgroup.WithContext(ctx)
	for i, e := range edges {
		i, e := i, e
		g.Go(func() error {
			other, found := otherToken(e.component, from)
			if !found || visited[other] {
				return nil
			}
			spot, err := e.sim.SpotPrice(from, other)
			if err != nil {
				return nil // this edge is unquotable; try others
			}

			if other == r.reference {
				results[i] = candidate{price: spot, ok: true}
				return nil
			}

			nextVisited := cloneVisited(visited)
			nextVisited[other] = true
			downstream, ok, err := r.dfs(gctx, graph, other, nextVisited, depth+1)
			if err != nil || !ok {
				return nil
			}
			results[i] = candidate{price: spot * downstream, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, false, err
	}

	for _, c := range results {
		if c.ok {
			return c.price, true, nil
		}
	}
	return 0, false, nil
}

// otherToken returns the first token in the component's token list that
// isn't the given token. For pair-shaped pools (constant-product,
// concentrated-liquidity, stable-curve) this is exact; weighted-balancer
// pools with more than two tokens are treated as connecting `token` to
// only this one neighbor, which undercounts their graph edges but never
// produces an incorrect price for the edge it does follow.
func otherToken(c domain.PoolComponent, token string) (string, bool) {
	for _, t := range c.Tokens {
		addr := lower(t.Address)
		if addr != token {
			return addr, true
		}
	}
	return "", false
}

func cloneVisited(v map[string]bool) map[string]bool {
	out := make(map[string]bool, len(v)+1)
	for k, val := range v {
		out[k] = val
	}
	return out
}
