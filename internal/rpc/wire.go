// Package rpc exposes the planner over QUIC so a build farm can centralize
// planning instead of running it once per worker, reusing this codebase's
// existing quic-go stack (internal/runtime/netstack/http3.go) at the raw
// stream level rather than through HTTP/3.
package rpc

import (
	"github.com/orizon-lang/memplan/internal/exprtree"
	"github.com/orizon-lang/memplan/internal/planconfig"
	"github.com/orizon-lang/memplan/internal/storage"
	"github.com/orizon-lang/memplan/internal/target"
)

// WireRequest is one Plan call sent over a stream. ID is a client-chosen
// request identifier (see NewRequestID), logged by the server under
// planlog.CatRPC.
type WireRequest struct {
	ID       string
	Function *exprtree.Function
	Targets  target.Map
	Config   planconfig.Config
}

// WireResponse carries the planner's output keyed by each node's NodeID
// label rather than its Go identity — the only stable handle that survives
// a gob round trip, since the decoded tree is a structurally equal but
// distinct set of Node values from the ones the caller built.
type WireResponse struct {
	ID      string
	Results map[string]storage.Result
	Err     string
}

func labelResults(r map[exprtree.Node]storage.Result) map[string]storage.Result {
	out := make(map[string]storage.Result, len(r))
	for node, res := range r {
		out[string(node.ID())] = res
	}

	return out
}
