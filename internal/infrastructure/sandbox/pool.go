package sandbox

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// CallToolRequest is one queued call for Pool.Run: which host to invoke,
// with what tool name and arguments.
type CallToolRequest struct {
	Host      *Host
	Name      string
	Arguments []byte
}

// CallToolResult is the outcome of one CallToolRequest, indexed the same
// way as the input slice so a caller can correlate results back to
// requests without extra bookkeeping.
type CallToolResult struct {
	Result []byte
	Err    error
}

// Pool bounds how many sandbox invocations run concurrently, the
// many-parallel-single-threaded-sandboxes model spec §5 describes: each
// Host serves a single invocation (see Host.CallTool), but a fleet
// of independent Hosts backing many MCP sessions needs a ceiling on
// simultaneous wazero instantiations so one caller's burst can't starve
// the process's CPU/memory.
type Pool struct {
	limit int
}

// NewPool returns a Pool that runs at most limit invocations concurrently.
// A limit of 0 or less means unbounded: SetLimit is then never called.
func NewPool(limit int) *Pool {
	return &Pool{limit: limit}
}

// Run dispatches every request concurrently, respecting the pool's limit,
// and returns once all have completed (or the context is cancelled). One
// request's failure never cancels the others — CallToolResult.Err reports
// per-request outcomes, the group itself never returns an error.
func (p *Pool) Run(ctx context.Context, requests []CallToolRequest) []CallToolResult {
	results := make([]CallToolResult, len(requests))

	g, gCtx := errgroup.WithContext(ctx)
	if p.limit > 0 {
		g.SetLimit(p.limit)
	}

	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			result, err := req.Host.CallTool(gCtx, req.Name, req.Arguments)
			results[i] = CallToolResult{Result: result, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
