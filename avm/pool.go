package avm

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/colorfulnotion/avm/log"
)

// Pool evaluates independent top-level calls in parallel. The host world
// state must be safe for concurrent reads.
type Pool struct {
	exec    *Executor
	workers int
}

func NewPool(exec *Executor, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{exec: exec, workers: workers}
}

// Run returns one result per call, in input order. The first host failure
// cancels the remaining calls and is returned.
func (p *Pool) Run(ctx context.Context, calls []TopLevelCall) ([]*TopLevelResult, error) {
	results := make([]*TopLevelResult, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range calls {
		i := i
		g.Go(func() error {
			res, err := p.exec.ExecuteTopLevelCall(gctx, calls[i])
			if err != nil {
				log.Warn(log.ExecPool, "call failed", "index", i, "err", err)
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
