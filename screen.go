package vqe

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fumin/vqe/ansatz"
	"github.com/fumin/vqe/pauli"
)

// Candidate is an ansatz to be screened.
type Candidate struct {
	Name     string
	Elements []ansatz.Element
	Options  RunOptions
}

// ScreenResult is the outcome of running a candidate.
type ScreenResult struct {
	Name   string
	Result Result
	Err    error
}

// Screen runs one driver per candidate, at most parallelism at a time, and returns the results in input order.
// A failing candidate does not stop the others, its error is reported in its result.
// The backend must be safe for concurrent use.
func Screen(ctx context.Context, hamiltonian *pauli.Operator, backend Backend, cfg Config, candidates []Candidate, parallelism int) ([]ScreenResult, error) {
	if parallelism <= 0 {
		parallelism = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	results := make([]ScreenResult, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, c := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "")
			}
			results[i].Name = c.Name

			cfgC := cfg
			cfgC.Logger = cfg.Logger.With(zap.String("candidate", c.Name))
			d, err := New(hamiltonian, c.Elements, backend, cfgC)
			if err != nil {
				results[i].Err = errors.Wrap(err, fmt.Sprintf("%d %s", i, c.Name))
				return nil
			}
			res, err := d.Run(ctx, c.Options)
			if err != nil {
				results[i].Err = errors.Wrap(err, fmt.Sprintf("%d %s", i, c.Name))
				return nil
			}
			results[i].Result = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return results, nil
}
