package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fumin/vqe"
	"github.com/fumin/vqe/ansatz"
	"github.com/fumin/vqe/mat"
	"github.com/fumin/vqe/pauli"
	"github.com/fumin/vqe/sim"
)

// isingResult compares the exact and variational ground states of a transverse field Ising model.
type isingResult struct {
	n [2]int
	h float64

	// EigenValue are the lowest eigenvalues.
	EigenValue []float64
	Exact      sim.Statistics
	Energy     float64
	Variation  sim.Statistics
	Status     vqe.Status
}

func (a *app) isingCmd() *cobra.Command {
	var flags RunFile
	var n [2]int
	var fields []float64
	cmd := &cobra.Command{
		Use:   "ising",
		Short: "Sweep the transverse field of an Ising model and compare exact and VQE ground states as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, err := a.runFile(cmd, args, flags)
			if err != nil {
				return errors.Wrap(err, "")
			}
			if !cmd.Flags().Changed("ansatz") && a.configPath == "" {
				rf.Ansatz = "hea"
			}
			return a.runIsing(cmd, rf, n, fields)
		},
	}
	bindRunFlags(cmd, &flags)
	cmd.Flags().IntVar(&n[0], "rows", 3, "lattice rows")
	cmd.Flags().IntVar(&n[1], "cols", 1, "lattice columns")
	cmd.Flags().Float64SliceVar(&fields, "fields", []float64{0.1, 0.5, 1, 2, 10}, "transverse fields")
	return cmd
}

func (a *app) runIsing(cmd *cobra.Command, rf RunFile, n [2]int, fields []float64) error {
	numSpins := n[0] * n[1]
	if numSpins <= 0 || numSpins > mat.MaxQubits {
		return errors.Errorf("%v", n)
	}
	family, err := ansatz.NewFamily(rf.Ansatz, numSpins, 0, rf.familyOptions())
	if err != nil {
		return errors.Wrap(err, "")
	}
	elements, err := family.Elements()
	if err != nil {
		return errors.Wrap(err, "")
	}
	backend, err := sim.NewBackend(len(fields))
	if err != nil {
		return errors.Wrap(err, "")
	}

	results := make([]isingResult, len(fields))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(1, rf.Parallelism))
	for i, h := range fields {
		g.Go(func() error {
			name := fmt.Sprintf("ising_%dx%d_%f", n[0], n[1], h)
			cfg := vqe.Config{Name: name, NumQubits: numSpins, Logger: a.logger, Metrics: a.progress(cmd)}
			r, err := solveIsing(ctx, n, h, elements, backend, cfg, rf.runOptions())
			if err != nil {
				return errors.Wrap(err, name)
			}
			results[i] = r
			a.logger.Info("ising", zap.Ints("n", n[:]), zap.Float64("h", h), zap.Float64("exact", r.EigenValue[0]), zap.Float64("energy", r.Energy))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "")
	}

	w := csv.NewWriter(cmd.OutOrStdout())
	w.Write([]string{"n0", "n1", "h", "e0", "e1", "vqe", "status", "m", "binder", "vqe_m", "vqe_binder"})
	for _, r := range results {
		e1 := ""
		if len(r.EigenValue) > 1 {
			e1 = formatFloat(r.EigenValue[1])
		}
		w.Write([]string{
			strconv.Itoa(r.n[0]), strconv.Itoa(r.n[1]), formatFloat(r.h),
			formatFloat(r.EigenValue[0]), e1, formatFloat(r.Energy), string(r.Status),
			formatFloat(r.Exact.Magnetization), formatFloat(r.Exact.BinderCumulant),
			formatFloat(r.Variation.Magnetization), formatFloat(r.Variation.BinderCumulant),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func solveIsing(ctx context.Context, n [2]int, h float64, elements []ansatz.Element, backend *sim.Backend, cfg vqe.Config, opt vqe.RunOptions) (isingResult, error) {
	numSpins := n[0] * n[1]
	hamiltonian := pauli.TransverseFieldIsing(n, h)
	r := isingResult{n: n, h: h}

	m, err := mat.FromOperator(hamiltonian, numSpins)
	if err != nil {
		return isingResult{}, errors.Wrap(err, "")
	}
	vvs, err := m.Eigen()
	if err != nil {
		return isingResult{}, errors.Wrap(err, "")
	}
	for _, vv := range vvs[:min(3, len(vvs))] {
		r.EigenValue = append(r.EigenValue, vv.Val)
	}
	r.Exact, err = sim.SpinStatistics(numSpins, vvs[0].Vec)
	if err != nil {
		return isingResult{}, errors.Wrap(err, "")
	}

	d, err := vqe.New(hamiltonian, elements, backend, cfg)
	if err != nil {
		return isingResult{}, errors.Wrap(err, "")
	}
	res, err := d.Run(ctx, opt)
	if err != nil {
		return isingResult{}, errors.Wrap(err, "")
	}
	r.Energy, r.Status = res.Energy, res.Status
	r.Variation, err = sim.SpinStatistics(numSpins, d.Vector())
	if err != nil {
		return isingResult{}, errors.Wrap(err, "")
	}
	return r, nil
}
