package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fumin/vqe"
	"github.com/fumin/vqe/ansatz"
	"github.com/fumin/vqe/mat"
	"github.com/fumin/vqe/pauli"
	"github.com/fumin/vqe/qasm"
	"github.com/fumin/vqe/sim"
	"github.com/fumin/vqe/store"
)

func (a *app) vqeCmd() *cobra.Command {
	var flags RunFile
	cmd := &cobra.Command{
		Use:   "vqe [hamiltonian.json]",
		Short: "Minimize the energy of a Hamiltonian over an ansatz and print the trace as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, err := a.runFile(cmd, args, flags)
			if err != nil {
				return errors.Wrap(err, "")
			}
			return a.runVQE(cmd, rf)
		},
	}
	bindRunFlags(cmd, &flags)
	return cmd
}

func (a *app) runVQE(cmd *cobra.Command, rf RunFile) error {
	h, err := pauli.ReadHamiltonian(rf.Hamiltonian)
	if err != nil {
		return errors.Wrap(err, "")
	}
	family, err := ansatz.NewFamily(rf.Ansatz, h.NumQubits, h.NumElectrons, rf.familyOptions())
	if err != nil {
		return errors.Wrap(err, "")
	}
	elements, err := family.Elements()
	if err != nil {
		return errors.Wrap(err, "")
	}
	backend, err := sim.NewBackend(0)
	if err != nil {
		return errors.Wrap(err, "")
	}
	cfg := vqe.Config{Name: h.Name, NumQubits: h.NumQubits, NumElectrons: h.NumElectrons, Logger: a.logger, Metrics: a.progress(cmd)}
	d, err := vqe.New(h.Operator, elements, backend, cfg)
	if err != nil {
		return errors.Wrap(err, "")
	}
	res, err := d.Run(cmd.Context(), rf.runOptions())
	if err != nil {
		return errors.Wrap(err, "")
	}

	st, err := a.openStore()
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer st.Close()
	id, err := st.Save(cmd.Context(), store.NewRun(h.Name, family.Name(), h.NumQubits, h.NumElectrons, res))
	if err != nil {
		return errors.Wrap(err, "")
	}
	a.logger.Info("saved", zap.String("id", id), zap.String("db", a.dbPath))

	if err := writeTrace(cmd.OutOrStdout(), res.Trace); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func (a *app) screenCmd() *cobra.Command {
	var flags RunFile
	cmd := &cobra.Command{
		Use:   "screen [hamiltonian.json]",
		Short: "Run several ansatze in parallel and print their energies as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, err := a.runFile(cmd, args, flags)
			if err != nil {
				return errors.Wrap(err, "")
			}
			return a.runScreen(cmd, rf)
		},
	}
	bindRunFlags(cmd, &flags)
	return cmd
}

func (a *app) runScreen(cmd *cobra.Command, rf RunFile) error {
	h, err := pauli.ReadHamiltonian(rf.Hamiltonian)
	if err != nil {
		return errors.Wrap(err, "")
	}
	candidates := make([]vqe.Candidate, 0, len(rf.Ansatze))
	for _, name := range rf.Ansatze {
		family, err := ansatz.NewFamily(name, h.NumQubits, h.NumElectrons, rf.familyOptions())
		if err != nil {
			return errors.Wrap(err, "")
		}
		elements, err := family.Elements()
		if err != nil {
			return errors.Wrap(err, name)
		}
		candidates = append(candidates, vqe.Candidate{Name: family.Name(), Elements: elements, Options: rf.runOptions()})
	}
	backend, err := sim.NewBackend(0)
	if err != nil {
		return errors.Wrap(err, "")
	}
	cfg := vqe.Config{Name: h.Name, NumQubits: h.NumQubits, NumElectrons: h.NumElectrons, Logger: a.logger, Metrics: a.progress(cmd)}
	results, err := vqe.Screen(cmd.Context(), h.Operator, backend, cfg, candidates, rf.Parallelism)
	if err != nil {
		return errors.Wrap(err, "")
	}

	st, err := a.openStore()
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer st.Close()
	w := csv.NewWriter(cmd.OutOrStdout())
	w.Write([]string{"ansatz", "energy", "status", "iterations", "evaluations", "id", "error"})
	for _, r := range results {
		if r.Err != nil {
			a.logger.Error("candidate failed", zap.String("ansatz", r.Name), zap.Error(r.Err))
			w.Write([]string{r.Name, "", string(vqe.StatusFailed), "", "", "", r.Err.Error()})
			continue
		}
		id, err := st.Save(cmd.Context(), store.NewRun(h.Name, r.Name, h.NumQubits, h.NumElectrons, r.Result))
		if err != nil {
			return errors.Wrap(err, "")
		}
		w.Write([]string{r.Name, formatFloat(r.Result.Energy), string(r.Result.Status), strconv.Itoa(r.Result.Iterations), strconv.Itoa(r.Result.Evaluations), id, ""})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func (a *app) circuitCmd() *cobra.Command {
	var flags RunFile
	var numOrbitals, numElectrons int
	var params []float64
	cmd := &cobra.Command{
		Use:   "circuit",
		Short: "Print the gate instructions of an ansatz",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, err := a.runFile(cmd, args, flags)
			if err != nil {
				return errors.Wrap(err, "")
			}
			family, err := ansatz.NewFamily(rf.Ansatz, numOrbitals, numElectrons, rf.familyOptions())
			if err != nil {
				return errors.Wrap(err, "")
			}
			elements, err := family.Elements()
			if err != nil {
				return errors.Wrap(err, "")
			}
			p := params
			if p == nil {
				p = make([]float64, ansatz.NumParameters(elements))
			}
			circuit, err := vqe.Circuit(elements, p)
			if err != nil {
				return errors.Wrap(err, "")
			}
			fmt.Fprint(cmd.OutOrStdout(), qasm.Render(circuit))
			a.logger.Debug("circuit", zap.String("ansatz", family.Name()), zap.Int("elements", len(elements)), zap.Any("count", qasm.Count(circuit)))
			return nil
		},
	}
	bindRunFlags(cmd, &flags)
	cmd.Flags().IntVar(&numOrbitals, "orbitals", 4, "number of spin orbitals")
	cmd.Flags().IntVar(&numElectrons, "electrons", 2, "number of electrons")
	cmd.Flags().Float64SliceVar(&params, "params", nil, "parameters, zeros if empty")
	return cmd
}

func (a *app) exactCmd() *cobra.Command {
	var cooDir string
	var block int
	cmd := &cobra.Command{
		Use:   "exact hamiltonian.json|coo_dir",
		Short: "Print the exact ground energy and the Gerschgorin lower bound of a Hamiltonian",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, m, err := readMatrix(args[0])
			if err != nil {
				return errors.Wrap(err, "")
			}
			if cooDir != "" {
				if err := a.writeCOO(m, cooDir); err != nil {
					return errors.Wrap(err, "")
				}
			}
			vvs, err := m.Eigen()
			if err != nil {
				return errors.Wrap(err, "")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "name,ground,gerschgorin\n")
			fmt.Fprintf(cmd.OutOrStdout(), "%s,%s,%s\n", name, formatFloat(vvs[0].Val), formatFloat(m.Gerschgorin()))
			if block > 0 {
				n := min(block, m.Rows())
				fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", m.Slice([2]int{0, n}, [2]int{0, n}))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cooDir, "coo", "", "also write the Hamiltonian matrix in COO format to this directory")
	cmd.Flags().IntVar(&block, "block", 0, "print the leading block of this size of the Hamiltonian matrix to stderr")
	return cmd
}

// readMatrix reads a Hamiltonian JSON file, or a matrix directory written by exact --coo.
func readMatrix(fpath string) (string, *mat.COO, error) {
	info, err := os.Stat(fpath)
	if err != nil {
		return "", nil, errors.Wrap(err, "")
	}
	if info.IsDir() {
		m, err := mat.ReadCOO(fpath)
		if err != nil {
			return "", nil, errors.Wrap(err, fpath)
		}
		return filepath.Base(fpath), m, nil
	}

	h, err := pauli.ReadHamiltonian(fpath)
	if err != nil {
		return "", nil, errors.Wrap(err, "")
	}
	m, err := mat.FromOperator(h.Operator, h.NumQubits)
	if err != nil {
		return "", nil, errors.Wrap(err, "")
	}
	return h.Name, m, nil
}

// writeCOO writes m to dir, leaving a matrix equal to m already there untouched.
func (a *app) writeCOO(m *mat.COO, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, mat.FnameShape)); err == nil {
		prev, err := mat.ReadCOO(dir)
		if err == nil && prev.Equal(m) {
			a.logger.Info("matrix unchanged", zap.String("dir", dir))
			return nil
		}
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}
	if err := m.WriteCOO(dir); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func (a *app) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [name]",
		Short: "Print stored runs as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 0 {
				name = args[0]
			}
			st, err := a.openStore()
			if err != nil {
				return errors.Wrap(err, "")
			}
			defer st.Close()
			runs, err := st.List(cmd.Context(), name)
			if err != nil {
				return errors.Wrap(err, "")
			}

			w := csv.NewWriter(cmd.OutOrStdout())
			w.Write([]string{"id", "name", "ansatz", "qubits", "electrons", "energy", "status", "evaluations", "created"})
			for _, r := range runs {
				w.Write([]string{r.ID, r.Name, r.Ansatz, strconv.Itoa(r.NumQubits), strconv.Itoa(r.NumElectrons), formatFloat(r.Energy), string(r.Status), strconv.Itoa(r.Evaluations), r.Created.Format(time.RFC3339)})
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return errors.Wrap(err, "")
			}
			return nil
		},
	}
	return cmd
}

func writeTrace(out io.Writer, trace vqe.Trace) error {
	w := csv.NewWriter(out)
	w.Write([]string{"iteration", "energy", "delta", "seconds"})
	for _, it := range trace.Iterations {
		w.Write([]string{strconv.Itoa(it.Index), formatFloat(it.Energy), formatFloat(it.Delta), formatFloat(it.Duration.Seconds())})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
