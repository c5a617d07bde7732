package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fumin/vqe"
	"github.com/fumin/vqe/ansatz"
)

// RunFile holds the settings of a run, read from YAML and overridden by flags.
type RunFile struct {
	Hamiltonian   string   `yaml:"hamiltonian"`
	Ansatz        string   `yaml:"ansatz"`
	Ansatze       []string `yaml:"ansatze"`
	Rescaled      bool     `yaml:"rescaled"`
	Extended      bool     `yaml:"extended"`
	Layers        int      `yaml:"layers"`
	Scale         float64  `yaml:"scale"`
	MaxIterations int      `yaml:"max_iterations"`
	Tol           float64  `yaml:"tol"`
	Parallelism   int      `yaml:"parallelism"`
}

func defaultRunFile() RunFile {
	return RunFile{
		Ansatz:      "uccsd",
		Ansatze:     []string{"esd", "egsd", "uccsd", "uccgsd"},
		Layers:      1,
		Scale:       1,
		Tol:         1e-8,
		Parallelism: 4,
	}
}

func readRunFile(fpath string, rf *RunFile) error {
	b, err := os.ReadFile(fpath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := yaml.Unmarshal(b, rf); err != nil {
		return errors.Wrap(err, fpath)
	}
	return nil
}

// bindRunFlags registers the run file flags of a command on flags.
func bindRunFlags(cmd *cobra.Command, flags *RunFile) {
	d := defaultRunFile()
	cmd.Flags().StringVar(&flags.Ansatz, "ansatz", d.Ansatz, "ansatz: esd, egsd, uccsd, uccgsd or hea")
	cmd.Flags().StringSliceVar(&flags.Ansatze, "ansatze", d.Ansatze, "ansatze to screen")
	cmd.Flags().BoolVar(&flags.Rescaled, "rescaled", d.Rescaled, "rescale double exchange angles")
	cmd.Flags().BoolVar(&flags.Extended, "extended", d.Extended, "parity corrected double exchanges")
	cmd.Flags().IntVar(&flags.Layers, "layers", d.Layers, "layers of the hardware efficient ansatz")
	cmd.Flags().Float64Var(&flags.Scale, "scale", d.Scale, "parameter scale of the hardware efficient ansatz")
	cmd.Flags().IntVar(&flags.MaxIterations, "max-iterations", d.MaxIterations, "maximum minimizer iterations, 0 for 100 per element")
	cmd.Flags().Float64Var(&flags.Tol, "tol", d.Tol, "energy tolerance of convergence")
	cmd.Flags().IntVar(&flags.Parallelism, "parallelism", d.Parallelism, "drivers run in parallel")
}

// runFile returns the defaults, overridden by the YAML run file, overridden by explicitly set flags.
// The Hamiltonian path is taken from the first argument if present.
func (a *app) runFile(cmd *cobra.Command, args []string, flags RunFile) (RunFile, error) {
	rf := defaultRunFile()
	if a.configPath != "" {
		if err := readRunFile(a.configPath, &rf); err != nil {
			return RunFile{}, errors.Wrap(err, "")
		}
	}

	changed := cmd.Flags().Changed
	if changed("ansatz") {
		rf.Ansatz = flags.Ansatz
	}
	if changed("ansatze") {
		rf.Ansatze = flags.Ansatze
	}
	if changed("rescaled") {
		rf.Rescaled = flags.Rescaled
	}
	if changed("extended") {
		rf.Extended = flags.Extended
	}
	if changed("layers") {
		rf.Layers = flags.Layers
	}
	if changed("scale") {
		rf.Scale = flags.Scale
	}
	if changed("max-iterations") {
		rf.MaxIterations = flags.MaxIterations
	}
	if changed("tol") {
		rf.Tol = flags.Tol
	}
	if changed("parallelism") {
		rf.Parallelism = flags.Parallelism
	}
	if len(args) > 0 {
		rf.Hamiltonian = args[0]
	}
	return rf, nil
}

func (rf RunFile) familyOptions() ansatz.FamilyOptions {
	return ansatz.FamilyOptions{Rescaled: rf.Rescaled, Extended: rf.Extended, Layers: rf.Layers, Scale: rf.Scale}
}

func (rf RunFile) runOptions() vqe.RunOptions {
	return vqe.NewRunOptions().MaxIterations(rf.MaxIterations).Tol(rf.Tol)
}
