// Command run runs variational quantum eigensolver experiments.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fumin/vqe"
	"github.com/fumin/vqe/metrics"
	"github.com/fumin/vqe/store"
	"github.com/fumin/vqe/util"
)

type app struct {
	logLevel    string
	logJSON     bool
	dbPath      string
	configPath  string
	metricsFile string

	logger    *zap.Logger
	registry  *prometheus.Registry
	collector *metrics.Collector
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "run",
		Short:         "Variational quantum eigensolver experiments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a.logger, err = newLogger(a.logLevel, a.logJSON)
			if err != nil {
				return errors.Wrap(err, "")
			}
			a.registry = prometheus.NewRegistry()
			a.collector = metrics.NewCollector(a.registry)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.metricsFile != "" {
				if err := prometheus.WriteToTextfile(a.metricsFile, a.registry); err != nil {
					return errors.Wrap(err, "")
				}
			}
			_ = a.logger.Sync()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	root.PersistentFlags().BoolVar(&a.logJSON, "log-json", false, "log in JSON")
	root.PersistentFlags().StringVar(&a.dbPath, "db", filepath.Join("runs", "vqe.db"), "sqlite database of runs")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML run file, overridden by flags")
	root.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "write prometheus metrics to this file on exit")

	root.AddCommand(a.vqeCmd(), a.screenCmd(), a.circuitCmd(), a.exactCmd(), a.isingCmd(), a.historyCmd())
	return root
}

func (a *app) openStore() (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(a.dbPath), os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "")
	}
	st, err := store.Open(a.dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return st, nil
}

func newLogger(level string, json bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	config := zap.NewDevelopmentConfig()
	if json {
		config = zap.NewProductionConfig()
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{"stderr"}
	logger, err := config.Build()
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return logger, nil
}

// progress forwards driver events to the prometheus collector and prints a throttled progress line.
type progress struct {
	vqe.Metrics
	cmd       *cobra.Command
	throttler *util.SkipThrottler
}

func (a *app) progress(cmd *cobra.Command) *progress {
	return &progress{Metrics: a.collector, cmd: cmd, throttler: util.NewSkipThrottler(5 * time.Second)}
}

func (p *progress) Iteration(name string, energy float64) {
	p.Metrics.Iteration(name, energy)
	if p.throttler.Ok() {
		fmt.Fprintf(p.cmd.ErrOrStderr(), "%s %.10f\n", name, energy)
	}
}

func main() {
	if err := mainWithErr(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func mainWithErr() error {
	if err := newRootCmd().Execute(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
