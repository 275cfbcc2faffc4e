package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gounc/adapters/excel"
	"gounc/adapters/runspec"
	"gounc/domain/uncertainty"
	"gounc/internal/evaluation"
	"gounc/internal/report"
	"gounc/internal/runner"
)

type runFlags struct {
	specFile    string
	model       string
	name        string
	samples     int
	secondOrder bool
	scheme      string
	seed        uint64
	workers     int
	outDir      string
	format      string
	reportFmt   string
	digits      int
}

func newRunCmd(a *app) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sample, evaluate and analyse a model under uncertainty",
		Long: `Run every stage of an uncertainty analysis and export the results.

The run is declared in a YAML file (--spec) or by flags; flags override the
file. Frames are written to <out>/<run-id>/ as one workbook or as CSV files,
next to a markdown or HTML report. With GOUNC_DATABASE_URL set the run is
also stored in Postgres.

Example: gounc run --model ishigami --samples 1024 --second-order
Example: gounc run --spec coastal.yaml --format csv --report html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			return runAnalysis(cmd, a, spec, f)
		},
	}

	cmd.Flags().StringVar(&f.specFile, "spec", "", "YAML run declaration")
	cmd.Flags().StringVar(&f.model, "model", "ishigami", "Model to run: "+fmt.Sprint(runner.Models()))
	cmd.Flags().StringVar(&f.name, "name", "", "Run name recorded in the manifest (default: the model)")
	cmd.Flags().IntVar(&f.samples, "samples", 0, "Base sample count (default: GOUNC_SAMPLES)")
	cmd.Flags().BoolVar(&f.secondOrder, "second-order", false, "Compute second order Sobol indices")
	cmd.Flags().StringVar(&f.scheme, "scheme", "", "Sampling scheme: saltelli|latin")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Sampling seed (default: GOUNC_SEED)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Parallel evaluations (default: GOUNC_WORKERS)")
	cmd.Flags().StringVar(&f.outDir, "out", "", "Output directory (default: GOUNC_OUTPUT_DIR)")
	cmd.Flags().StringVar(&f.format, "format", "xlsx", "Frame export format: xlsx|csv")
	cmd.Flags().StringVar(&f.reportFmt, "report", "md", "Report format: md|html|none")
	cmd.Flags().IntVar(&f.digits, "digits", 3, "Significant digits in the report")

	return cmd
}

// resolve loads the run file, if any, and applies the flags that were set
func (f runFlags) resolve(cmd *cobra.Command) (*runspec.Spec, error) {
	spec := &runspec.Spec{}
	if f.specFile != "" {
		s, err := runspec.Load(f.specFile)
		if err != nil {
			return nil, err
		}
		spec = s
	}
	flags := cmd.Flags()
	if spec.Model == "" || flags.Changed("model") {
		spec.Model = f.model
	}
	if flags.Changed("name") {
		spec.Name = f.name
	}
	if flags.Changed("samples") {
		spec.Sampling.NSamples = f.samples
	}
	if flags.Changed("second-order") {
		spec.Sampling.SecondOrder = f.secondOrder
	}
	if flags.Changed("scheme") {
		spec.Sampling.Scheme = f.scheme
	}
	if flags.Changed("seed") {
		spec.Sampling.Seed = f.seed
	}
	if flags.Changed("workers") {
		spec.Workers = f.workers
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func runAnalysis(cmd *cobra.Command, a *app, spec *runspec.Spec, f runFlags) error {
	ctx := cmd.Context()
	format, err := excel.ParseFormat(f.format)
	if err != nil {
		return err
	}
	if f.reportFmt != "md" && f.reportFmt != "html" && f.reportFmt != "none" {
		return fmt.Errorf("unsupported report format %q", f.reportFmt)
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	fmt.Printf("Running %s uncertainty analysis...\n", spec.Model)
	start := time.Now()
	res, err := runner.New(store, a.cfg.Run, a.logger).Execute(ctx, spec, printProgress())
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	fmt.Println()

	rec := res.Record
	m := rec.Manifest
	fmt.Printf("Run ID:      %s\n", rec.ID())
	fmt.Printf("Design:      %s, %d base samples, %d rows\n", m.Design.Scheme, m.Design.NBase, m.Rows)
	fmt.Printf("Failed rows: %d\n", rec.Failures.Count)
	fmt.Printf("Elapsed:     %v\n", time.Since(start).Round(time.Millisecond))

	outDir := f.outDir
	if outDir == "" {
		outDir = a.cfg.Run.OutputDir
	}
	dir := filepath.Join(outDir, rec.ID().String())
	paths, err := excel.NewWriter(a.logger).Write(dir, m.Model, format, res.Engine.Frames())
	if err != nil {
		return err
	}

	if f.reportFmt != "none" {
		opts := report.DefaultOptions()
		opts.SigDigits = f.digits
		path := filepath.Join(dir, "report."+f.reportFmt)
		var body []byte
		if f.reportFmt == "html" {
			body = report.HTML(rec, opts)
		} else {
			body = []byte(report.Markdown(rec, opts))
		}
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		paths = append(paths, path)
	}

	fmt.Println("\nWritten:")
	for _, p := range paths {
		fmt.Printf("  %s\n", p)
	}
	a.logger.Info("run exported", zap.String("run_id", rec.ID().String()), zap.Int("files", len(paths)))

	if s := rec.Sensitivity; s != nil {
		printTopParams(s)
	}
	return nil
}

// printProgress rewrites one status line at most every 200ms
func printProgress() evaluation.ProgressFunc {
	var last time.Time
	return func(p evaluation.Progress) {
		if p.Done < p.Total && time.Since(last) < 200*time.Millisecond {
			return
		}
		last = time.Now()
		fmt.Printf("\r  evaluated %d/%d rows (%d failed)", p.Done, p.Total, p.Failed)
	}
}

func printTopParams(s *uncertainty.Sensitivity) {
	fmt.Println("\nMost influential parameters (ST):")
	for _, c := range s.Components {
		best := -1
		for i, idx := range c.Indices {
			if best < 0 || idx.ST > c.Indices[best].ST {
				best = i
			}
		}
		if best < 0 {
			continue
		}
		idx := c.Indices[best]
		fmt.Printf("  %-24s %-10s %.3f\n", c.Component.Name(), idx.Param, idx.ST)
	}
}
