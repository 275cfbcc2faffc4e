package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gounc/adapters/api"
	"gounc/adapters/runspec"
	"gounc/domain/core"
	"gounc/internal/migration"
	"gounc/internal/report"
	"gounc/internal/runner"
)

func newServeCmd(a *app) *cobra.Command {
	var demo bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs over HTTP",
		Long: `Serve stored runs as JSON and HTML reports on GOUNC_PORT.

Without GOUNC_DATABASE_URL the server reads an in-memory store; --demo seeds
it with a small Ishigami run.

Example: gounc serve --demo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if demo {
				spec := &runspec.Spec{Name: "ishigami-demo", Model: "ishigami"}
				spec.Sampling = runspec.Sampling{NSamples: 256, SecondOrder: true}
				res, err := runner.New(store, a.cfg.Run, a.logger).Execute(ctx, spec, nil)
				if err != nil {
					return fmt.Errorf("demo run failed: %w", err)
				}
				fmt.Printf("Seeded demo run %s\n", res.Record.ID())
			}
			return api.NewServer(store, a.logger).ListenAndServe(ctx, a.cfg.Server)
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "Seed the store with a demo run before serving")
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the run tables in GOUNC_DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			m := migration.NewRunner()
			if err := m.Run(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Printf("Migrations applied (version %s)\n", m.Version())
			return nil
		},
	}
}

func newRunsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			sums, err := postgresStore(db).List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(sums) == 0 {
				fmt.Println("No stored runs.")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN ID\tMODEL\tSCHEME\tROWS\tFAILED\tCREATED")
			for _, s := range sums {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", s.RunID, s.Model, s.Scheme, s.Rows, s.Failed, s.CreatedAt)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list (0 for all)")
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	var html bool
	var digits int

	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Print the report of a stored run",
		Long: `Render the report of a run stored in GOUNC_DATABASE_URL to stdout.

Example: gounc report 7b0e2c1a-0d7e-4c39-9d5c-3b1f5f0e2a11 --html > report.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseRunID(args[0])
			if err != nil {
				return err
			}
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			rec, err := postgresStore(db).Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			opts := report.DefaultOptions()
			opts.SigDigits = digits
			if html {
				_, err = os.Stdout.Write(report.HTML(rec, opts))
				return err
			}
			_, err = fmt.Print(report.Markdown(rec, opts))
			return err
		},
	}

	cmd.Flags().BoolVar(&html, "html", false, "Render HTML instead of markdown")
	cmd.Flags().IntVar(&digits, "digits", 3, "Significant digits")
	return cmd
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the runnable models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range runner.Models() {
				fmt.Println(name)
			}
			return nil
		},
	}
}
