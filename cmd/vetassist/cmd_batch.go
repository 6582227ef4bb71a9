package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rendis/vetassist/internal/batch"
	"github.com/rendis/vetassist/internal/format"
	"github.com/rendis/vetassist/internal/wizard"
)

type batchFlags struct {
	parallel int
	timeout  time.Duration
	format   string
	save     bool
}

func newBatchCmd(opts *rootOptions) *cobra.Command {
	var flags batchFlags
	cmd := &cobra.Command{
		Use:   "batch <cases.yaml>",
		Short: "Run every case of a YAML file through the wizard and check expectations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, flags, args[0])
		},
	}

	f := cmd.Flags()
	f.IntVarP(&flags.parallel, "parallel", "p", 0, "cases run concurrently (default: batch_parallel setting)")
	f.DurationVar(&flags.timeout, "timeout", 30*time.Second, "per-case timeout")
	f.StringVarP(&flags.format, "format", "f", string(outputTable), "output format: table, markdown, json")
	f.BoolVar(&flags.save, "save", false, "record the batch sessions in the history database")
	return cmd
}

func runBatch(cmd *cobra.Command, opts *rootOptions, flags batchFlags, path string) error {
	outFmt, err := parseOutputFormat(flags.format)
	if err != nil {
		return err
	}
	a, err := newApp(opts.cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	cases, err := batch.LoadCases(path)
	if err != nil {
		return err
	}

	parallel := flags.parallel
	if parallel <= 0 {
		parallel = a.cfg.BatchParallel
	}

	sessOpts := a.sessionOptions()
	if flags.save {
		st, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		sessOpts = append(sessOpts, wizard.WithObserver(a.recorder(st).Observe))
	}

	runner := batch.NewRunner(batch.Config{
		Engine:         a.engine,
		Planner:        a.planner,
		Catalog:        a.catalog,
		Images:         a.images,
		Parallel:       parallel,
		CaseTimeout:    flags.timeout,
		SessionOptions: sessOpts,
		Logger:         a.logger,
	})
	report, err := runner.Run(ctx, cases)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outFmt == outputJSON {
		if err := writeJSON(out, report); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, format.BatchReport(outFmt.mode(), report))
	}

	if !report.OK() {
		return fmt.Errorf("%d of %d cases did not pass", report.Failed+report.Errored, len(report.Results))
	}
	return nil
}
