package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rendis/vetassist/internal/format"
	"github.com/rendis/vetassist/internal/store"
)

func newRunsCmd(opts *rootOptions) *cobra.Command {
	var fmtFlag string
	cmd := &cobra.Command{
		Use:   "runs <session-id>",
		Short: "Replay the analysis runs of a recorded session from its event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFmt, err := parseOutputFormat(fmtFlag)
			if err != nil {
				return err
			}
			a, err := newApp(opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := store.NewEventLog(st).ReplayRuns(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if outFmt == outputJSON {
				return writeJSON(out, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintf(out, "No analysis runs recorded for session %s\n", args[0])
				return nil
			}
			fmt.Fprintln(out, format.Runs(outFmt.mode(), runs))
			return nil
		},
	}
	cmd.Flags().StringVarP(&fmtFlag, "format", "f", string(outputTable), "output format: table, markdown, json")
	return cmd
}
