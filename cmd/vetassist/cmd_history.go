package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rendis/vetassist/internal/format"
	"github.com/rendis/vetassist/internal/store"
	"github.com/rendis/vetassist/pkg/schema"
)

type historyFlags struct {
	session string
	animal  string
	urgency string
	since   time.Duration
	limit   int
	offset  int
	format  string
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var flags historyFlags
	cmd := &cobra.Command{
		Use:   "history [diagnosis-id]",
		Short: "List saved diagnoses, or show one in full",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.session, "session", "", "only diagnoses from this session")
	f.StringVar(&flags.animal, "animal", "", "only diagnoses for this animal type")
	f.StringVar(&flags.urgency, "urgency", "", "only diagnoses with this urgency: low, medium, high, emergency")
	f.DurationVar(&flags.since, "since", 0, "only diagnoses newer than this, e.g. 24h")
	f.IntVarP(&flags.limit, "limit", "n", 20, "maximum records")
	f.IntVar(&flags.offset, "offset", 0, "records to skip")
	f.StringVarP(&flags.format, "format", "f", string(outputTable), "output format: table, markdown, json")
	return cmd
}

func runHistory(cmd *cobra.Command, opts *rootOptions, flags historyFlags, args []string) error {
	outFmt, err := parseOutputFormat(flags.format)
	if err != nil {
		return err
	}
	if flags.urgency != "" && !schema.Urgency(flags.urgency).Valid() {
		return fmt.Errorf("unknown urgency %q", flags.urgency)
	}
	if flags.animal != "" && !schema.AnimalType(flags.animal).Valid() {
		return fmt.Errorf("unknown animal type %q", flags.animal)
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

	out := cmd.OutOrStdout()
	mode := outFmt.mode()

	if len(args) == 1 {
		d, err := st.GetDiagnosis(ctx, args[0])
		if err != nil {
			return err
		}
		if outFmt == outputJSON {
			return writeJSON(out, d)
		}
		fmt.Fprintf(out, "Session: %s  Run: %d  Animal: %s  Recorded: %s\n\n",
			d.SessionID, d.Run, d.AnimalType, d.CreatedAt.Local().Format(time.RFC1123))
		fmt.Fprintln(out, format.Diagnosis(mode, &d.Result))
		return nil
	}

	filter := store.DiagnosisFilter{
		SessionID:  flags.session,
		AnimalType: schema.AnimalType(flags.animal),
		Urgency:    schema.Urgency(flags.urgency),
		Limit:      flags.limit,
		Offset:     flags.offset,
	}
	if flags.since > 0 {
		since := time.Now().Add(-flags.since)
		filter.Since = &since
	}

	diagnoses, err := st.ListDiagnoses(ctx, filter)
	if err != nil {
		return err
	}
	if outFmt == outputJSON {
		return writeJSON(out, diagnoses)
	}
	fmt.Fprintln(out, format.History(mode, diagnoses))
	return nil
}
