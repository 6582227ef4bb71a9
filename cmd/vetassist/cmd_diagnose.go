package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/rendis/vetassist/internal/diagram"
	"github.com/rendis/vetassist/internal/format"
	"github.com/rendis/vetassist/internal/streaming"
	"github.com/rendis/vetassist/internal/wizard"
	"github.com/rendis/vetassist/pkg/schema"
)

type diagnoseFlags struct {
	animal   string
	symptoms []string
	image    string
	format   string
	diagram  string
	noSave   bool
	quiet    bool
}

func newDiagnoseCmd(opts *rootOptions) *cobra.Command {
	var flags diagnoseFlags
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Run one case through the wizard and print the diagnosis and treatment plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDiagnose(cmd, opts, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.animal, "animal", "", "animal type: dog, cat, bird, rabbit, other (required)")
	f.StringSliceVar(&flags.symptoms, "symptom", nil, "symptom ID, repeatable (see 'vetassist catalog')")
	f.StringVar(&flags.image, "image", "", "photo of the animal (jpeg, png, gif or webp)")
	f.StringVarP(&flags.format, "format", "f", string(outputTable), "output format: table, markdown, json")
	f.StringVar(&flags.diagram, "diagram", "", "write the final step diagram to this .png or .svg file")
	f.BoolVar(&flags.noSave, "no-save", false, "do not record the session in the history database")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "hide the progress bar")

	_ = cmd.MarkFlagRequired("animal")
	_ = cmd.MarkFlagRequired("symptom")
	return cmd
}

func runDiagnose(cmd *cobra.Command, opts *rootOptions, flags diagnoseFlags) error {
	outFmt, err := parseOutputFormat(flags.format)
	if err != nil {
		return err
	}
	a, err := newApp(opts.cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sessOpts := a.sessionOptions()
	if !flags.noSave {
		st, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		sessOpts = append(sessOpts, wizard.WithObserver(a.recorder(st).Observe))
	}
	bar := newProgressBar(cmd.ErrOrStderr())
	if !flags.quiet && outFmt != outputJSON {
		sessOpts = append(sessOpts, wizard.WithObserver(bar.observe))
	}

	sess := wizard.NewSession(a.engine, sessOpts...)
	defer sess.Close()

	err = driveWizard(ctx, a, sess, flags)
	bar.done()
	if err != nil {
		return err
	}
	plan, err := sess.TreatmentPlan(a.planner)
	if err != nil {
		return err
	}
	snap := sess.Snapshot()

	if flags.diagram != "" {
		if err := writeDiagram(ctx, flags.diagram, snap); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if outFmt == outputJSON {
		return writeJSON(out, map[string]any{
			"session_id": snap.ID,
			"result":     snap.Result,
			"plan":       plan,
		})
	}
	mode := outFmt.mode()
	fmt.Fprintln(out, format.Diagnosis(mode, snap.Result))
	fmt.Fprintln(out)
	fmt.Fprint(out, format.TreatmentPlan(mode, plan))
	return nil
}

// driveWizard fills the inputs step by step and waits for the analysis.
func driveWizard(ctx context.Context, a *app, sess *wizard.Session, flags diagnoseFlags) error {
	if err := sess.SetAnimalType(schema.AnimalType(flags.animal)); err != nil {
		return err
	}
	if err := sess.Advance(ctx); err != nil {
		return err
	}
	// Toggling twice would remove a symptom again.
	seen := make(map[string]bool, len(flags.symptoms))
	for _, id := range flags.symptoms {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if err := sess.ToggleSymptom(id); err != nil {
			return err
		}
	}
	if err := sess.Advance(ctx); err != nil {
		return err
	}
	if flags.image != "" {
		img, err := a.images.AcquireFile(ctx, flags.image)
		if err != nil {
			return err
		}
		sess.SetImage(img.Ref)
	}
	if err := sess.Advance(ctx); err != nil {
		return err
	}

	st, err := sess.WaitAnalysis(ctx)
	if err != nil {
		sess.CancelAnalysis()
		return err
	}
	if st.Status != schema.AnalysisSucceeded {
		return schema.NewErrorf(schema.ErrCodeEngineFailed, "analysis %s: %s", st.Status, st.Error)
	}
	return sess.Advance(ctx)
}

func writeDiagram(ctx context.Context, path string, snap wizard.Snapshot) error {
	imgFmt := diagram.ImagePNG
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		imgFmt = diagram.ImageSVG
	case ".png":
	default:
		return errors.New("--diagram must end in .png or .svg")
	}
	data, err := diagram.RenderImage(ctx, diagram.Build(snap), imgFmt)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// progressBar redraws a single stderr line from analysis progress events.
type progressBar struct {
	mu    sync.Mutex
	w     io.Writer
	drawn bool
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{w: w}
}

func (p *progressBar) observe(_ context.Context, ev streaming.StreamEvent) {
	if ev.EventType != schema.EventAnalysisProgress {
		return
	}
	payload, ok := ev.Payload.(map[string]any)
	if !ok {
		return
	}
	progress, _ := payload["progress"].(int)

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\ranalyzing %s %3d%%", diagram.ProgressBar(progress, 30), progress)
	p.drawn = true
}

func (p *progressBar) done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		fmt.Fprintln(p.w)
		p.drawn = false
	}
}
