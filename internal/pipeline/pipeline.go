// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline is the conversion orchestrator. It drives the phase
// registry through the new/resume/single-phase/from-step/status flows,
// persists state before and after every phase so a crash resumes
// correctly, and converts phase failures into recoverable error records
// with targeted re-run remediation.
package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/rulebook-engine/internal/journal"
	"github.com/pdiddy/rulebook-engine/internal/pdfio"
	"github.com/pdiddy/rulebook-engine/internal/phase"
	"github.com/pdiddy/rulebook-engine/internal/state"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// Options carries the CLI settings of one invocation.
type Options struct {
	// Output overrides the default output directory for new conversions.
	Output string

	// Yes suppresses interactive confirmation (auto-resume, gate skip).
	Yes bool

	// Diagnostics requests a diagnostic bundle at the end of the run.
	Diagnostics bool

	// GMKeywords extends the configured GM callout keyword list.
	GMKeywords []string

	// CalloutConfigFile is a user-supplied callout definition file.
	CalloutConfigFile string

	// Args echoes the raw CLI invocation for diagnostics.
	Args []string
}

// OpenFunc opens the source document; injectable for tests.
type OpenFunc func(path string) (pdfio.Document, error)

// Orchestrator runs conversions against one phase registry.
type Orchestrator struct {
	reg  *phase.Registry
	cfg  types.ConvertConfig
	out  io.Writer
	in   io.Reader
	open OpenFunc
}

// New builds an orchestrator.
func New(reg *phase.Registry, cfg types.ConvertConfig, out io.Writer, in io.Reader, open OpenFunc) *Orchestrator {
	if open == nil {
		open = pdfio.Open
	}
	return &Orchestrator{reg: reg, cfg: cfg, out: out, in: in, open: open}
}

// RunNew starts a conversion of pdfPath. An existing state in the output
// directory offers overwrite/resume/abort; --yes auto-resumes.
func (o *Orchestrator) RunNew(ctx context.Context, pdfPath string, opts Options) error {
	pdfPath, err := filepath.Abs(pdfPath)
	if err != nil {
		return types.NewError(types.ErrFile, err, "resolving %s", pdfPath)
	}
	if _, err := os.Stat(pdfPath); err != nil {
		return types.NewError(types.ErrFile, err, "source PDF %s is not readable", pdfPath)
	}

	dir := opts.Output
	if dir == "" {
		dir = strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath))
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return types.NewError(types.ErrFile, err, "resolving output directory %s", dir)
	}
	for _, sub := range []string{"", phase.ImagesDirName, phase.PreprocessedDirName} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return types.NewError(types.ErrFile, err, "creating output directory %s", dir)
		}
	}

	store := state.NewStore(dir)
	existing, err := store.Load()
	if err != nil {
		return err
	}
	if existing != nil {
		switch o.promptExisting(opts.Yes) {
		case "resume":
			return o.Resume(ctx, dir, opts)
		case "overwrite":
			// Fall through to a fresh state replacing the old record.
		default:
			return types.NewError(types.ErrUserAbort, nil, "conversion aborted")
		}
	}

	st := types.NewConversionState(pdfPath, dir)
	o.applyOptions(st, opts)
	if err := store.Save(st); err != nil {
		return err
	}
	state.SetActive(dir)

	return o.runPhases(ctx, store, st, 0, opts)
}

// Resume continues an interrupted conversion in dir.
func (o *Orchestrator) Resume(ctx context.Context, dir string, opts Options) error {
	store, st, err := o.loadFor(dir)
	if err != nil {
		return err
	}

	if st.Status == types.StatusCompleted {
		// Idempotent: nothing to do, nothing rewritten.
		fmt.Fprintf(o.out, "conversion already completed: %s\n", st.OutputDir)
		return nil
	}

	if vs := state.ValidateForResume(st, o.reg.ArtifactFunc(st.SourcePDF)); len(vs) > 0 {
		return violationError(vs)
	}

	opts = o.restoreOptions(st, opts)
	return o.runPhases(ctx, store, st, st.NextPhase(), opts)
}

// RunSinglePhase re-executes exactly phase n, which requires phases [0,n)
// completed. Later phases' completion status is untouched.
func (o *Orchestrator) RunSinglePhase(ctx context.Context, dir string, n int, opts Options) error {
	store, st, err := o.loadFor(dir)
	if err != nil {
		return err
	}
	if p := o.reg.Get(n); p == nil {
		return types.NewError(types.ErrState, nil, "phase %d does not exist", n)
	}
	for i := 0; i < n; i++ {
		if !st.PhaseCompleted(i) {
			return types.NewError(types.ErrState, nil,
				"phase %d requires phases 0-%d completed; phase %d is not", n, n-1, i).
				WithRemediation("run: pdf-convert --resume %s", dir)
		}
	}
	if vs := state.ValidateForResume(st, o.reg.ArtifactFunc(st.SourcePDF)); len(vs) > 0 {
		return violationError(vs)
	}

	opts = o.restoreOptions(st, opts)
	doc, err := o.open(st.SourcePDF)
	if err != nil {
		return err
	}
	defer doc.Close()

	if err := store.AcquireRunLock(); err != nil {
		return err
	}
	defer store.ReleaseRunLock()

	pc := o.phaseContext(ctx, doc, st, opts)
	prevStatus := st.Status
	execErr := o.executeOne(ctx, store, st, o.reg.Get(n), pc)

	// A targeted re-run leaves later phases' completion untouched, so the
	// resume point must move back past the whole completed set. On failure
	// the error record stays but the state remains resumable.
	st.CurrentPhase = st.NextPhase()
	if execErr == nil && prevStatus == types.StatusCompleted {
		st.Status = types.StatusCompleted
	}
	if err := store.Save(st); err != nil {
		return err
	}
	return execErr
}

// RunFromStep runs the remaining pipeline starting at the phase of "P.S".
// The step suffix is advisory context recorded into the state.
func (o *Orchestrator) RunFromStep(ctx context.Context, dir, step string, opts Options) error {
	if !types.ValidStepID(step) {
		return types.NewError(types.ErrState, nil, "malformed step id %q (want \"phase.step\")", step)
	}
	var phaseNum, stepNum int
	fmt.Sscanf(step, "%d.%d", &phaseNum, &stepNum)

	store, st, err := o.loadFor(dir)
	if err != nil {
		return err
	}
	if vs := state.ValidateForResume(st, o.reg.ArtifactFunc(st.SourcePDF)); len(vs) > 0 {
		return violationError(vs)
	}

	st.CurrentStep = step
	// From-step re-executes its phase and everything after it, even when
	// they had already completed.
	kept := st.CompletedPhases[:0]
	for _, p := range st.CompletedPhases {
		if p < phaseNum {
			kept = append(kept, p)
		}
	}
	st.CompletedPhases = kept
	if st.CurrentPhase > phaseNum {
		st.CurrentPhase = phaseNum
	}

	opts = o.restoreOptions(st, opts)
	return o.runPhases(ctx, store, st, phaseNum, opts)
}

// loadFor resolves dir (falling back to the active pointer), loads the
// state, and returns both.
func (o *Orchestrator) loadFor(dir string) (*state.Store, *types.ConversionState, error) {
	dir, err := state.ResolveDir(dir)
	if err != nil {
		return nil, nil, err
	}
	store := state.NewStore(dir)
	st, err := store.Load()
	if err != nil {
		return nil, nil, err
	}
	if st == nil {
		return nil, nil, types.NewError(types.ErrState, nil,
			"no conversion state in %s", dir).
			WithRemediation("start a conversion: pdf-convert <pdf> --output %s", dir)
	}
	return store, st, nil
}

// runPhases executes phases [from, max] sequentially, persisting before and
// after each phase.
func (o *Orchestrator) runPhases(ctx context.Context, store *state.Store, st *types.ConversionState, from int, opts Options) error {
	doc, err := o.open(st.SourcePDF)
	if err != nil {
		return err
	}
	defer doc.Close()

	if err := store.AcquireRunLock(); err != nil {
		return err
	}
	defer store.ReleaseRunLock()

	pc := o.phaseContext(ctx, doc, st, opts)

	for n := from; n <= o.reg.Max(); n++ {
		if st.PhaseCompleted(n) {
			continue
		}
		p := o.reg.Get(n)
		if p == nil {
			continue
		}
		if err := o.executeOne(ctx, store, st, p, pc); err != nil {
			return err
		}
	}

	st.Status = types.StatusCompleted
	if err := store.Save(st); err != nil {
		return err
	}
	state.ClearActive(st.OutputDir)
	fmt.Fprintf(o.out, "conversion completed: %s\n",
		filepath.Join(st.OutputDir, phase.BookName(st.SourcePDF)+".md"))
	return nil
}

// executeOne persists entry into the phase, runs it, journals the outcome,
// and persists the completion or failure transition.
func (o *Orchestrator) executeOne(ctx context.Context, store *state.Store, st *types.ConversionState, p phase.Phase, pc *phase.Context) error {
	st.EnterPhase(p.Number())
	if err := store.Save(st); err != nil {
		return err
	}
	fmt.Fprintf(o.out, "phase %d: %s\n", p.Number(), p.Name())

	pr := p.Execute(pc)
	o.journalPhase(ctx, st.OutputDir, pr)

	if pr.Failed() {
		code := pr.FailingCategory()
		if code == "" {
			code = types.ErrPDF
		}
		info := types.ErrorInfo{
			Phase:       p.Number(),
			Step:        pr.FailingStep(),
			Code:        code,
			Message:     strings.Join(pr.Errors, "; "),
			Recoverable: true,
			Remediation: fmt.Sprintf("pdf-convert --phase %d %s", p.Number(), st.OutputDir),
		}
		st.MarkPhaseFailed(p.Number(), info)
		if err := store.Save(st); err != nil {
			return err
		}
		return types.NewError(code, nil,
			"phase %d (%s) failed: %s", p.Number(), p.Name(), info.Message).
			WithRemediation("%s", info.Remediation)
	}

	for _, w := range pr.Warnings {
		fmt.Fprintf(o.out, "  warning: %s\n", w)
	}
	st.MarkPhaseComplete(p.Number(), pr)
	return store.Save(st)
}

// journalPhase records the execution best-effort; journal problems never
// affect the run.
func (o *Orchestrator) journalPhase(ctx context.Context, dir string, pr types.PhaseResult) {
	j, err := journal.Open(dir)
	if err != nil {
		fmt.Fprintf(o.out, "  warning: journal unavailable: %v\n", err)
		return
	}
	defer j.Close()

	step := ""
	if len(pr.Steps) > 0 {
		step = pr.Steps[len(pr.Steps)-1].ID
	}
	entry := journal.Entry{
		Phase:    pr.Phase,
		Step:     step,
		Status:   pr.Status,
		Duration: pr.Duration,
		Message:  strings.Join(pr.Errors, "; "),
	}
	if err := j.Record(ctx, entry); err != nil {
		fmt.Fprintf(o.out, "  warning: journal write failed: %v\n", err)
	}
}

// phaseContext builds the execution context shared by all phases of a run.
func (o *Orchestrator) phaseContext(ctx context.Context, doc pdfio.Document, st *types.ConversionState, opts Options) *phase.Context {
	cfg := o.cfg
	cfg.Detect.GMKeywords = append(cfg.Detect.GMKeywords, opts.GMKeywords...)
	return &phase.Context{
		Ctx:             ctx,
		Doc:             doc,
		State:           st,
		Config:          cfg,
		Out:             o.out,
		In:              o.in,
		Args:            opts.Args,
		CalloutDefsPath: opts.CalloutConfigFile,
		AutoProceed:     opts.Yes,
		Diagnostics:     opts.Diagnostics || st.Diagnostics,
	}
}

// applyOptions echoes the invocation into the state's free-form config so
// a resume reproduces it.
func (o *Orchestrator) applyOptions(st *types.ConversionState, opts Options) {
	st.Diagnostics = opts.Diagnostics
	if len(opts.GMKeywords) > 0 {
		st.Config["gm_keywords"] = opts.GMKeywords
	}
	if opts.CalloutConfigFile != "" {
		if abs, err := filepath.Abs(opts.CalloutConfigFile); err == nil {
			st.Config["callout_config_file"] = abs
		}
	}
}

// restoreOptions merges settings persisted at start time back into a
// resume's options.
func (o *Orchestrator) restoreOptions(st *types.ConversionState, opts Options) Options {
	if opts.CalloutConfigFile == "" {
		if v, ok := st.Config["callout_config_file"].(string); ok {
			opts.CalloutConfigFile = v
		}
	}
	if len(opts.GMKeywords) == 0 {
		if vs, ok := st.Config["gm_keywords"].([]any); ok {
			for _, v := range vs {
				if s, ok := v.(string); ok {
					opts.GMKeywords = append(opts.GMKeywords, s)
				}
			}
		}
	}
	return opts
}

// promptExisting asks what to do about an existing conversion; --yes
// auto-resumes without asking.
func (o *Orchestrator) promptExisting(yes bool) string {
	if yes {
		return "resume"
	}
	fmt.Fprintf(o.out, "output directory already has a conversion: [r]esume, [o]verwrite, [a]bort? ")
	reader := bufio.NewReader(o.in)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "abort"
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "r", "resume":
		return "resume"
	case "o", "overwrite":
		return "overwrite"
	}
	return "abort"
}

// violationError folds resume violations into one state error.
func violationError(vs []state.Violation) error {
	lines := make([]string, len(vs))
	for i, v := range vs {
		lines[i] = v.String()
	}
	return types.NewError(types.ErrState, nil,
		"state is not resumable:\n  %s", strings.Join(lines, "\n  ")).
		WithRemediation("fix the issues above or start fresh with pdf-convert <pdf>")
}
