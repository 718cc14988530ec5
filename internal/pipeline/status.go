// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pdiddy/rulebook-engine/internal/journal"
	"github.com/pdiddy/rulebook-engine/internal/state"
)

// Status renders the per-phase completion table for dir. It is strictly
// read-only: no lock, no state mutation. verbose adds the run journal's
// last execution per phase.
func (o *Orchestrator) Status(ctx context.Context, dir string, verbose bool) error {
	dir, err := state.ResolveDir(dir)
	if err != nil {
		return err
	}
	_, st, err := o.loadFor(dir)
	if err != nil {
		return err
	}

	fmt.Fprintf(o.out, "source:  %s\n", st.SourcePDF)
	fmt.Fprintf(o.out, "output:  %s\n", st.OutputDir)
	fmt.Fprintf(o.out, "status:  %s\n", st.Status)
	if st.Error != nil {
		fmt.Fprintf(o.out, "error:   phase %d: %s\n", st.Error.Phase, st.Error.Message)
		if st.Error.Remediation != "" {
			fmt.Fprintf(o.out, "         try: %s\n", st.Error.Remediation)
		}
	}
	fmt.Fprintln(o.out)

	var lastRun map[int]journal.Entry
	if verbose {
		if j, err := journal.Open(dir); err == nil {
			lastRun, _ = j.LastRun(ctx)
			j.Close()
		}
	}

	tw := tabwriter.NewWriter(o.out, 0, 4, 2, ' ', 0)
	if verbose {
		fmt.Fprintln(tw, "PHASE\tNAME\tSTATE\tLAST RUN")
	} else {
		fmt.Fprintln(tw, "PHASE\tNAME\tSTATE")
	}
	for n := 0; n <= o.reg.Max(); n++ {
		p := o.reg.Get(n)
		if p == nil {
			continue
		}
		phaseState := "pending"
		switch {
		case st.PhaseCompleted(n):
			phaseState = "completed"
		case st.Error != nil && st.Error.Phase == n:
			phaseState = "failed"
		case n == st.CurrentPhase:
			phaseState = "current"
		}
		if verbose {
			last := "-"
			if e, ok := lastRun[n]; ok {
				last = fmt.Sprintf("%s (%s, %s)",
					e.StartedAt.Format(time.RFC3339), e.Status,
					e.Duration.Round(time.Millisecond))
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", n, p.Name(), phaseState, last)
		} else {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", n, p.Name(), phaseState)
		}
	}
	return tw.Flush()
}
