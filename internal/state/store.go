// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package state persists the durable conversion record with crash-safe
// writes and cross-process locking. One record lives per output directory
// as .state.json, guarded by a PID-stamped .state.lock during writes.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/rulebook-engine/internal/fsutil"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// StateFileName is the canonical state record inside an output directory.
const StateFileName = ".state.json"

// Store reads and writes conversion state for one output directory.
type Store struct {
	dir string
}

// NewStore creates a store for the given output directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the output directory the store operates on.
func (s *Store) Dir() string { return s.dir }

// Path returns the state file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, StateFileName)
}

// Save persists the full state record. It acquires the exclusive lock
// (with stale-lock reclamation), writes a temp file in the same directory,
// atomically renames it over .state.json, and releases the lock on every
// exit path.
func (s *Store) Save(st *types.ConversionState) error {
	owned, err := acquireLock(s.dir)
	if err != nil {
		return err
	}
	if owned {
		defer releaseLock(s.dir)
	}

	st.Version = types.SchemaVersion
	st.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return types.NewError(types.ErrState, err, "marshaling state")
	}
	if err := fsutil.AtomicWriteFile(s.Path(), append(data, '\n'), 0o644); err != nil {
		return types.NewError(types.ErrState, err, "writing state file")
	}
	return nil
}

// Load reads the state record. Returns (nil, nil) when no state file
// exists. Rejects records missing required fields or written by an
// incompatible schema major version.
func (s *Store) Load() (*types.ConversionState, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, types.NewError(types.ErrState, err, "reading state file %s", s.Path())
	}

	var st types.ConversionState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, types.NewError(types.ErrState, err, "state file %s is corrupt", s.Path())
	}

	if st.Version == "" || st.SourcePDF == "" || st.OutputDir == "" || st.Status == "" {
		return nil, types.NewError(types.ErrState, nil,
			"state file %s is missing required fields", s.Path())
	}
	if majorVersion(st.Version) != majorVersion(types.SchemaVersion) {
		return nil, types.NewError(types.ErrState, nil,
			"state file %s has incompatible schema version %s (this build supports %s)",
			s.Path(), st.Version, types.SchemaVersion)
	}

	return &st, nil
}

// AcquireRunLock takes the directory lock for the duration of a pipeline
// run so a concurrent invocation fails fast instead of interleaving.
// Release with ReleaseRunLock.
func (s *Store) AcquireRunLock() error {
	owned, err := acquireLock(s.dir)
	if err != nil {
		return err
	}
	if !owned {
		return types.NewError(types.ErrState, nil,
			"output directory %s is already locked by this process", s.dir)
	}
	return nil
}

// ReleaseRunLock releases the run-scoped lock.
func (s *Store) ReleaseRunLock() {
	releaseLock(s.dir)
}

// majorVersion extracts the major component of a "major.minor" version.
func majorVersion(v string) string {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}

// Violation describes one structural-invariant failure found by
// ValidateForResume.
type Violation struct {
	// Field names the violated invariant.
	Field string

	// Detail is the human-readable explanation.
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Detail)
}

// ArtifactFunc maps a completed phase number to the artifact path it
// declares inside the output directory, or "" when the phase declares none.
type ArtifactFunc func(phase int) string

// ValidateForResume re-checks the structural invariants a resume relies
// on and returns every violation found (empty slice means valid):
// the source PDF still exists, the output directory exists, the step id is
// well-formed, the completed set is sorted with every member below the
// current phase, and every completed phase's declared artifact is on disk.
func ValidateForResume(st *types.ConversionState, artifact ArtifactFunc) []Violation {
	var vs []Violation

	if _, err := os.Stat(st.SourcePDF); err != nil {
		vs = append(vs, Violation{"source_pdf", fmt.Sprintf("source PDF %s is not accessible: %v", st.SourcePDF, err)})
	}
	if info, err := os.Stat(st.OutputDir); err != nil || !info.IsDir() {
		vs = append(vs, Violation{"output_dir", fmt.Sprintf("output directory %s is missing", st.OutputDir)})
	}
	if st.CurrentStep != "" && !types.ValidStepID(st.CurrentStep) {
		vs = append(vs, Violation{"current_step", fmt.Sprintf("malformed step id %q", st.CurrentStep)})
	}
	if st.CurrentPhase < 0 || st.CurrentPhase > 10 {
		vs = append(vs, Violation{"current_phase", fmt.Sprintf("phase %d out of range", st.CurrentPhase)})
	}

	for i, p := range st.CompletedPhases {
		if i > 0 && st.CompletedPhases[i-1] >= p {
			vs = append(vs, Violation{"completed_phases", fmt.Sprintf("set not strictly sorted at index %d", i)})
			break
		}
	}
	for _, p := range st.CompletedPhases {
		if p >= st.CurrentPhase {
			vs = append(vs, Violation{"completed_phases",
				fmt.Sprintf("completed phase %d is not below current phase %d", p, st.CurrentPhase)})
			break
		}
	}

	if artifact != nil {
		for _, p := range st.CompletedPhases {
			name := artifact(p)
			if name == "" {
				continue
			}
			path := filepath.Join(st.OutputDir, name)
			if _, err := os.Stat(path); err != nil {
				vs = append(vs, Violation{"artifact",
					fmt.Sprintf("phase %d output %s is missing", p, name)})
			}
		}
	}

	return vs
}
