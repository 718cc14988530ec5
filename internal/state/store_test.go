// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// newTestState builds a valid state rooted in a temp directory with a
// readable fake source PDF.
func newTestState(t *testing.T) *types.ConversionState {
	t.Helper()
	dir := t.TempDir()
	pdf := filepath.Join(dir, "book.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.7"), 0o644))
	out := filepath.Join(dir, "book")
	require.NoError(t, os.MkdirAll(out, 0o755))
	return types.NewConversionState(pdf, out)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	st := newTestState(t)
	st.CurrentPhase = 5
	st.CurrentStep = "5.2"
	st.CompletedPhases = []int{0, 1, 2, 3, 4}
	st.Diagnostics = true
	st.Config = map[string]any{"gm_keywords": []any{"GM Note"}}
	st.Error = &types.ErrorInfo{
		Phase:       5,
		Step:        "5.2",
		Code:        types.ErrPDF,
		Message:     "page 12 unreadable",
		Recoverable: true,
		Remediation: "pdf-convert --phase 5",
	}

	store := NewStore(st.OutputDir)
	require.NoError(t, store.Save(st))

	got, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, st.SourcePDF, got.SourcePDF)
	assert.Equal(t, st.OutputDir, got.OutputDir)
	assert.Equal(t, st.CurrentPhase, got.CurrentPhase)
	assert.Equal(t, st.CurrentStep, got.CurrentStep)
	assert.Equal(t, st.CompletedPhases, got.CompletedPhases)
	assert.Equal(t, st.Status, got.Status)
	assert.Equal(t, st.Diagnostics, got.Diagnostics)
	require.NotNil(t, got.Error)
	assert.Equal(t, *st.Error, *got.Error)
}

func TestLoad_Absent(t *testing.T) {
	store := NewStore(t.TempDir())
	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoad_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, StateFileName), []byte("{truncated"), 0o644))

	_, err := NewStore(dir).Load()
	require.Error(t, err)
	assert.Equal(t, types.ErrState, types.CategoryOf(err))
}

func TestLoad_IncompatibleMajorVersion(t *testing.T) {
	st := newTestState(t)
	store := NewStore(st.OutputDir)
	require.NoError(t, store.Save(st))

	// Bump the persisted major version past what this build supports.
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	tampered := []byte(string(data))
	tampered = []byte(replaceOnce(string(tampered), `"version": "2.0"`, `"version": "9.0"`))
	require.NoError(t, os.WriteFile(store.Path(), tampered, 0o644))

	_, err = store.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incompatible schema version")
}

func replaceOnce(s, old, new string) string {
	for i := 0; i+len(old) <= len(s); i++ {
		if s[i:i+len(old)] == old {
			return s[:i] + new + s[i+len(old):]
		}
	}
	return s
}

func TestSave_CrashLeavesPreviousStateReadable(t *testing.T) {
	st := newTestState(t)
	store := NewStore(st.OutputDir)
	require.NoError(t, store.Save(st))

	// Simulate a crash mid-write: a partially written temp file beside the
	// committed state. The canonical file must remain fully readable.
	tmp := filepath.Join(st.OutputDir, "."+StateFileName+".tmp-crash")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"version": "2.`), 0o644))

	got, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, st.SourcePDF, got.SourcePDF)
}

func TestSave_LockContention(t *testing.T) {
	st := newTestState(t)
	store := NewStore(st.OutputDir)

	// A live foreign process holds the lock. PID 1 is always alive and is
	// never this test process.
	require.NoError(t, os.WriteFile(lockPath(st.OutputDir), []byte("1\n"), 0o644))

	start := time.Now()
	err := store.Save(st)
	require.Error(t, err)
	assert.Equal(t, types.ErrState, types.CategoryOf(err))
	assert.GreaterOrEqual(t, time.Since(start), lockBackoff, "should have retried with backoff")

	// The failed save must not have produced a state file.
	_, statErr := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestSave_ReclaimsStaleLock(t *testing.T) {
	st := newTestState(t)
	store := NewStore(st.OutputDir)

	// A dead process id: spawn nothing, use an implausibly high pid.
	require.NoError(t, os.WriteFile(lockPath(st.OutputDir), []byte("999999999\n"), 0o644))

	require.NoError(t, store.Save(st))

	// Lock released after save.
	_, err := os.Stat(lockPath(st.OutputDir))
	assert.True(t, os.IsNotExist(err))
}

func TestAcquireRunLock_HeldAcrossSaves(t *testing.T) {
	st := newTestState(t)
	store := NewStore(st.OutputDir)

	require.NoError(t, store.AcquireRunLock())
	defer store.ReleaseRunLock()

	// Saves inside the run re-enter the lock instead of deadlocking, and
	// leave it in place afterwards.
	require.NoError(t, store.Save(st))
	_, err := os.Stat(lockPath(st.OutputDir))
	assert.NoError(t, err, "run lock should still be held")
}
