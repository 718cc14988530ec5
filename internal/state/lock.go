// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pdiddy/rulebook-engine/pkg/types"
)

const (
	// LockFileName is the transient lock beside the state file.
	LockFileName = ".state.lock"

	lockRetries = 10
	lockBackoff = 200 * time.Millisecond
)

// lockPath returns the lock file path for an output directory.
func lockPath(dir string) string {
	return filepath.Join(dir, LockFileName)
}

// acquireLock takes the PID-stamped exclusive lock for dir, retrying a
// bounded number of times with fixed backoff. A lock whose recorded process
// is no longer alive is reclaimed. A lock already held by this process
// counts as acquired; the returned bool reports whether the caller owns the
// release (false when the lock was already ours).
func acquireLock(dir string) (owned bool, err error) {
	path := lockPath(dir)

	for attempt := 0; attempt < lockRetries; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return true, nil
		}
		if !os.IsExist(err) {
			return false, types.NewError(types.ErrState, err, "creating lock file %s", path)
		}

		pid, readErr := readLockPID(path)
		if readErr == nil {
			if pid == os.Getpid() {
				// Re-entrant: the run loop already holds the lock.
				return false, nil
			}
			if !processAlive(pid) {
				// Stale lock: owner died without releasing.
				if rmErr := os.Remove(path); rmErr == nil || os.IsNotExist(rmErr) {
					continue
				}
			}
		}

		time.Sleep(lockBackoff)
	}

	return false, types.NewError(types.ErrState, nil,
		"output directory is locked by another process (lock file %s)", path).
		WithRemediation("wait for the other pdf-convert invocation to finish, or remove the lock file if no process holds it")
}

// releaseLock removes the lock file. Only the acquirer that owns the lock
// calls this.
func releaseLock(dir string) {
	os.Remove(lockPath(dir))
}

// readLockPID parses the process id recorded in the lock file.
func readLockPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parsing lock file %s: %w", path, err)
	}
	return pid, nil
}

// processAlive probes whether the process with the given pid exists.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 performs the existence check without delivering anything.
	return proc.Signal(syscall.Signal(0)) == nil
}
