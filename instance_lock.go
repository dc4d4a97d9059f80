package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var errWorkdirBusy = errors.New("another run is already uploading from this workdir")

// workdirLock keeps two steps sharing a checkout from interleaving their
// uploads in the same thread.
type workdirLock struct {
	workdir string
	file    *flock.Flock
}

func lockWorkdir(workdir string) (*workdirLock, error) {
	path, err := workdirLockPath(workdir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	file := flock.New(path)
	locked, err := file.TryLock()
	switch {
	case err != nil:
		return nil, fmt.Errorf("lock %s: %w", workdir, err)
	case !locked:
		return nil, fmt.Errorf("%w: %s", errWorkdirBusy, workdir)
	}
	return &workdirLock{workdir: workdir, file: file}, nil
}

// Release is safe to call more than once.
func (l *workdirLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil
	if err := file.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.workdir, err)
	}
	return nil
}

// workdirLockPath maps equivalent spellings of a workdir to one lock file
// under the OS temp dir.
func workdirLockPath(workdir string) (string, error) {
	abs, err := filepath.Abs(workdir)
	if err != nil {
		return "", fmt.Errorf("resolve workdir: %w", err)
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(os.TempDir(), "artifact-notifier", hex.EncodeToString(sum[:8])+".lock"), nil
}
