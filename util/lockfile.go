package util

import (
	"github.com/gofrs/flock"

	"github.com/gruntwork-io/batchrun/internal/errors"
)

// Lockfile is an advisory file lock guarding a directory shared between runs.
type Lockfile struct {
	*flock.Flock
}

// NewLockfile returns a new unlocked Lockfile for the given path.
func NewLockfile(filename string) *Lockfile {
	return &Lockfile{
		flock.New(filename),
	}
}

// TryAcquire takes the lock without blocking. It returns `ErrLocked` when the lock is held elsewhere.
func (lockfile *Lockfile) TryAcquire() error {
	locked, err := lockfile.TryLock()
	if err != nil {
		return errors.New(err)
	}

	if !locked {
		return errors.New(ErrLocked{Path: lockfile.Path()})
	}

	return nil
}

// Release unlocks the file if it is locked.
func (lockfile *Lockfile) Release() error {
	if !lockfile.Locked() {
		return nil
	}

	return errors.New(lockfile.Unlock())
}

// ErrLocked is returned when the lock file is already held by another run.
type ErrLocked struct {
	Path string
}

func (err ErrLocked) Error() string {
	return "lock " + err.Path + " is held by another run, wait for it to finish or remove the file if no run is active"
}
