package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Two froyo processes sharing a base directory would race on settings.ini
// and the download tree, so a lock file guards each base directory.
var instanceLock *flock.Flock

// acquireLock takes the single instance lock for baseDir, failing when
// another froyo process already holds it.
func acquireLock(baseDir string) error {
	lock := flock.New(filepath.Join(baseDir, "froyo.lock"))

	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("froyo is already running in %s", baseDir)
	}

	instanceLock = lock
	return nil
}

// releaseLock releases the lock if this process holds it.
func releaseLock() {
	if instanceLock != nil {
		instanceLock.Unlock()
		instanceLock = nil
	}
}
