package filesystem

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rogpeppe/go-internal/lockedfile"
)

// LockPath returns the lock file guarding target under dataDir
func LockPath(dataDir, target string) string {
	abs, err := filepath.Abs(target)
	if err != nil {
		abs = filepath.Clean(target)
	}
	hash := sha256.Sum256([]byte(abs))
	return filepath.Join(dataDir, "locks", hex.EncodeToString(hash[:8])+".lock")
}

// LockTarget takes the advisory run lock for target, blocking while another
// process holds it. The returned func releases the lock.
func LockTarget(dataDir, target string) (func(), error) {
	path := LockPath(dataDir, target)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	unlock, err := lockedfile.MutexAt(path).Lock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", target, err)
	}
	return unlock, nil
}
