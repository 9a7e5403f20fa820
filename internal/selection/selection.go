// Package selection holds the two user-chosen paths a conversion run needs.
//
// The state is shared by every concurrently issued command in a session, so
// all access goes through a mutex held only for the in-memory update, never
// across I/O.
package selection

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Extension is the suffix every destination archive path must carry.
const Extension = ".zip"

// ErrInvalidExtension reports a save path that does not end in Extension.
var ErrInvalidExtension = errors.New("save path must end in " + Extension)

// Snapshot is a consistent read of the selection. Empty strings mean unset.
type Snapshot struct {
	BackupPath string
	SavePath   string
}

// State is the mutable selection shared across one running session.
type State struct {
	mu         sync.Mutex
	backupPath string
	savePath   string
}

// NewState returns an empty selection.
func NewState() *State {
	return &State{}
}

// SetBackupPath replaces the source backup path unconditionally.
func (s *State) SetBackupPath(path string) {
	s.mu.Lock()
	s.backupPath = path
	s.mu.Unlock()
}

// SetSavePath validates and replaces the destination archive path. On an
// extension mismatch the prior value is left untouched.
func (s *State) SetSavePath(path string) error {
	if !strings.HasSuffix(strings.ToLower(path), Extension) {
		return fmt.Errorf("%w: %s", ErrInvalidExtension, path)
	}
	s.mu.Lock()
	s.savePath = path
	s.mu.Unlock()
	return nil
}

// Snapshot returns a consistent view of both paths.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{BackupPath: s.backupPath, SavePath: s.savePath}
}
