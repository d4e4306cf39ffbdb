package ssm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"aptbot/internal/utils"

	"golang.org/x/sys/unix"
)

func NewSsmStore(path string) *SsmStore {
	return &SsmStore{
		path:              path,
		filesystemHandler: utils.NewFilesystemExecutor(),
	}
}

// SsmStore is a JSON file shared by every process using the same state dir.
type SsmStore struct {
	path              string
	mu                sync.Mutex
	filesystemHandler utils.FilesystemHandler
}

func (s *SsmStore) withLock(fn func(st *SessionState) error) error {
	return s.locked(unix.LOCK_EX, func(st *SessionState) error {
		if err := fn(st); err != nil {
			return err
		}
		return s.atomicSave(st)
	})
}

func (s *SsmStore) withRLock(fn func(st *SessionState) error) error {
	return s.locked(unix.LOCK_SH, fn)
}

func (s *SsmStore) locked(how int, fn func(st *SessionState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockPath := s.path + ".lock"
	if err := s.filesystemHandler.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	lf, err := s.filesystemHandler.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	defer lf.Close()

	if err := s.filesystemHandler.Flock(int(lf.Fd()), how); err != nil {
		return err
	}
	defer s.filesystemHandler.Flock(int(lf.Fd()), unix.LOCK_UN)

	st, err := s.loadOrInit()
	if err != nil {
		return err
	}
	return fn(st)
}

func (s *SsmStore) loadOrInit() (*SessionState, error) {
	b, err := s.filesystemHandler.ReadFile(s.path)
	if err != nil {
		if s.filesystemHandler.IsNotExist(err) {
			return &SessionState{
				Version:  stateVersion,
				Sessions: map[string]SessionInfo{},
			}, nil
		}
		return nil, err
	}

	var st SessionState
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("session state json broken: %w", err)
	}
	if st.Sessions == nil {
		st.Sessions = map[string]SessionInfo{}
	}
	return &st, nil
}

func (s *SsmStore) atomicSave(st *SessionState) error {
	tmp := s.path + ".tmp"

	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	f, err := s.filesystemHandler.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		s.removeTemp(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		s.removeTemp(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		s.removeTemp(tmp)
		return err
	}
	if err := s.filesystemHandler.Rename(tmp, s.path); err != nil {
		s.removeTemp(tmp)
		return err
	}
	return nil
}

// removeTemp drops a half-written temp file; the state file is untouched
// and the caller already reports the save error.
func (s *SsmStore) removeTemp(tmp string) {
	_ = s.filesystemHandler.Remove(tmp)
}

// SetSessionState creates the state file if missing and stamps its version.
func (s *SsmStore) SetSessionState() error {
	return s.withLock(func(st *SessionState) error {
		st.Version = stateVersion
		return nil
	})
}
