package ssm

import (
	"fmt"
	"sort"
	"time"
)

func NewSsmManager(ssmStore *SsmStore) *SsmManager {
	return &SsmManager{
		ssmStore: ssmStore,
	}
}

type SsmManager struct {
	ssmStore *SsmStore
}

// StoreSession upserts info. CreatedAt survives updates; UpdatedAt is
// stamped now when the caller leaves it zero.
func (m *SsmManager) StoreSession(info SessionInfo) error {
	return m.ssmStore.withLock(func(st *SessionState) error {
		now := time.Now()
		if prev, ok := st.Sessions[info.SessionId]; ok {
			info.CreatedAt = prev.CreatedAt
		} else if info.CreatedAt.IsZero() {
			info.CreatedAt = now
		}
		if info.UpdatedAt.IsZero() {
			info.UpdatedAt = now
		}
		st.Sessions[info.SessionId] = info
		return nil
	})
}

func (m *SsmManager) GetSessionList() ([]SessionInfo, error) {
	var list []SessionInfo
	err := m.ssmStore.withRLock(func(st *SessionState) error {
		for _, s := range st.Sessions {
			list = append(list, s)
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, err
}

func (m *SsmManager) GetSessionById(sessionId string) (SessionInfo, error) {
	var info SessionInfo
	err := m.ssmStore.withRLock(func(st *SessionState) error {
		s, ok := st.Sessions[sessionId]
		if !ok {
			return fmt.Errorf("sessionId=%s: %w", sessionId, ErrSessionNotFound)
		}
		info = s
		return nil
	})
	return info, err
}

func (m *SsmManager) RemoveSession(sessionId string) error {
	return m.ssmStore.withLock(func(st *SessionState) error {
		if _, ok := st.Sessions[sessionId]; !ok {
			return fmt.Errorf("sessionId=%s: %w", sessionId, ErrSessionNotFound)
		}
		delete(st.Sessions, sessionId)
		return nil
	})
}

// RemoveIdleSessions deletes sessions last updated before the cutoff and
// returns their ids.
func (m *SsmManager) RemoveIdleSessions(before time.Time) ([]string, error) {
	var removed []string
	err := m.ssmStore.withLock(func(st *SessionState) error {
		for id, s := range st.Sessions {
			if s.UpdatedAt.Before(before) {
				delete(st.Sessions, id)
				removed = append(removed, id)
			}
		}
		return nil
	})
	sort.Strings(removed)
	return removed, err
}
