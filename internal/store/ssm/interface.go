package ssm

import "time"

type SsmHandler interface {
	StoreSession(info SessionInfo) error
	GetSessionList() ([]SessionInfo, error)
	GetSessionById(sessionId string) (SessionInfo, error)
	RemoveSession(sessionId string) error
	RemoveIdleSessions(before time.Time) ([]string, error)
}

type SsmStoreHandler interface {
	SetSessionState() error
}
