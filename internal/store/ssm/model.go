package ssm

import (
	"errors"
	"time"

	"aptbot/internal/llm"
)

const stateVersion = "0.1.0"

var ErrSessionNotFound = errors.New("session not found")

type SessionInfo struct {
	SessionId     string        `json:"sessionId"`
	BuildingId    string        `json:"buildingId,omitempty"`
	Schema        string        `json:"schema,omitempty"`
	Authenticated bool          `json:"authenticated"`
	History       []llm.Message `json:"history"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

type SessionState struct {
	Version  string                 `json:"version"`
	Sessions map[string]SessionInfo `json:"sessions"`
}
