package utils

import "path/filepath"

const (
	DefaultStateDir  = "/var/lib/aptbot"
	SessionStoreName = "sessions.json"
)

func SessionStorePath(stateDir string) string {
	if stateDir == "" {
		stateDir = DefaultStateDir
	}
	return filepath.Join(stateDir, SessionStoreName)
}
