package env

import (
	"path/filepath"

	"aptbot/internal/store/ssm"
	"aptbot/internal/utils"
)

func NewBootstrapManager(stateDir string, auditPath string) *BootstrapManager {
	if stateDir == "" {
		stateDir = utils.DefaultStateDir
	}
	return &BootstrapManager{
		stateDir:          stateDir,
		auditPath:         auditPath,
		filesystemHandler: utils.NewFilesystemExecutor(),
		ssmStoreHandler:   ssm.NewSsmStore(utils.SessionStorePath(stateDir)),
	}
}

type BootstrapManager struct {
	stateDir          string
	auditPath         string
	filesystemHandler utils.FilesystemHandler
	ssmStoreHandler   ssm.SsmStoreHandler
}

func (m *BootstrapManager) SetupRuntime(persist bool) error {
	// 1. create state and audit directories
	if err := m.setupRuntimeDirectory(); err != nil {
		return err
	}

	// 2. setup SSM (Session State Management)
	if persist {
		if err := m.setupSsm(); err != nil {
			return err
		}
	}

	return nil
}

func (m *BootstrapManager) setupRuntimeDirectory() error {
	dirs := []string{m.stateDir}
	if m.auditPath != "" {
		dirs = append(dirs, filepath.Dir(m.auditPath))
	}
	for _, dir := range dirs {
		if err := m.filesystemHandler.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func (m *BootstrapManager) setupSsm() error {
	return m.ssmStoreHandler.SetSessionState()
}
