package files

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"plforecast/internal/config"
)

var (
	// ErrInvalidName is returned for names that are empty, contain a path
	// separator or would leave their directory.
	ErrInvalidName = errors.New("invalid file name")
	// ErrNotFound is returned when a named file or run does not exist.
	ErrNotFound = errors.New("file not found")
)

// Manager resolves user supplied names inside the data and export directories.
type Manager struct {
	paths     *config.Paths
	discovery *Discovery
	logger    *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		paths:     paths,
		discovery: NewDiscovery(paths.BaseDir),
		logger:    logger.With(slog.String("component", "file_manager")),
	}
}

// Workbooks lists the workbooks stored in the data directory.
func (m *Manager) Workbooks() ([]FileInfo, error) {
	return m.discovery.FindWorkbooks(m.paths.DataDir)
}

// ExportRuns lists the export runs under the export directory.
func (m *Manager) ExportRuns() ([]ExportRun, error) {
	return m.discovery.ListExportRuns(m.paths.ExportDir)
}

// ResolveWorkbook returns the absolute path of the workbook called name in the
// data directory.
func (m *Manager) ResolveWorkbook(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	if !IsWorkbook(name) {
		return "", fmt.Errorf("%w: %q is not a workbook", ErrInvalidName, name)
	}

	path := filepath.Join(m.paths.DataDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		m.logger.Debug("Workbook lookup failed",
			slog.String("name", name),
			slog.String("full_path", path))
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(path string) bool {
	_, err := os.Stat(m.resolvePath(path))
	return err == nil
}

// EnsureDirectory creates a directory if it doesn't exist
func (m *Manager) EnsureDirectory(path string) error {
	fullPath := m.resolvePath(path)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		m.logger.Debug("Creating directory", slog.String("full_path", fullPath))
		return os.MkdirAll(fullPath, 0755)
	}
	return nil
}

// resolvePath resolves a path relative to the appropriate base directory
func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	switch {
	case strings.HasPrefix(path, "exports/"):
		return filepath.Join(m.paths.ExportDir, strings.TrimPrefix(path, "exports/"))
	case strings.HasPrefix(path, "logs/"):
		return filepath.Join(m.paths.LogsDir, strings.TrimPrefix(path, "logs/"))
	default:
		return filepath.Join(m.paths.DataDir, path)
	}
}

func checkName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.ContainsAny(name, `/\`), name == ".", name == "..", filepath.Base(name) != name:
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
