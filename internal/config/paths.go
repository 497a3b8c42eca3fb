package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Paths contains the resolved application paths.
type Paths struct {
	BaseDir     string
	DataDir     string
	ExportDir   string
	WebDir      string
	LogsDir     string
	SessionFile string
}

// ResolvePaths turns the configured paths into absolute ones. Relative entries
// are joined onto baseDir; an empty baseDir means the working directory.
func (c *Config) ResolvePaths(baseDir string) (*Paths, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		baseDir = wd
	}

	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	return &Paths{
		BaseDir:     baseDir,
		DataDir:     abs(c.Paths.DataDir),
		ExportDir:   abs(c.Paths.ExportDir),
		WebDir:      abs(c.Paths.WebDir),
		LogsDir:     abs(c.Paths.LogsDir),
		SessionFile: abs(c.Session.File),
	}, nil
}

// EnsureDirectories creates the writable directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ExportDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// ExportRunDir returns a timestamped directory under ExportDir for one export run.
func (p *Paths) ExportRunDir(at time.Time) string {
	return filepath.Join(p.ExportDir, at.Format("20060102_150405"))
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved paths at Info
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("exports", p.ExportDir),
			slog.String("logs", p.LogsDir),
			slog.String("web", p.WebDir),
		),
		slog.String("session_file", p.SessionFile),
		slog.Bool("session_exists", FileExists(p.SessionFile)),
	)
}
