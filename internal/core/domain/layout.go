package domain

import "path/filepath"

const (
	// GateDirName is the name of the internal workspace directory.
	GateDirName = ".gate"

	// ReportsDirName is the name of the run report directory.
	ReportsDirName = "reports"

	// LatestReportFile is the name of the most recent run report.
	LatestReportFile = "latest.json"

	// ConfigFileName is the name of the pipeline configuration file.
	ConfigFileName = "gate.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultGatePath returns the default root directory for gate metadata.
func DefaultGatePath() string {
	return GateDirName
}

// DefaultReportsPath returns the default path for run reports.
// It joins .gate and reports.
func DefaultReportsPath() string {
	return filepath.Join(GateDirName, ReportsDirName)
}
