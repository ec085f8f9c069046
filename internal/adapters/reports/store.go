// Package reports persists run reports as JSON files under the gate directory.
package reports

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/gate/internal/core/domain"
	"go.trai.ch/gate/internal/core/ports"
)

var _ ports.ReportStore = (*Store)(nil)

// Store implements ports.ReportStore. Each run is written to <id>.json and
// copied to latest.json.
type Store struct {
	mu sync.Mutex
}

// NewStore creates a new report store.
func NewStore() *Store {
	return &Store{}
}

// Save writes the report below root/.gate/reports.
func (s *Store) Save(root string, report *domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(root, domain.DefaultReportsPath())

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return domain.Cause(domain.ErrReportWriteFailed, err, "id", report.ID)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return domain.Cause(domain.ErrReportWriteFailed, err, "dir", dir)
	}

	if report.ID != "" {
		if err := writeFile(filepath.Join(dir, report.ID+".json"), data); err != nil {
			return err
		}
	}
	return writeFile(filepath.Join(dir, domain.LatestReportFile), data)
}

// Latest reads root/.gate/reports/latest.json.
func (s *Store) Latest(root string) (*domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(root, domain.DefaultReportsPath(), domain.LatestReportFile)

	//nolint:gosec // Path is built from the discovered project root
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.Tag(domain.ErrReportNotFound, "path", path)
		}
		return nil, domain.Cause(domain.ErrReportReadFailed, err, "path", path)
	}

	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, domain.Cause(domain.ErrReportReadFailed, err, "path", path)
	}
	return &report, nil
}

// Clean removes root/.gate. A missing directory is not an error.
func (s *Store) Clean(root string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(root, domain.DefaultGatePath())
	if err := os.RemoveAll(dir); err != nil {
		return domain.Cause(domain.ErrReportWriteFailed, err, "dir", dir)
	}
	return nil
}

// writeFile replaces path through a temporary file so readers never see a partial report.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return domain.Cause(domain.ErrReportWriteFailed, err, "path", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return domain.Cause(domain.ErrReportWriteFailed, err, "path", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return domain.Cause(domain.ErrReportWriteFailed, err, "path", path)
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		_ = os.Remove(tmpName)
		return domain.Cause(domain.ErrReportWriteFailed, err, "path", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return domain.Cause(domain.ErrReportWriteFailed, err, "path", path)
	}
	return nil
}
