package ports

import "go.trai.ch/gate/internal/core/domain"

// ReportStore defines the interface for persisting run reports.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ReportStore interface {
	// Save stores the report as the latest run under root.
	Save(root string, report *domain.Report) error

	// Latest returns the most recent report under root.
	// It returns domain.ErrReportNotFound when no run was recorded.
	Latest(root string) (*domain.Report, error)

	// Clean removes all gate metadata under root.
	Clean(root string) error
}
