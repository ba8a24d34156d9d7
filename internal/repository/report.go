package repository

import (
	"context"

	"creditapi/internal/model"
)

// ReportRepository defines data access for credit reports using SQL queries
// only. No business logic here — strictly persistence operations.
type ReportRepository interface {
	// Create inserts a new report document. The caller provides ID and
	// timestamps; the stored row is returned.
	Create(ctx context.Context, rep *model.CreditReport) (*model.CreditReport, error)

	// FindByID returns a full report by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.CreditReport, error)

	// List returns the summary projection of every stored report,
	// newest-uploaded-first.
	List(ctx context.Context) ([]model.ReportListItem, error)

	// Delete removes a report by ID. It returns sql.ErrNoRows when no row
	// was deleted, so a second delete of the same ID surfaces as not found.
	Delete(ctx context.Context, id string) error
}
