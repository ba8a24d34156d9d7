package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"creditapi/internal/model"
	"creditapi/internal/repository"
)

// ReportPostgres is a PostgreSQL implementation of repository.ReportRepository.
// Each report is stored as one row: scalar columns for the keyed/ordered
// fields and JSONB documents for the nested extraction output.
type ReportPostgres struct {
	db *sql.DB
}

// NewReportPostgres creates a new ReportPostgres repository.
func NewReportPostgres(db *sql.DB) *ReportPostgres {
	return &ReportPostgres{db: db}
}

var _ repository.ReportRepository = (*ReportPostgres)(nil)

// Create inserts a new report row and returns the stored record.
func (r *ReportPostgres) Create(ctx context.Context, rep *model.CreditReport) (*model.CreditReport, error) {
	basic, summary, accounts, addresses, err := marshalDocs(rep)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO reports (id, basic_details, report_summary, credit_accounts, addresses, file_name, uploaded_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING id, basic_details, report_summary, credit_accounts, addresses, file_name, uploaded_at, created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, q,
		rep.ID,
		basic,
		summary,
		accounts,
		addresses,
		rep.FileName,
		rep.UploadedAt,
	)
	return scanReport(row)
}

// FindByID fetches a single report by its ID.
func (r *ReportPostgres) FindByID(ctx context.Context, id string) (*model.CreditReport, error) {
	const q = `
		SELECT id, basic_details, report_summary, credit_accounts, addresses, file_name, uploaded_at, created_at, updated_at
		FROM reports
		WHERE id = $1
	`
	return scanReport(r.db.QueryRowContext(ctx, q, id))
}

// List returns the summary projection of every report, newest first. The name
// and score come out of the basic_details document so the full tradeline
// payload never leaves the database for list calls.
func (r *ReportPostgres) List(ctx context.Context) ([]model.ReportListItem, error) {
	const q = `
		SELECT id, basic_details->>'name', basic_details->>'creditScore', file_name, uploaded_at
		FROM reports
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ReportListItem, 0)
	for rows.Next() {
		var it model.ReportListItem
		if err := rows.Scan(&it.ID, &it.Name, &it.CreditScore, &it.FileName, &it.UploadedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a report by ID. Zero rows affected maps to sql.ErrNoRows so
// callers can distinguish a missing report from a successful delete.
func (r *ReportPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM reports WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func marshalDocs(rep *model.CreditReport) (basic, summary, accounts, addresses []byte, err error) {
	if basic, err = json.Marshal(rep.BasicDetails); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal basic details: %w", err)
	}
	if summary, err = json.Marshal(rep.ReportSummary); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal report summary: %w", err)
	}
	if accounts, err = json.Marshal(rep.CreditAccounts); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal credit accounts: %w", err)
	}
	if addresses, err = json.Marshal(rep.Addresses); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal addresses: %w", err)
	}
	return basic, summary, accounts, addresses, nil
}

func scanReport(row *sql.Row) (*model.CreditReport, error) {
	var (
		rep       model.CreditReport
		basic     []byte
		summary   []byte
		accounts  []byte
		addresses []byte
	)
	if err := row.Scan(
		&rep.ID,
		&basic,
		&summary,
		&accounts,
		&addresses,
		&rep.FileName,
		&rep.UploadedAt,
		&rep.CreatedAt,
		&rep.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(basic, &rep.BasicDetails); err != nil {
		return nil, fmt.Errorf("unmarshal basic details: %w", err)
	}
	if err := json.Unmarshal(summary, &rep.ReportSummary); err != nil {
		return nil, fmt.Errorf("unmarshal report summary: %w", err)
	}
	if err := json.Unmarshal(accounts, &rep.CreditAccounts); err != nil {
		return nil, fmt.Errorf("unmarshal credit accounts: %w", err)
	}
	if err := json.Unmarshal(addresses, &rep.Addresses); err != nil {
		return nil, fmt.Errorf("unmarshal addresses: %w", err)
	}
	return &rep, nil
}
