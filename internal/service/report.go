package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"creditapi/internal/model"
	"creditapi/internal/parser"
	"creditapi/internal/repository"
	"creditapi/internal/storage"
)

var (
	ErrIDRequired      = errors.New("report id is required")
	ErrNotFound        = errors.New("credit report not found")
	ErrReaderNil       = errors.New("upload reader is nil")
	ErrFileUnavailable = errors.New("report file not available")
)

// ReportService defines the use cases for credit reports.
type ReportService interface {
	// Ingest stages the uploaded bytes, runs extraction, optionally archives
	// the raw document, and persists the resulting record. The staging file is
	// removed on every exit path.
	Ingest(ctx context.Context, r io.Reader, originalFilename string) (*model.CreditReport, error)

	// List returns every stored report summary, newest-uploaded-first.
	List(ctx context.Context) ([]model.ReportListItem, error)

	// Get returns a full report by its ID.
	Get(ctx context.Context, id string) (*model.CreditReport, error)

	// Delete removes a report by ID. Deleting an unknown ID yields ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Document returns the archived raw XML for a report as a stream. Archive
	// misses, including a disabled archive, wrap ErrFileUnavailable.
	Document(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error)
}

type reportService struct {
	repo       repository.ReportRepository
	archive    storage.Storage
	stagingDir string
}

// NewReportService constructs a new ReportService. stagingDir is where upload
// staging files live; empty means the OS temp directory.
func NewReportService(repo repository.ReportRepository, archive storage.Storage, stagingDir string) ReportService {
	return &reportService{repo: repo, archive: archive, stagingDir: stagingDir}
}

func (s *reportService) Ingest(ctx context.Context, r io.Reader, originalFilename string) (*model.CreditReport, error) {
	if r == nil {
		return nil, ErrReaderNil
	}

	staged, err := stageUpload(s.stagingDir, r)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	defer staged.Remove()

	raw, err := os.ReadFile(staged.Path())
	if err != nil {
		return nil, fmt.Errorf("read staging file: %w", err)
	}

	rep, err := parser.Extract(raw)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate report id: %w", err)
	}
	rep.ID = id.String()
	rep.FileName = originalFilename
	rep.UploadedAt = time.Now().UTC()

	// Keep a copy of the raw document in object storage when an archive is
	// configured, before the record becomes visible.
	key := archiveKey(rep.ID)
	if _, err := s.archive.Put(ctx, key, raw, "text/xml"); err != nil {
		return nil, fmt.Errorf("archive raw document: %w", err)
	}

	stored, err := s.repo.Create(ctx, rep)
	if err != nil {
		// Rollback: drop the archived copy so failed uploads leave nothing behind.
		if delErr := s.archive.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *reportService) List(ctx context.Context) ([]model.ReportListItem, error) {
	return s.repo.List(ctx)
}

func (s *reportService) Get(ctx context.Context, id string) (*model.CreditReport, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	rep, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rep, nil
}

func (s *reportService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *reportService) Document(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error) {
	if id == "" {
		return nil, storage.ObjectInfo{}, ErrIDRequired
	}
	// The report row is the source of truth; a missing report is 404 even if
	// an orphaned archive object exists.
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ObjectInfo{}, ErrNotFound
		}
		return nil, storage.ObjectInfo{}, err
	}
	rc, info, err := s.archive.Get(ctx, archiveKey(id))
	if err != nil {
		return nil, storage.ObjectInfo{}, fmt.Errorf("%w: %v", ErrFileUnavailable, err)
	}
	return rc, info, nil
}

func archiveKey(id string) string { return "reports/" + id + ".xml" }
