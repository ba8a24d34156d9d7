package handler

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"creditapi/internal/parser"
	"creditapi/internal/service"
)

const (
	// MaxUploadBytes is the upload size ceiling (10 MiB).
	MaxUploadBytes = 10 << 20

	// MaxRequestBodyBytes is MaxUploadBytes plus headroom for multipart
	// framing. The Fiber BodyLimit is set to this with request streaming
	// enabled, so oversized uploads still reach the rejection path here
	// instead of dying inside fasthttp.
	MaxRequestBodyBytes = MaxUploadBytes + 64<<10
)

// HealthCheck reports liveness and DB connectivity.
// @Summary Health check
// @Success 200 {object} map[string]any
// @Router /api/health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return respondError(c, fiber.StatusServiceUnavailable, "dependency unavailable")
		}
		return c.JSON(fiber.Map{"status": "OK", "message": "Credit report API is running"})
	}
}

// UploadReport accepts a multipart XML upload (field xmlFile), runs extraction
// and persists the resulting report.
// @Summary Upload and process a credit report XML file
// @Accept multipart/form-data
// @Param xmlFile formData file true "credit bureau XML report"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/upload [post]
func UploadReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Declared body length catches uploads far over the ceiling before any
		// multipart parsing; the fh.Size check below owns the exact boundary.
		if c.Request().Header.ContentLength() > MaxRequestBodyBytes {
			return respondError(c, fiber.StatusBadRequest, "File exceeds the 10 MiB size limit")
		}

		fh, err := c.FormFile("xmlFile")
		if err != nil {
			return respondError(c, fiber.StatusBadRequest, "No file uploaded or invalid file type")
		}
		if !isXMLUpload(fh.Filename, fh.Header.Get("Content-Type")) {
			return respondError(c, fiber.StatusBadRequest, "Only XML files are allowed")
		}
		if fh.Size > MaxUploadBytes {
			return respondError(c, fiber.StatusBadRequest, "File exceeds the 10 MiB size limit")
		}

		f, err := fh.Open()
		if err != nil {
			return respondError(c, fiber.StatusBadRequest, "Cannot open uploaded file")
		}
		defer f.Close()

		rep, err := svc.Ingest(c.UserContext(), f, fh.Filename)
		if err != nil {
			var pe *parser.ParseError
			if errors.As(err, &pe) {
				return respondError(c, fiber.StatusInternalServerError, pe.Error())
			}
			return respondError(c, fiber.StatusInternalServerError, "Failed to process XML file")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":  true,
			"message":  "File uploaded and processed successfully",
			"reportId": rep.ID,
			"data":     rep,
		})
	}
}

// ListReports returns every stored report summary, newest first.
// @Summary List credit reports
// @Success 200 {object} map[string]any
// @Router /api/reports [get]
func ListReports(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext())
		if err != nil {
			return respondError(c, fiber.StatusInternalServerError, "Failed to fetch reports")
		}
		return c.JSON(fiber.Map{
			"success": true,
			"count":   len(items),
			"data":    items,
		})
	}
}

// GetReport returns one full report by ID.
// @Summary Get a credit report
// @Param id path string true "report id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/reports/{id} [get]
func GetReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return respondError(c, fiber.StatusBadRequest, "Invalid report id")
		}
		rep, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return respondError(c, fiber.StatusNotFound, "Credit report not found")
			}
			return respondError(c, fiber.StatusInternalServerError, "Failed to fetch report")
		}
		return c.JSON(fiber.Map{"success": true, "data": rep})
	}
}

// DeleteReport removes one report by ID. A second delete of the same ID is a
// 404, not an error state.
// @Summary Delete a credit report
// @Param id path string true "report id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/reports/{id} [delete]
func DeleteReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return respondError(c, fiber.StatusBadRequest, "Invalid report id")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return respondError(c, fiber.StatusNotFound, "Credit report not found")
			}
			return respondError(c, fiber.StatusInternalServerError, "Failed to delete report")
		}
		return c.JSON(fiber.Map{"success": true, "message": "Credit report deleted successfully"})
	}
}

// DownloadReport streams the archived raw XML for a report. The file is only
// available when an archive backend is configured.
// @Summary Download the original report XML
// @Param id path string true "report id"
// @Success 200 {file} file
// @Failure 404 {object} map[string]any
// @Router /api/reports/{id}/file [get]
func DownloadReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return respondError(c, fiber.StatusBadRequest, "Invalid report id")
		}
		rc, info, err := svc.Document(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return respondError(c, fiber.StatusNotFound, "Credit report not found")
			}
			if errors.Is(err, service.ErrFileUnavailable) {
				return respondError(c, fiber.StatusNotFound, "Report file not available")
			}
			return respondError(c, fiber.StatusInternalServerError, "Failed to fetch report file")
		}
		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+id+`.xml"`)
		if info.Size > 0 {
			return c.SendStream(rc, int(info.Size))
		}
		return c.SendStream(rc)
	}
}

// isXMLUpload accepts a file when either the extension or the declared media
// type identifies XML. Both checks are deliberately loose; the parser is the
// real gatekeeper.
func isXMLUpload(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".xml") {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/xml") || strings.Contains(ct, "application/xml")
}
