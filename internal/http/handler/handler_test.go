package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"creditapi/internal/model"
	"creditapi/internal/parser"
	"creditapi/internal/service"
	serviceMocks "creditapi/internal/service/mocks"
	"creditapi/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Count    int             `json:"count"`
	ReportID string          `json:"reportId"`
	Data     json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{
		BodyLimit:         MaxRequestBodyBytes,
		StreamRequestBody: true,
		ErrorHandler:      ErrorHandler(),
	})
}

func multipartFile(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := newApp()
	app.Get("/api/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "OK", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.False(t, decodeEnvelope(t, resp).Success)
	})
}

func TestUploadReport(t *testing.T) {
	mockSvc := new(serviceMocks.MockReportService)
	app := newApp()
	app.Post("/api/upload", UploadReport(mockSvc))

	t.Run("success", func(t *testing.T) {
		name := "API Test User"
		expected := &model.CreditReport{
			ID:           uuid.NewString(),
			BasicDetails: model.BasicDetails{Name: &name},
			FileName:     "report.xml",
		}
		mockSvc.On("Ingest", mock.Anything, mock.Anything, "report.xml").Return(expected, nil).Once()

		body, ct := multipartFile(t, "xmlFile", "report.xml", []byte("<CreditReport/>"))
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.True(t, env.Success)
		assert.Equal(t, expected.ID, env.ReportID)
		assert.Equal(t, "File uploaded and processed successfully", env.Message)

		var rep model.CreditReport
		require.NoError(t, json.Unmarshal(env.Data, &rep))
		assert.Equal(t, expected.ID, rep.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing file", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/api/upload", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.False(t, decodeEnvelope(t, resp).Success)
	})

	t.Run("non-xml extension rejected, nothing ingested", func(t *testing.T) {
		body, ct := multipartFile(t, "xmlFile", "report.txt", []byte("not xml"))
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.False(t, decodeEnvelope(t, resp).Success)
		mockSvc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, "report.txt")
	})

	t.Run("oversized upload rejected", func(t *testing.T) {
		big := bytes.Repeat([]byte("x"), MaxUploadBytes+1)
		body, ct := multipartFile(t, "xmlFile", "huge.xml", big)
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req, -1)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		mockSvc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, "huge.xml")
	})

	t.Run("upload far beyond the ceiling still gets the 400 envelope", func(t *testing.T) {
		giant := bytes.Repeat([]byte("x"), MaxRequestBodyBytes+(1<<20))
		body, ct := multipartFile(t, "xmlFile", "giant.xml", giant)
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(req, -1)

		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.False(t, env.Success)
		assert.Contains(t, env.Message, "10 MiB")
		mockSvc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, "giant.xml")
	})

	t.Run("parse failure surfaces 500 with parser message", func(t *testing.T) {
		mockSvc.On("Ingest", mock.Anything, mock.Anything, "bad.xml").
			Return(nil, &parser.ParseError{Msg: "malformed markup"}).Once()

		body, ct := multipartFile(t, "xmlFile", "bad.xml", []byte("<broken"))
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.False(t, env.Success)
		assert.Contains(t, env.Message, "malformed markup")
		mockSvc.AssertExpectations(t)
	})

	t.Run("store failure surfaces 500", func(t *testing.T) {
		mockSvc.On("Ingest", mock.Anything, mock.Anything, "report.xml").
			Return(nil, errors.New("db save failed")).Once()

		body, ct := multipartFile(t, "xmlFile", "report.xml", []byte("<CreditReport/>"))
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestListReports(t *testing.T) {
	mockSvc := new(serviceMocks.MockReportService)
	app := newApp()
	app.Get("/api/reports", ListReports(mockSvc))

	t.Run("success newest first", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return([]model.ReportListItem{
			{ID: "r2", FileName: "b.xml"},
			{ID: "r1", FileName: "a.xml"},
		}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/reports", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		env := decodeEnvelope(t, resp)
		assert.True(t, env.Success)
		assert.Equal(t, 2, env.Count)

		var items []model.ReportListItem
		require.NoError(t, json.Unmarshal(env.Data, &items))
		assert.Equal(t, "r2", items[0].ID)
		assert.Equal(t, "r1", items[1].ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return(nil, errors.New("db down")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/reports", nil))
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetReport(t *testing.T) {
	mockSvc := new(serviceMocks.MockReportService)
	app := newApp()
	app.Get("/api/reports/:id", GetReport(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, id).Return(&model.CreditReport{ID: id}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		env := decodeEnvelope(t, resp)
		assert.True(t, env.Success)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.False(t, decodeEnvelope(t, resp).Success)
	})

	t.Run("malformed id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/reports/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		mockSvc.AssertNotCalled(t, "Get", mock.Anything, "not-a-uuid")
	})
}

func TestDownloadReport(t *testing.T) {
	mockSvc := new(serviceMocks.MockReportService)
	app := newApp()
	app.Get("/api/reports/:id/file", DownloadReport(mockSvc))

	t.Run("streams the archived document", func(t *testing.T) {
		id := uuid.NewString()
		raw := "<CreditReport><Applicant/></CreditReport>"
		mockSvc.On("Document", mock.Anything, id).Return(
			io.NopCloser(strings.NewReader(raw)),
			storage.ObjectInfo{Size: int64(len(raw)), ContentType: "text/xml"},
			nil,
		).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/reports/"+id+"/file", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/xml", resp.Header.Get(fiber.HeaderContentType))
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), id+".xml")

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, raw, string(body))
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown report", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Document", mock.Anything, id).
			Return(nil, storage.ObjectInfo{}, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/reports/"+id+"/file", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.False(t, decodeEnvelope(t, resp).Success)
	})

	t.Run("archive unavailable", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Document", mock.Anything, id).
			Return(nil, storage.ObjectInfo{}, fmt.Errorf("%w: archive disabled", service.ErrFileUnavailable)).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/reports/"+id+"/file", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Report file not available", decodeEnvelope(t, resp).Message)
	})

	t.Run("malformed id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/reports/nope/file", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		mockSvc.AssertNotCalled(t, "Document", mock.Anything, "nope")
	})
}

func TestDeleteReport(t *testing.T) {
	mockSvc := new(serviceMocks.MockReportService)
	app := newApp()
	app.Delete("/api/reports/:id", DeleteReport(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, id).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/api/reports/"+id, nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		env := decodeEnvelope(t, resp)
		assert.True(t, env.Success)
		assert.Equal(t, "Credit report deleted successfully", env.Message)
	})

	t.Run("second delete is not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, id).Return(service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/api/reports/"+id, nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/api/reports/zzz", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRouting(t *testing.T) {
	app := newApp()
	mockSvc := new(serviceMocks.MockReportService)
	RegisterRoutes(app, nil, mockSvc)

	t.Run("unknown route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.False(t, decodeEnvelope(t, resp).Success)
	})

	t.Run("method not allowed on reports", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPut, "/api/reports", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}
