package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/nconklindev/workerimport/internal/decoder"
	"github.com/nconklindev/workerimport/internal/importer"
	"github.com/nconklindev/workerimport/internal/template"
	"github.com/nconklindev/workerimport/internal/types"
)

const (
	formField = "file"
	mimeXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

type previewResponse struct {
	FileName       string            `json:"file_name"`
	Summary        types.Summary     `json:"summary"`
	IgnoredColumns []string          `json:"ignored_columns,omitempty"`
	Rows           []types.ParsedRow `json:"rows"`
}

type importResponse struct {
	FileName string             `json:"file_name"`
	Summary  types.Summary      `json:"summary"`
	Result   types.ImportResult `json:"result"`
}

type ImportHandler struct {
	importer    *importer.Importer
	target      importer.Target
	previewRows int
	logger      zerolog.Logger
}

// NewImportHandler serves uploads against im. target is used unless the
// request's token names another organization or site.
func NewImportHandler(im *importer.Importer, target importer.Target, previewRows int, logger zerolog.Logger) *ImportHandler {
	if previewRows < 1 {
		previewRows = 10
	}
	return &ImportHandler{importer: im, target: target, previewRows: previewRows, logger: logger}
}

func (h *ImportHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, apiResponse{Data: map[string]string{"status": "ok"}})
}

// Template downloads the roster template; ?format=xlsx selects the workbook.
func (h *ImportHandler) Template(c echo.Context) error {
	if c.QueryParam("format") == "xlsx" {
		var buf bytes.Buffer
		if err := template.WriteXLSX(&buf); err != nil {
			return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
				Code:    "internal_error",
				Message: "failed to build template",
			}})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, attachment(template.XLSXFileName))
		return c.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, attachment(template.CSVFileName))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", template.CSV())
}

// Preview parses and validates an upload without creating anything.
func (h *ImportHandler) Preview(c echo.Context) error {
	session, err := h.load(c)
	if session == nil {
		return err
	}

	limit := h.previewRows
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "bad_request",
				Message: "limit must be a positive integer",
			}})
		}
		limit = n
	}

	return c.JSON(http.StatusOK, apiResponse{Data: previewResponse{
		FileName:       session.FileName,
		Summary:        session.Summary(),
		IgnoredColumns: session.IgnoredHeaders(),
		Rows:           session.Preview(limit),
	}})
}

// Import parses an upload and commits its valid rows.
func (h *ImportHandler) Import(c echo.Context) error {
	session, err := h.load(c)
	if session == nil {
		return err
	}

	result, err := session.Commit(c.Request().Context(), h.importer, h.targetFor(c), nil)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrNoOrganization):
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "missing_organization",
				Message: "no organization configured for this import",
			}})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			h.logger.Warn().Err(err).Int("success", result.Success).Int("skipped", result.Skipped).Msg("import interrupted")
			return c.JSON(http.StatusServiceUnavailable, apiResponse{
				Data: importResponse{FileName: session.FileName, Summary: session.Summary(), Result: result},
				Error: &errorBody{
					Code:    "import_interrupted",
					Message: "import was interrupted before every row was attempted",
				},
			})
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to import workers",
		}})
	}

	return c.JSON(http.StatusOK, apiResponse{Data: importResponse{
		FileName: session.FileName,
		Summary:  session.Summary(),
		Result:   result,
	}})
}

// load reads the multipart upload into a session. A nil session means the
// error response was already written.
func (h *ImportHandler) load(c echo.Context) (*importer.Session, error) {
	fh, err := c.FormFile(formField)
	if err != nil {
		return nil, h.fail(c, http.StatusBadRequest, "bad_request", "multipart field \"file\" is required")
	}
	if !decoder.Supported(fh.Filename) {
		return nil, h.fail(c, http.StatusUnsupportedMediaType, "unsupported_format", "file must be .csv, .xlsx or .xls")
	}

	src, err := fh.Open()
	if err != nil {
		return nil, h.fail(c, http.StatusBadRequest, "bad_request", "could not read upload")
	}
	defer src.Close()

	session, err := importer.LoadReader(fh.Filename, src)
	if err != nil {
		switch {
		case errors.Is(err, decoder.ErrUnsupportedFormat):
			return nil, h.fail(c, http.StatusUnsupportedMediaType, "unsupported_format", err.Error())
		case errors.Is(err, decoder.ErrEmptyFile):
			return nil, h.fail(c, http.StatusUnprocessableEntity, "empty_file", err.Error())
		case errors.Is(err, decoder.ErrSpreadsheetRead):
			return nil, h.fail(c, http.StatusUnprocessableEntity, "unreadable_file", decoder.ErrSpreadsheetRead.Error())
		}
		h.logger.Error().Err(err).Str("file", fh.Filename).Msg("decode upload failed")
		return nil, h.fail(c, http.StatusInternalServerError, "internal_error", "failed to read file")
	}
	return session, nil
}

func (h *ImportHandler) fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, apiResponse{Error: &errorBody{Code: code, Message: message}})
}

func (h *ImportHandler) targetFor(c echo.Context) importer.Target {
	target := h.target
	if org, ok := c.Get(ctxOrganization).(uuid.UUID); ok {
		target.OrganizationID = org
		// A token for another organization never inherits the default site.
		target.SiteID = nil
	}
	if site, ok := c.Get(ctxSite).(uuid.UUID); ok {
		target.SiteID = &site
	}
	return target
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
