package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/fits"
	"github.com/tphakala/asteroid-catalog/internal/logger"
	"github.com/tphakala/asteroid-catalog/internal/observability/metrics"
	"github.com/tphakala/asteroid-catalog/internal/securefs"
	"github.com/tphakala/asteroid-catalog/internal/votable"
)

// Content types of the file endpoints.
const (
	ContentTypeVOTable = "application/xml"
	ContentTypeFITS    = "application/fits"
)

// ExportVOTable handles GET /export_votable/:id.
func (c *Controller) ExportVOTable(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return c.HandleError(ctx, err, "Invalid observation id", http.StatusBadRequest)
	}

	doc, err := c.Exporter.Export(ctx.Request().Context(), uint(id))
	if err != nil {
		c.transfers.RecordTransfer(metrics.OpExport, metrics.StatusError)
		switch {
		case errors.IsNotFound(err):
			return c.HandleError(ctx, err, "Observation or its file not found", http.StatusNotFound)
		case fits.IsFormatError(err):
			return c.HandleError(ctx, err, "Observation file is not a readable FITS file", http.StatusInternalServerError)
		default:
			return c.HandleError(ctx, err, "Failed to export observation", http.StatusInternalServerError)
		}
	}

	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		c.transfers.RecordTransfer(metrics.OpExport, metrics.StatusError)
		return c.HandleError(ctx, err, "Failed to encode document", http.StatusInternalServerError)
	}

	c.transfers.RecordTransfer(metrics.OpExport, metrics.StatusSuccess)
	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", votable.Filename(uint(id))))
	return ctx.Blob(http.StatusOK, ContentTypeVOTable, buf.Bytes())
}

// DownloadFITS handles GET /download/fits/:filename. Names that could
// leave the processed directory are answered with 404 without touching the
// filesystem.
func (c *Controller) DownloadFITS(ctx echo.Context) error {
	raw := ctx.Param("filename")
	name, err := url.PathUnescape(raw)
	if err != nil {
		name = raw
	}

	if err := securefs.ValidateFilename(name); err != nil {
		c.transfers.RecordTransfer(metrics.OpDownload, "rejected")
		c.logger.Warn("rejected download path",
			logger.String("filename", name),
			logger.String("ip", ctx.RealIP()),
			logger.Error(err))
		return c.HandleError(ctx, nil, "File not found", http.StatusNotFound)
	}

	if err := c.Files.ServeRelativeFile(ctx, name, ContentTypeFITS); err != nil {
		c.transfers.RecordTransfer(metrics.OpDownload, metrics.StatusError)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return c.HandleError(ctx, he.Internal, fmt.Sprint(he.Message), he.Code)
		}
		return c.HandleError(ctx, err, "Failed to serve file", http.StatusInternalServerError)
	}

	c.transfers.RecordTransfer(metrics.OpDownload, metrics.StatusSuccess)
	return nil
}
