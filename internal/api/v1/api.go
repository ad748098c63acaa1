// Package api implements the catalog HTTP handlers: VOTable export, FITS
// download and the JSON catalog.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tphakala/asteroid-catalog/internal/datastore"
	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/logger"
	"github.com/tphakala/asteroid-catalog/internal/votable"
)

// CatalogStore is the read side of the datastore used by the handlers.
type CatalogStore interface {
	GetAsteroid(ctx context.Context, name string) (*datastore.Asteroid, error)
	ListObservations(ctx context.Context, asteroid string) ([]datastore.Observation, error)
	SearchAsteroids(ctx context.Context, q datastore.CatalogQuery) ([]datastore.Asteroid, error)
	TargetClasses(ctx context.Context) ([]string, error)
}

// Exporter renders a stored observation as a VOTable document.
type Exporter interface {
	Export(ctx context.Context, id uint) (*votable.Document, error)
}

// FileServer streams files of the processed directory.
type FileServer interface {
	ServeRelativeFile(c echo.Context, relPath, contentType string) error
}

// TransferRecorder counts exports and downloads by outcome.
type TransferRecorder interface {
	RecordTransfer(kind, status string)
}

type nopTransfers struct{}

func (nopTransfers) RecordTransfer(string, string) {}

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       CatalogStore
	Exporter Exporter
	Files    FileServer

	publicURL string
	logger    logger.Logger
	transfers TransferRecorder
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithLogger replaces the module logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTransferRecorder records export and download outcomes.
func WithTransferRecorder(r TransferRecorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.transfers = r
		}
	}
}

// WithPublicURL sets the base of the links returned in catalog responses.
func WithPublicURL(u string) Option {
	return func(c *Controller) { c.publicURL = strings.TrimRight(u, "/") }
}

// New creates the controller and registers its routes on e.
func New(e *echo.Echo, ds CatalogStore, exporter Exporter, files FileServer, opts ...Option) (*Controller, error) {
	if e == nil || ds == nil || exporter == nil || files == nil {
		return nil, errors.Newf("api controller requires echo, datastore, exporter and file server").
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}

	c := &Controller{
		Echo:      e,
		DS:        ds,
		Exporter:  exporter,
		Files:     files,
		logger:    logger.Global().Module("api"),
		transfers: nopTransfers{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.initRoutes()
	return c, nil
}

func (c *Controller) initRoutes() {
	c.Echo.GET("/export_votable/:id", c.ExportVOTable)
	c.Echo.GET("/download/fits/:filename", c.DownloadFITS)

	c.Group = c.Echo.Group("/api/v1")
	c.Group.GET("/asteroids", c.ListAsteroids)
	c.Group.GET("/asteroids/:name", c.GetAsteroid)
	c.Group.GET("/classes", c.ListClasses)
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString(),
	}
}

// HandleError logs err with a correlation id and writes the JSON reply.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if code >= http.StatusInternalServerError {
		c.logger.Error("API error", fields...)
	} else {
		c.logger.Warn("API error", fields...)
	}

	return ctx.JSON(code, resp)
}

// statusFor maps catalog errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
