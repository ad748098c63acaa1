package securefs

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/logger"
)

// GetLogger returns the securefs package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("securefs")
}

// SecureFS restricts file access to a base directory using os.Root, so that
// neither "../" components nor symlinks can reach files outside it.
type SecureFS struct {
	root *os.Root
}

// New opens baseDir as a sandbox, creating it if needed.
func New(baseDir string) (*SecureFS, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0o750); err != nil {
		return nil, errors.New(err).
			Component("securefs").
			Category(errors.CategoryFileIO).
			FileContext(absPath).
			Build()
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem sandbox: %w", err)
	}

	return &SecureFS{root: root}, nil
}

// Close releases the sandbox root.
func (sfs *SecureFS) Close() error {
	if sfs.root != nil {
		return sfs.root.Close()
	}
	return nil
}

// ValidateFilename accepts a bare file name only: no separators of either
// platform, no ".." and nothing that filepath.IsLocal rejects.
func ValidateFilename(name string) error {
	switch {
	case name == "":
		return validationError(ErrInvalidPath, name, "empty file name")
	case strings.Contains(name, ".."):
		return validationError(ErrPathTraversal, name, "parent directory reference")
	case strings.ContainsAny(name, `/\`):
		return validationError(ErrPathTraversal, name, "path separator in file name")
	case !filepath.IsLocal(name):
		return validationError(ErrInvalidPath, name, "not a local file name")
	}
	return nil
}

// ValidateRelativePath cleans relPath and rejects absolute paths and paths
// that climb above the base directory.
func (sfs *SecureFS) ValidateRelativePath(relPath string) (string, error) {
	cleaned := filepath.Clean(relPath)
	if filepath.IsAbs(cleaned) {
		return "", validationError(ErrInvalidPath, relPath, "path must be relative")
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", validationError(ErrPathTraversal, relPath, "path leaves base directory")
	}
	return strings.TrimPrefix(cleaned, string(filepath.Separator)), nil
}

// Open opens relPath for reading inside the sandbox.
func (sfs *SecureFS) Open(relPath string) (*os.File, error) {
	validated, err := sfs.ValidateRelativePath(relPath)
	if err != nil {
		return nil, err
	}
	return sfs.root.Open(validated)
}

// mapOpenErrorToHTTP converts file open errors to HTTP errors. Rejected
// paths are reported as missing files.
func mapOpenErrorToHTTP(err error, effectivePath string) *echo.HTTPError {
	switch {
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, ErrPathTraversal),
		errors.Is(err, ErrInvalidPath):
		return echo.NewHTTPError(http.StatusNotFound, "File not found").SetInternal(err)
	case errors.Is(err, fs.ErrPermission):
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	case errors.Is(err, ErrNotRegularFile):
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	default:
		GetLogger().Error("Unhandled error serving file",
			logger.String("path", effectivePath),
			logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Error serving file").SetInternal(err)
	}
}

// ServeRelativeFile streams relPath as an attachment with the given content
// type. Range and conditional requests are handled by http.ServeContent.
func (sfs *SecureFS) ServeRelativeFile(c echo.Context, relPath, contentType string) error {
	f, err := sfs.Open(relPath)
	if err != nil {
		if errors.Is(err, ErrPathTraversal) || errors.Is(err, ErrInvalidPath) {
			GetLogger().Warn("Rejected file path",
				logger.String("path", relPath),
				logger.Error(err))
		}
		return mapOpenErrorToHTTP(err, relPath)
	}
	defer func() {
		if err := f.Close(); err != nil {
			GetLogger().Warn("Failed to close file", logger.Error(err))
		}
	}()

	stat, err := f.Stat()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get file info").SetInternal(err)
	}
	if !stat.Mode().IsRegular() {
		return mapOpenErrorToHTTP(ErrNotRegularFile, relPath)
	}

	name := filepath.Base(relPath)
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(c.Response(), c.Request(), name, stat.ModTime(), f)
	return nil
}
