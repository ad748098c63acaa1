package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/asteroid-catalog/internal/datastore"
)

// Listing limits for /api/v1/asteroids.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// AsteroidList is the body of GET /api/v1/asteroids.
type AsteroidList struct {
	Asteroids []datastore.Asteroid `json:"asteroids"`
	Count     int                  `json:"count"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
}

// ObservationView adds the export and download links to an observation.
type ObservationView struct {
	datastore.Observation
	ExportURL   string `json:"exportUrl"`
	DownloadURL string `json:"downloadUrl"`
}

// AsteroidDetail is the body of GET /api/v1/asteroids/:name.
type AsteroidDetail struct {
	*datastore.Asteroid
	Observations []ObservationView `json:"observations"`
}

// ListAsteroids handles GET /api/v1/asteroids?q=&class=&sort=&limit=&offset=.
func (c *Controller) ListAsteroids(ctx echo.Context) error {
	limit, err := intParam(ctx, "limit", DefaultListLimit)
	if err != nil || limit < 1 {
		return c.HandleError(ctx, err, "limit must be a positive integer", http.StatusBadRequest)
	}
	limit = min(limit, MaxListLimit)
	offset, err := intParam(ctx, "offset", 0)
	if err != nil || offset < 0 {
		return c.HandleError(ctx, err, "offset must be a non-negative integer", http.StatusBadRequest)
	}

	q := datastore.CatalogQuery{
		Query:         ctx.QueryParam("q"),
		TargetClass:   ctx.QueryParam("class"),
		SortDiscovery: ctx.QueryParam("sort"),
		Limit:         limit,
		Offset:        offset,
	}
	asteroids, err := c.DS.SearchAsteroids(ctx.Request().Context(), q)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to search asteroids", statusFor(err))
	}
	if asteroids == nil {
		asteroids = []datastore.Asteroid{}
	}

	return ctx.JSON(http.StatusOK, AsteroidList{
		Asteroids: asteroids,
		Count:     len(asteroids),
		Limit:     limit,
		Offset:    offset,
	})
}

// GetAsteroid handles GET /api/v1/asteroids/:name; name may be the
// provisional or the official designation.
func (c *Controller) GetAsteroid(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	asteroid, err := c.DS.GetAsteroid(reqCtx, ctx.Param("name"))
	if err != nil {
		return c.HandleError(ctx, err, "Asteroid not found", statusFor(err))
	}

	observations, err := c.DS.ListObservations(reqCtx, asteroid.ProvisionalName)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list observations", statusFor(err))
	}

	views := make([]ObservationView, 0, len(observations))
	for i := range observations {
		o := observations[i]
		views = append(views, ObservationView{
			Observation: o,
			ExportURL:   c.publicURL + "/export_votable/" + strconv.FormatUint(uint64(o.ID), 10),
			DownloadURL: c.publicURL + "/download/fits/" + url.PathEscape(o.Filename),
		})
	}

	return ctx.JSON(http.StatusOK, AsteroidDetail{Asteroid: asteroid, Observations: views})
}

// ListClasses handles GET /api/v1/classes.
func (c *Controller) ListClasses(ctx echo.Context) error {
	classes, err := c.DS.TargetClasses(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list classes", statusFor(err))
	}
	if classes == nil {
		classes = []string{}
	}
	return ctx.JSON(http.StatusOK, map[string][]string{"classes": classes})
}

func intParam(ctx echo.Context, name string, def int) (int, error) {
	v := ctx.QueryParam(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
