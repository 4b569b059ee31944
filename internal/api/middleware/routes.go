package middleware

import "github.com/labstack/echo/v4"

// routeKind classifies a request for instrumentation.
type routeKind int

const (
	routeAPI routeKind = iota
	routeProbe
	routeScrape
)

// operationalRoutes are hit by orchestrators and scrapers on a fixed cadence.
// They bypass request metrics and tracing, and their successes are logged
// only once.
var operationalRoutes = map[string]routeKind{
	"/healthz": routeProbe,
	"/readyz":  routeProbe,
	"/metrics": routeScrape,
}

// routeOf returns the registered route for the request, falling back to the
// raw URL path when the router did not match one.
func routeOf(c echo.Context) (string, routeKind) {
	path := c.Path()
	if path == "" {
		path = c.Request().URL.Path
	}
	return path, operationalRoutes[path]
}

func (k routeKind) operational() bool {
	return k != routeAPI
}
