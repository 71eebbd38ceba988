package server

import (
	"github.com/OFFIS-RIT/kgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/kgraph/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Graph routes
	apiRoutes.POST("/graph/files", routes.PostGraphFilesHandler)
	apiRoutes.GET("/graph/stats", routes.GetGraphStatsHandler)
	apiRoutes.GET("/graph/edges", routes.GetGraphEdgesHandler)
	apiRoutes.DELETE("/graph", routes.DeleteGraphHandler, middleware.RequireAdmin)
}
