package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/kgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/kgraph/pkg/graph"

	"github.com/labstack/echo/v4"
)

// GetGraphStatsHandler returns the aggregates of the stored graph.
func GetGraphStatsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	stats := app.Graph.Statistics(c.Request().Context(), app.Store)
	return c.JSON(http.StatusOK, stats)
}

// GetGraphEdgesHandler returns a sample of stored relationships as JSON or
// Graphviz DOT.
func GetGraphEdgesHandler(c echo.Context) error {
	type getGraphEdgesParams struct {
		Limit  int    `query:"limit" validate:"min=-1,max=10000"`
		Format string `query:"format" validate:"omitempty,oneof=json dot"`
	}

	params := &getGraphEdgesParams{Limit: 100}
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	edges := app.Graph.SampleEdges(c.Request().Context(), app.Store, params.Limit)
	if params.Format == "dot" {
		return c.Blob(http.StatusOK, "text/vnd.graphviz", []byte(graph.RenderDOT(edges)))
	}
	return c.JSON(http.StatusOK, edges)
}

// DeleteGraphHandler empties the store.
func DeleteGraphHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	if err := app.Graph.Reset(c.Request().Context(), app.Store); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to reset graph"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Graph reset"})
}
