package server

import (
	"github.com/labstack/echo/v4"

	"github.com/hopgraph/hopgraph/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Dataset routes
	apiRoutes.POST("/datasets/:dataset/build", routes.BuildDatasetHandler)
	apiRoutes.POST("/datasets/:dataset/query", routes.QueryDatasetHandler)
	apiRoutes.POST("/datasets/:dataset/augment", routes.AugmentDatasetHandler)
	apiRoutes.GET("/datasets/:dataset/inspect", routes.InspectDatasetHandler)
	apiRoutes.DELETE("/datasets/:dataset", routes.DeleteDatasetHandler)
}
