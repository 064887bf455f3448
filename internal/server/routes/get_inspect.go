package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hopgraph/hopgraph/internal/server/middleware"
	"github.com/hopgraph/hopgraph/pkg/inspect"
)

// InspectDatasetHandler returns the quality report for a dataset
func InspectDatasetHandler(c echo.Context) error {
	type inspectResponse struct {
		Message string          `json:"message"`
		Report  *inspect.Report `json:"report,omitempty"`
	}

	dataset := c.Param("dataset")
	if dataset == "" {
		return c.JSON(http.StatusBadRequest, inspectResponse{
			Message: "Missing dataset",
		})
	}

	app := c.(*middleware.AppContext).App

	report, err := inspect.NewInspector(app.Store).Inspect(c.Request().Context(), dataset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, inspectResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, inspectResponse{
		Message: "Report generated successfully",
		Report:  report,
	})
}
