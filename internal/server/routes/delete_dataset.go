package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hopgraph/hopgraph/internal/server/middleware"
)

// DeleteDatasetHandler removes a dataset's chunks and its exclusive graph data
func DeleteDatasetHandler(c echo.Context) error {
	type deleteResponse struct {
		Message string `json:"message"`
	}

	dataset := c.Param("dataset")
	if dataset == "" {
		return c.JSON(http.StatusBadRequest, deleteResponse{
			Message: "Missing dataset",
		})
	}

	app := c.(*middleware.AppContext).App

	if err := app.Store.CleanDataset(c.Request().Context(), dataset); err != nil {
		return c.JSON(http.StatusInternalServerError, deleteResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, deleteResponse{
		Message: "Dataset deleted successfully",
	})
}
