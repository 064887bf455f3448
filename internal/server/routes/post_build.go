package routes

import (
	"context"
	"errors"
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/hopgraph/hopgraph/internal/server/middleware"
	"github.com/hopgraph/hopgraph/pkg/buildlock"
	"github.com/hopgraph/hopgraph/pkg/graph"
	"github.com/hopgraph/hopgraph/pkg/loader"
)

// BuildDatasetHandler ingests a corpus source into a dataset's graph.
// Building runs synchronously; large corpora can take a while, so clients
// should use generous timeouts.
func BuildDatasetHandler(c echo.Context) error {
	type buildBody struct {
		Source   string `json:"source" validate:"required"`
		Window   int    `json:"window" validate:"min=0"`
		Overlap  int    `json:"overlap" validate:"min=0"`
		Language string `json:"language"`
	}

	type buildResponse struct {
		Message string             `json:"message"`
		Result  *graph.BuildResult `json:"result,omitempty"`
	}

	dataset := c.Param("dataset")
	if dataset == "" {
		return c.JSON(http.StatusBadRequest, buildResponse{
			Message: "Missing dataset",
		})
	}

	data := new(buildBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, buildResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, buildResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	language := data.Language
	if language == "" {
		language = app.Language
	}

	text, err := loader.Load(ctx, data.Source)
	if err != nil {
		return c.JSON(http.StatusBadRequest, buildResponse{
			Message: "Failed to load source",
		})
	}

	builder := graph.NewGraphBuilder(graph.NewGraphBuilderParams{
		Store:           app.Store,
		AI:              app.AiClient,
		Language:        language,
		ExtractionModel: app.ExtractionModel,
		SegmentWindow:   data.Window,
		SegmentOverlap:  data.Overlap,
	})

	var result *graph.BuildResult
	err = app.BuildLocks.WithLease(ctx, dataset, buildlock.Options{}, func(ctx context.Context) error {
		var buildErr error
		result, buildErr = builder.Build(ctx, dataset, data.Source, text)
		return buildErr
	})
	if err != nil {
		if errors.Is(err, buildlock.ErrBusy) {
			return c.JSON(http.StatusConflict, buildResponse{
				Message: "Dataset is already being built",
			})
		}
		return c.JSON(http.StatusInternalServerError, buildResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, buildResponse{
		Message: "Dataset built successfully",
		Result:  result,
	})
}
