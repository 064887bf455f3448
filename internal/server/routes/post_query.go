package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/hopgraph/hopgraph/internal/server/middleware"
	"github.com/hopgraph/hopgraph/pkg/query"
)

// QueryDatasetHandler answers a question against a dataset's graph
func QueryDatasetHandler(c echo.Context) error {
	type queryBody struct {
		Question string `json:"question" validate:"required"`
		Hops     int    `json:"hops" validate:"min=0,max=3"`
		TopK     int    `json:"top_k" validate:"min=0"`
		Language string `json:"language"`
	}

	type queryResponse struct {
		Message string          `json:"message"`
		Result  *query.QAResult `json:"result,omitempty"`
	}

	dataset := c.Param("dataset")
	if dataset == "" {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Missing dataset",
		})
	}

	data := new(queryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App

	language := data.Language
	if language == "" {
		language = app.Language
	}

	engine := query.NewRetrievalEngine(query.NewRetrievalEngineParams{
		Store:    app.Store,
		AI:       app.AiClient,
		Language: language,
	})

	result, err := engine.Answer(c.Request().Context(), dataset, data.Question, data.Hops, data.TopK)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, queryResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, queryResponse{
		Message: "Question answered successfully",
		Result:  result,
	})
}
