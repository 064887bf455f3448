package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hopgraph/hopgraph/internal/server/middleware"
	"github.com/hopgraph/hopgraph/pkg/augment"
)

// AugmentDatasetHandler runs the full augmentation pipeline on a dataset:
// quality fixes, synonym merging, weak-link inference, connectivity
// enhancement, and isolated-entity pruning.
func AugmentDatasetHandler(c echo.Context) error {
	type augmentResponse struct {
		Message           string `json:"message"`
		RelationsFixed    int    `json:"relations_fixed"`
		EntitiesFixed     int    `json:"entities_fixed"`
		SynonymsMerged    int    `json:"synonyms_merged"`
		RelationsInferred int    `json:"relations_inferred"`
		EntitiesPruned    int    `json:"entities_pruned"`
	}

	dataset := c.Param("dataset")
	if dataset == "" {
		return c.JSON(http.StatusBadRequest, augmentResponse{
			Message: "Missing dataset",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	augmenter := augment.NewAugmenter(augment.NewAugmenterParams{
		Store:    app.Store,
		AI:       app.AiClient,
		Language: app.Language,
	})

	response := augmentResponse{}

	relationsFixed, entitiesFixed, err := augmenter.FixQualityIssues(ctx, dataset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, augmentResponse{
			Message: "Internal server error",
		})
	}
	response.RelationsFixed = relationsFixed
	response.EntitiesFixed = entitiesFixed

	merged, err := augmenter.MergeSynonymEntities(ctx, dataset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, augmentResponse{
			Message: "Internal server error",
		})
	}
	response.SynonymsMerged = merged

	weak, err := augmenter.InferWeakLinks(ctx, dataset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, augmentResponse{
			Message: "Internal server error",
		})
	}
	enhanced, err := augmenter.EnhanceConnectivity(ctx, dataset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, augmentResponse{
			Message: "Internal server error",
		})
	}
	response.RelationsInferred = weak + enhanced

	pruned, err := augmenter.PruneIsolated(ctx, dataset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, augmentResponse{
			Message: "Internal server error",
		})
	}
	response.EntitiesPruned = pruned

	response.Message = "Dataset augmented successfully"
	return c.JSON(http.StatusOK, response)
}
