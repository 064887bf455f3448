package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/hopgraph/hopgraph/pkg/ai"
	"github.com/hopgraph/hopgraph/pkg/buildlock"
	"github.com/hopgraph/hopgraph/pkg/store"
)

// App holds the shared clients every request handler needs.
type App struct {
	Store      store.GraphStorage
	AiClient   ai.GraphAIClient
	BuildLocks *buildlock.Client

	Language        string
	ExtractionModel string
}

// AppContext wraps the echo context with the application clients.
type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware attaches the shared application clients to every
// request.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{
				Context: c,
				App:     app,
			})
		}
	}
}
