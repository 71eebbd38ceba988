package middleware

import (
	"github.com/OFFIS-RIT/kgraph/internal/queue"
	"github.com/OFFIS-RIT/kgraph/internal/storage"
	"github.com/OFFIS-RIT/kgraph/pkg/graph"
	"github.com/OFFIS-RIT/kgraph/pkg/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type AppUser struct {
	Subject string
	Role    string
}

// App holds the collaborators shared by all requests.
//
// Queue and Bucket are nil when the server runs without a worker; requests
// are then processed synchronously. Keyfunc is nil when JWT auth is off.
type App struct {
	Graph        *graph.GraphClient
	Store        store.GraphStorage
	Transformer  graph.Transformer
	Queue        queue.Publisher
	Bucket       *storage.Bucket
	Keyfunc      jwt.Keyfunc
	MasterAPIKey string
}

// Async reports whether uploads can be handed to the worker.
func (a *App) Async() bool {
	return a.Queue != nil && a.Bucket != nil
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
