// Package app wires configuration, stores, services, and the HTTP server
// into one startable unit.
package app

import (
	"context"
	"fmt"

	"storygraph/internal/gateway/config"
	"storygraph/internal/gateway/handler"
	"storygraph/internal/gateway/server"
	storysvc "storygraph/internal/gateway/service/story"
	"storygraph/internal/gateway/watch"
)

type App struct {
	server *server.Server
	stores *gatewayStores
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	stores, err := initStores(cfg)
	if err != nil {
		return nil, err
	}

	hub := watch.NewHub()
	storyService := storysvc.New(stores.stories, hub, stores.exporter, cfg.DefaultSpec)

	storyHandler := handler.NewStoryHandler(storyService)
	watchHandler := handler.NewWatchHandler(storyService)

	mux := server.NewMux(storyHandler, watchHandler)
	srv := server.New(cfg.Port, mux, stores.summary)

	return &App{
		server: srv,
		stores: stores,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if closeErr := a.stores.stories.Close(); err == nil {
		err = closeErr
	}
	return err
}
