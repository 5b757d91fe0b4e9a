package server

import (
	"net/http"

	"storygraph/internal/gateway/handler"
	"storygraph/internal/gateway/middleware"
)

func NewMux(storyHandler *handler.StoryHandler, watchHandler *handler.WatchHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/generate", storyHandler.HandleGenerate)
	mux.HandleFunc("/api/stories", storyHandler.HandleListStories)
	mux.HandleFunc("/api/story/", storyHandler.HandleGetStory)
	mux.HandleFunc("/api/watch/", watchHandler.HandleWatchWS)

	return middleware.CORS(mux)
}
