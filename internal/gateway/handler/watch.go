package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	storysvc "storygraph/internal/gateway/service/story"
	"storygraph/internal/gateway/watch"
)

const (
	watchWSWriteWait = 10 * time.Second
	watchWSPongWait  = 60 * time.Second
	watchWSPingEvery = (watchWSPongWait * 9) / 10
)

var watchWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type watchWSOutbound struct {
	Type    string `json:"type"`
	StoryID string `json:"storyId,omitempty"`
	Attempt int    `json:"attempt,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Error   string `json:"error,omitempty"`
	Done    bool   `json:"done,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type WatchHandler struct {
	svc *storysvc.Service
}

func NewWatchHandler(svc *storysvc.Service) *WatchHandler {
	return &WatchHandler{svc: svc}
}

// HandleWatchWS streams a story's generation events: the recorded history
// first, then live events until the run finishes or the peer goes away.
func (h *WatchHandler) HandleWatchWS(w http.ResponseWriter, r *http.Request) {
	storyID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/watch/"))
	if storyID == "" {
		http.Error(w, "story id is required", http.StatusBadRequest)
		return
	}

	conn, err := watchWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(watchWSPongWait)); err != nil {
		log.Printf("watch ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchWSPongWait))
	})

	writeCh := make(chan watchWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(watchWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	replay, liveCh, unsubscribe, subErr := h.svc.Subscribe(storyID)
	if subErr != nil {
		pushWatchWS(writeCh, watchWSOutbound{
			Type:    "error",
			Code:    "invalid_argument",
			Message: subErr.Error(),
		})
		cancel()
		<-writerDone
		return
	}
	defer unsubscribe()

	pushWatchWS(writeCh, watchWSOutbound{Type: "subscribed", StoryID: storyID})
	for _, ev := range replay {
		pushWatchWS(writeCh, watchWSEvent(ev))
	}

	if liveCh != nil {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-liveCh:
					if !ok {
						return
					}
					pushWatchWS(writeCh, watchWSEvent(ev))
				}
			}
		}()
	}

	// Read loop keeps the pong handler serviced; inbound frames are ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			cancel()
			<-writerDone
			return
		}
	}
}

func watchWSEvent(ev watch.Event) watchWSOutbound {
	return watchWSOutbound{
		Type:    "event",
		StoryID: ev.StoryID,
		Attempt: ev.Attempt,
		Stage:   ev.Stage,
		Error:   ev.Error,
		Done:    ev.Done,
	}
}

func pushWatchWS(writeCh chan watchWSOutbound, out watchWSOutbound) {
	if writeCh == nil {
		return
	}
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
