package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/logan/usecasehub/internal/api/middleware"
	"github.com/logan/usecasehub/internal/api/response"
	"github.com/logan/usecasehub/internal/refresh"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

// RefreshHandler exposes the refresh epoch to views.
type RefreshHandler struct {
	signal   *refresh.Signal
	upgrader websocket.Upgrader
}

// NewRefreshHandler creates a RefreshHandler. Websocket upgrades are
// accepted from allowedOrigin, or from any origin when it is empty.
func NewRefreshHandler(signal *refresh.Signal, allowedOrigin string) *RefreshHandler {
	return &RefreshHandler{
		signal: signal,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

type epochMessage struct {
	Epoch uint64 `json:"epoch"`
}

// Epoch handles GET /refresh for clients that poll.
func (h *RefreshHandler) Epoch(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, epochMessage{Epoch: h.signal.Epoch()})
}

// Stream handles GET /refresh/ws. It sends the current epoch on connect and
// every newer epoch after. A slow client skips straight to the latest.
func (h *RefreshHandler) Stream(w http.ResponseWriter, r *http.Request) {
	logger := middleware.Logger(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := h.signal.Subscribe(ctx)

	// Client messages are ignored; a read error means the client went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, h.signal.Epoch()); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case epoch, ok := <-updates:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(wsWriteWait))
				return
			}
			if err := h.write(conn, epoch); err != nil {
				logger.Debug("refresh stream write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *RefreshHandler) write(conn *websocket.Conn, epoch uint64) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(epochMessage{Epoch: epoch})
}
