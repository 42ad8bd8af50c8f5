package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/events"
)

const (
	streamBuffer      = 16
	streamWriteWait   = 10 * time.Second
	streamPingPeriod  = 30 * time.Second
	snapshotEventType = "snapshot"
)

// snapshotMessage is the JSON text frame pushed to stream clients.
type snapshotMessage struct {
	Type   string             `json:"type"`
	AsOf   time.Time          `json:"asOf"`
	Prices domain.PriceLookup `json:"prices"`
}

// HandleStream upgrades to a websocket, sends the current snapshot and then
// every new one. Closing the connection unsubscribes.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	// Clients never send anything; CloseRead handles control frames and
	// cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	updates := make(chan *events.PricesUpdatedData, streamBuffer)
	id := h.bus.Subscribe(events.PricesUpdated, func(event *events.Event) {
		data, ok := event.Data.(*events.PricesUpdatedData)
		if !ok {
			return
		}
		// Non-blocking send (drop if channel full)
		select {
		case updates <- data:
		default:
			h.log.Warn().Msg("Stream client too slow, dropping snapshot")
		}
	})
	defer h.bus.Unsubscribe(id)

	h.log.Debug().Msg("Client connected to price stream")

	if snap, ok := h.refresher.Snapshot(); ok {
		if err := h.send(ctx, conn, snap.Prices, snap.AsOf); err != nil {
			return
		}
	}

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Msg("Client disconnected from price stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case data := <-updates:
			if err := h.send(ctx, conn, data.Prices, data.AsOf); err != nil {
				return
			}

		case <-ping.C:
			pingCtx, cancel := context.WithTimeout(ctx, streamWriteWait)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("Stream ping failed")
				return
			}
		}
	}
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, lookup domain.PriceLookup, asOf time.Time) error {
	payload, err := json.Marshal(snapshotMessage{Type: snapshotEventType, AsOf: asOf, Prices: lookup})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal snapshot")
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, streamWriteWait)
	defer cancel()
	if err := conn.Write(writeCtx, websocket.MessageText, payload); err != nil {
		h.log.Debug().Err(err).Msg("Failed to write snapshot")
		return err
	}
	return nil
}
