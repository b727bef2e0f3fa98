package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/furcwire-project/furcwire/internal/events"
)

const (
	streamQueueSize  = 64
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 50 * time.Second
)

type streamCounter struct {
	n atomic.Uint64
}

func (c *streamCounter) next() uint64 { return c.n.Add(1) }

// parseTypes turns "login,message" into a set. An empty string means all.
func parseTypes(raw string) map[events.EventType]bool {
	if raw == "" {
		return nil
	}
	set := make(map[events.EventType]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			set[events.EventType(t)] = true
		}
	}
	return set
}

// handleEventStream upgrades to a websocket and forwards bus events as JSON
// text frames until either side goes away. A slow reader loses events
// rather than stalling the bus.
func (s *Server) handleEventStream(c *gin.Context) {
	if s.deps.Bus == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event bus unavailable"})
		return
	}
	filter := parseTypes(c.Query("types"))

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Debug().Err(err).Msg("event stream upgrade failed")
		return
	}
	defer conn.Close()

	name := fmt.Sprintf("api.stream.%d", s.streams.next())
	logger := log.With().Str("component", "stream").Str("subscriber", name).Logger()

	queue := make(chan events.Event, streamQueueSize)
	done := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(done) }) }
	var dropped atomic.Int64

	s.deps.Bus.Subscribe(events.EventAll, name, func(_ context.Context, event events.Event) error {
		if filter != nil && !filter[event.Type] {
			return nil
		}
		select {
		case queue <- event:
		case <-done:
		default:
			dropped.Add(1)
		}
		return nil
	})
	defer s.deps.Bus.Unsubscribe(events.EventAll, name)
	logger.Info().Msg("event stream opened")

	go func() {
		defer stop()
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug().Err(err).Msg("event stream read failed")
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event := <-queue:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug().Err(err).Msg("event stream write failed")
				stop()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				stop()
				return
			}
		case <-done:
			logger.Info().Int64("dropped", dropped.Load()).Msg("event stream closed")
			return
		case <-s.shutdown:
			stop()
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
				time.Now().Add(time.Second))
			return
		}
	}
}
