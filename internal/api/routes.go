package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/furcwire-project/furcwire/internal/connector"
	"github.com/furcwire-project/furcwire/internal/events"
	"github.com/furcwire-project/furcwire/internal/protocol"
	"github.com/furcwire-project/furcwire/internal/util"
)

const maxCaptureLimit = 500

type textRequest struct {
	Text string `json:"text" binding:"required"`
}

type moveRequest struct {
	Direction string `json:"direction" binding:"required"`
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "furcwire",
		"version": util.Version,
	})
}

// handleStatus reports the connection state and transport counters.
func (s *Server) handleStatus(c *gin.Context) {
	client := s.deps.Client
	resp := gin.H{
		"state":   client.State().String(),
		"reason":  client.Reason().String(),
		"session": client.SessionID(),
	}
	if stats, ok := client.Stats(); ok {
		resp["transport"] = stats
	}
	if s.deps.Bus != nil {
		resp["wildcard_subscribers"] = s.deps.Bus.HandlerCount(events.EventAll)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSystem(c *gin.Context) {
	resp := gin.H{"host": util.GetSystemInfo()}
	if usage, err := util.GetProcessUsage(); err == nil {
		resp["process"] = usage
	}
	c.JSON(http.StatusOK, resp)
}

// handleCatalogue lists every known message, optionally filtered by status.
func (s *Server) handleCatalogue(c *gin.Context) {
	entries := s.deps.Catalogue()
	if status := c.Query("status"); status != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Status.String() == status {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"total":   len(entries),
	})
}

func (s *Server) handleCaptures(c *gin.Context) {
	if s.deps.Captures == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "capture journal is disabled"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxCaptureLimit)
	}

	captures, err := s.deps.Captures.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"captures": captures,
		"total":    len(captures),
	})
}

func (s *Server) handleCaptureSummary(c *gin.Context) {
	if s.deps.Captures == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "capture journal is disabled"})
		return
	}
	counts, err := s.deps.Captures.CountByOpcode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"opcodes": counts})
}

func (s *Server) handleCommand(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	s.respondSent(c, s.deps.Client.Command(req.Text))
}

func (s *Server) handleSay(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	s.respondSent(c, s.deps.Client.Say(req.Text))
}

func (s *Server) handleMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	dir, err := protocol.ParseDirection(req.Direction)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.respondSent(c, s.deps.Client.Move(dir))
}

// respondSent maps a command error onto a status code.
func (s *Server) respondSent(c *gin.Context, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
	case errors.Is(err, connector.ErrNotConnected):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, protocol.ErrEmbeddedNewline), errors.Is(err, protocol.ErrFieldRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
