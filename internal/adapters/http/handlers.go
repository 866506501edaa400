package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"

	"github.com/jamsync/server/internal/app"
	"github.com/jamsync/server/internal/config"
	"github.com/jamsync/server/internal/domain"
)

type Handlers struct {
	Gateway *app.Gateway
	Cfg     *config.Config
}

func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "jam sync server is running",
		"status":  "online",
	})
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// CreateSession allocates a session and hands the caller the id and the
// host secret. The caller is expected to be the host; the secret never
// travels anywhere else.
func (h *Handlers) CreateSession(c *gin.Context) {
	id, secret := h.Gateway.CreateSession()
	c.JSON(http.StatusCreated, gin.H{
		"session_id":  id,
		"host_secret": secret,
	})
}

func (h *Handlers) SessionInfo(c *gin.Context) {
	info, err := h.Gateway.SessionInfo(domain.SessionID(c.Param("id")))
	if err != nil {
		if errors.Is(err, app.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// RTCConfig hands clients the ICE servers to use for their peer media
// connections. The negotiation itself never touches this server beyond
// the opaque relay.
func (h *Handlers) RTCConfig(c *gin.Context) {
	cfg := webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: h.Cfg.STUNServers},
		},
	}
	c.JSON(http.StatusOK, gin.H{"ice_servers": cfg.ICEServers})
}
