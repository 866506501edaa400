package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/jamsync/server/internal/app"
	"github.com/jamsync/server/internal/config"
	"github.com/jamsync/server/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

const (
	joinBurst  = 5
	joinWindow = 10 * time.Second
)

// Controller terminates websocket connections and translates wire
// messages into gateway calls. All session semantics live behind the
// gateway; this layer only parses, dispatches, and fans results out.
type Controller struct {
	Gateway *app.Gateway

	readLimit     int64
	writeWait     time.Duration
	pingPeriod    time.Duration
	sendQueueSize int
	joinLimiter   *JoinRateLimiter
}

func NewController(gw *app.Gateway, cfg *config.Config) *Controller {
	pingPeriod := cfg.PingPeriod
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	return &Controller{
		Gateway:       gw,
		readLimit:     cfg.ReadLimit,
		writeWait:     cfg.WriteWait,
		pingPeriod:    pingPeriod,
		sendQueueSize: cfg.SendQueueSize,
		joinLimiter:   NewJoinRateLimiter(joinBurst, joinWindow),
	}
}

type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

// TrySend pushes a frame onto the send queue without blocking. A full
// queue is reported as backpressure and the frame is dropped; delivery
// here is best-effort by contract.
func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection until the
// client goes away or the registry cancels it.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	// the cookie token identifies the browser; the suffix makes each
	// socket its own client, so two tabs never share a registry slot
	id := core.ClientID(c.GetString("client_token") + "-" + uuid.NewString()[:8])
	log.Info().Str("module", "signal").Str("client", string(id)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.readLimit)

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.sendQueueSize),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Gateway.Registry.Bind(id, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, id, conn)
}
