package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"signalhub/internal/app"
	"signalhub/internal/config"
	"signalhub/internal/core"
	"signalhub/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Controller owns the websocket side of the protocol: upgrades,
// read/write pumps, message decoding and mapping flow errors to wire
// error frames. All state lives in the orchestrator.
type Controller struct {
	Orch    *app.Orchestrator
	Cfg     *config.Config
	limiter *CallRateLimiter
}

func NewController(orch *app.Orchestrator, cfg *config.Config) *Controller {
	return &Controller{
		Orch:    orch,
		Cfg:     cfg,
		limiter: NewCallRateLimiter(cfg.CallRate, cfg.CallRateWindow),
	}
}

// wsConn wraps one websocket with a buffered send queue. TrySend never
// blocks: a full queue means the peer is stalled and the frame is
// refused.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

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

// HandleWS upgrades the request and runs the connection until it dies.
// Every connection gets a fresh ConnID; two tabs of one browser are
// two identities.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	cid := domain.ConnID(uuid.NewString())
	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}
	log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, cid, conn)
	}()
}
