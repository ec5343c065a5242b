package gameserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/questforge/mud/internal/config"
	"github.com/questforge/mud/internal/game/session"
	"github.com/questforge/mud/internal/game/world"
)

// Gateway is the websocket front door. It upgrades HTTP connections,
// allocates a coordinator channel per socket, and runs one read and one
// write pump per client. It implements the server.Service interface.
type Gateway struct {
	cfg      config.WebsocketConfig
	coord    *Coordinator
	logger   *zap.Logger
	upgrader websocket.Upgrader
	srv      *http.Server
}

// NewGateway creates a Gateway listening on the configured address.
//
// Precondition: coord and logger must be non-nil.
func NewGateway(cfg config.WebsocketConfig, coord *Coordinator, logger *zap.Logger) *Gateway {
	g := &Gateway{
		cfg:    cfg,
		coord:  coord,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The browser client is served from another origin in every
			// deployment we run; auth happens per join, not per origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.handleSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	g.srv = &http.Server{Addr: cfg.Addr(), Handler: mux}
	return g
}

// Start runs the HTTP listener, blocking until Stop or failure.
func (g *Gateway) Start() error {
	g.logger.Info("websocket gateway listening", zap.String("addr", g.cfg.Addr()))
	err := g.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the listener down gracefully.
func (g *Gateway) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.srv.Shutdown(ctx); err != nil {
		g.logger.Warn("gateway shutdown", zap.Error(err))
	}
}

func (g *Gateway) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	ch := g.coord.Connect()
	g.logger.Debug("client connected",
		zap.String("channel_id", ch.ID()),
		zap.String("remote", conn.RemoteAddr().String()),
	)
	go g.writePump(conn, ch)
	g.readPump(conn, ch)
}

// readPump reads frames until the connection drops, dispatching each to
// the coordinator. It owns disconnect cleanup.
func (g *Gateway) readPump(conn *websocket.Conn, ch *session.Channel) {
	defer func() {
		g.coord.Disconnect(ch.ID())
		_ = conn.Close()
	}()

	conn.SetReadLimit(g.cfg.MaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(g.cfg.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(g.cfg.PongTimeout))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.logger.Debug("client read failed", zap.String("channel_id", ch.ID()), zap.Error(err))
			}
			return
		}
		g.dispatch(context.Background(), ch, raw)
	}
}

// writePump drains the channel's event queue onto the socket and keeps the
// connection alive with pings. A closed channel closes the socket.
func (g *Gateway) writePump(conn *websocket.Conn, ch *session.Channel) {
	pingPeriod := g.cfg.PongTimeout * 9 / 10
	if pingPeriod <= 0 {
		pingPeriod = 30 * time.Second
	}
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case raw, ok := <-ch.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(g.cfg.WriteTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(g.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) dispatch(ctx context.Context, ch *session.Channel, raw []byte) {
	msg, err := DecodeClientMessage(raw)
	if err != nil {
		g.send(ch, errorEvent("", reject(KindUnsupported, "malformed message")))
		return
	}
	chID := ch.ID()

	switch msg.Type {
	case TypeJoin:
		res, err := g.coord.Join(ctx, chID, msg.Token, msg.ActorID)
		if err != nil {
			g.fail(ch, msg.RequestID, err)
			return
		}
		g.send(ch, &ServerEvent{RequestID: msg.RequestID, Type: EventJoinResult, Join: res})

	case TypeGlobal:
		if rej := g.coord.SendGlobal(chID, msg.Text); rej != nil {
			g.send(ch, errorEvent(msg.RequestID, rej))
		}

	case TypeRoom:
		if rej := g.coord.SendRoom(chID, msg.Text); rej != nil {
			g.send(ch, errorEvent(msg.RequestID, rej))
		}

	case TypePrivate:
		res, err := g.coord.SendPrivate(ctx, chID, msg.Target, msg.Text)
		if err != nil {
			g.fail(ch, msg.RequestID, err)
			return
		}
		g.send(ch, &ServerEvent{RequestID: msg.RequestID, Type: EventPrivateResult, Private: res})

	case TypeMove:
		var dir world.Direction
		if msg.Portal == "" {
			dir = world.Direction(msg.Direction)
			if !dir.Valid() {
				g.send(ch, errorEvent(msg.RequestID, reject(KindUnsupported, "unknown direction %q", msg.Direction)))
				return
			}
		}
		res, err := g.coord.Move(ctx, chID, dir, msg.Portal)
		if err != nil {
			g.fail(ch, msg.RequestID, err)
			return
		}
		g.send(ch, &ServerEvent{RequestID: msg.RequestID, Type: EventMoveResult, Move: res})

	case TypeTransferItem:
		g.send(ch, errorEvent(msg.RequestID, g.coord.TransferItem(chID, msg.ItemID, msg.TargetID)))

	case TypeLeave:
		g.coord.Leave(chID)
	}
}

func (g *Gateway) send(ch *session.Channel, ev *ServerEvent) {
	raw, err := Encode(ev)
	if err != nil {
		g.logger.Error("encoding response", zap.Error(err))
		return
	}
	if err := ch.Push(raw); err != nil {
		g.logger.Warn("dropping response", zap.String("channel_id", ch.ID()), zap.Error(err))
	}
}

// fail reports a store failure to the client without leaking its detail.
func (g *Gateway) fail(ch *session.Channel, requestID string, err error) {
	g.logger.Error("request failed", zap.String("channel_id", ch.ID()), zap.Error(err))
	g.send(ch, errorEvent(requestID, reject(KindInternal, "internal server error")))
}
