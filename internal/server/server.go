package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ctchen222/Vanishing-Tic-Tac-Toe/internal/api/response"
	"ctchen222/Vanishing-Tic-Tac-Toe/internal/game"
	"ctchen222/Vanishing-Tic-Tac-Toe/internal/registry"
	"ctchen222/Vanishing-Tic-Tac-Toe/internal/session"
	"ctchen222/Vanishing-Tic-Tac-Toe/pkg/proto"
)

var tracer = otel.Tracer("server")

const (
	heartbeatInterval = 10 * time.Second
	pongWait          = 60 * time.Second
)

// Server exposes the websocket endpoint and the diagnostic HTTP surface
// over a gin engine.
type Server struct {
	router   *session.Router
	conns    *session.Manager
	registry *registry.Registry
	engine   *gin.Engine
	upgrader websocket.Upgrader
}

// NewServer builds the gin engine and wires the routes.
func NewServer(router *session.Router, conns *session.Manager, reg *registry.Registry) *Server {
	s := &Server{
		router:   router,
		conns:    conns,
		registry: reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	engine := gin.Default()
	engine.GET("/", s.handleRoot)
	engine.GET("/api/health", s.handleHealth)
	engine.GET("/ws", s.handleWebSocket)
	s.engine = engine

	return s
}

// Engine returns the underlying gin engine for http.Server wiring.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) handleRoot(c *gin.Context) {
	response.SuccessResponseContent(c, "Vanishing Tic-Tac-Toe backend")
}

// handleHealth reports the active game count and each game's lifecycle
// state.
func (s *Server) handleHealth(c *gin.Context) {
	games := s.registry.ListAll()
	states := make(map[string]game.State, len(games))
	for id, g := range games {
		states[id] = g.State()
	}

	response.SuccessResponse(c, gin.H{
		"status":       "healthy",
		"active_games": len(games),
		"games":        states,
	})
}

// handleWebSocket upgrades the connection, registers the player's
// channel, greets them, and runs the read pump until the channel dies.
// Each player connects with a stable opaque id; one is generated when
// the client does not supply its own.
func (s *Server) handleWebSocket(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.String()),
	))
	defer span.End()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(ctx, "failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	playerID := c.Query("playerId")
	if playerID == "" {
		playerID = uuid.New().String()
	}
	span.SetAttributes(attribute.String("player.id", playerID))

	s.conns.Add(playerID, conn)
	slog.InfoContext(ctx, "player connected", "player.id", playerID)

	s.conns.Send(playerID, &proto.ServerToClientMessage{
		Type:     proto.TypeConnected,
		PlayerID: playerID,
		Message:  "Connected to game server",
	})

	s.readPump(ctx, playerID, conn)
}

// readPump processes inbound frames one at a time: each message is
// handled to completion, broadcasts included, before the next is read.
func (s *Server) readPump(ctx context.Context, playerID string, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go s.heartbeat(playerID, done)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			slog.InfoContext(ctx, "read pump closing", "player.id", playerID, "error", err)
			break
		}
		s.router.Handle(ctx, playerID, raw)
	}

	s.router.Disconnect(ctx, playerID)
	_ = conn.Close()
}

// heartbeat pings the player until the pump stops; a failed ping just
// returns and lets the read deadline tear the connection down.
func (s *Server) heartbeat(playerID string, done <-chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := s.conns.Ping(playerID); err != nil {
				slog.Warn("failed to send ping to player", "player.id", playerID, "error", err)
				return
			}
		}
	}
}
