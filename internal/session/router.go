package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"ctchen222/Vanishing-Tic-Tac-Toe/internal/game"
	"ctchen222/Vanishing-Tic-Tac-Toe/internal/match"
	"ctchen222/Vanishing-Tic-Tac-Toe/internal/validator"
	"ctchen222/Vanishing-Tic-Tac-Toe/pkg/proto"
)

var (
	tracer = otel.Tracer("session")
	meter  = otel.Meter("session")
)

// Router dispatches inbound protocol messages to the matchmaker and game
// layer and fans the resulting state out to the connection registry. It
// holds no game state of its own.
type Router struct {
	matchmaker *match.MatchManager
	conns      *Manager

	messagesHandled metric.Int64Counter
}

// NewRouter creates a router over the given matchmaker and connection
// registry.
func NewRouter(mm *match.MatchManager, conns *Manager) *Router {
	messagesHandled, err := meter.Int64Counter("session.messages.handled")
	if err != nil {
		slog.Warn("could not create message counter", "error", err)
	}
	return &Router{
		matchmaker:      mm,
		conns:           conns,
		messagesHandled: messagesHandled,
	}
}

// Handle processes one inbound message from a player to completion,
// including all resulting broadcasts. No message is ever fatal: bad
// input, an illegal move or a dead recipient only produce an error reply
// or a dropped connection, never a crash.
func (r *Router) Handle(ctx context.Context, playerID string, rawMessage []byte) {
	ctx, span := tracer.Start(ctx, "session.Handle", trace.WithAttributes(
		attribute.String("player.id", playerID),
	))
	defer span.End()

	var message proto.ClientToServerMessage
	if err := json.Unmarshal(rawMessage, &message); err != nil {
		slog.WarnContext(ctx, "error unmarshalling message", "player.id", playerID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error unmarshalling message")
		r.sendError(playerID, "Invalid message format")
		return
	}

	if err := validator.GetValidator().Struct(message); err != nil {
		slog.WarnContext(ctx, "invalid message from player", "player.id", playerID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message format")
		r.sendError(playerID, "Invalid message format")
		return
	}

	span.SetAttributes(attribute.String("message.type", message.Type))
	if r.messagesHandled != nil {
		r.messagesHandled.Add(ctx, 1, metric.WithAttributes(attribute.String("message.type", message.Type)))
	}

	switch message.Type {
	case proto.TypeJoinQueue:
		r.handleJoinQueue(ctx, playerID)
	case proto.TypeMakeMove:
		r.handleMakeMove(ctx, playerID, &message)
	case proto.TypeLeaveGame:
		r.handleLeaveGame(ctx, playerID)
	default:
		r.sendError(playerID, fmt.Sprintf("Unknown message type: %s", message.Type))
	}
}

// handleJoinQueue enqueues the player. A formed match is announced to
// both members; an unmatched player is told to wait.
func (r *Router) handleJoinQueue(ctx context.Context, playerID string) {
	ctx, span := tracer.Start(ctx, "session.handleJoinQueue", trace.WithAttributes(
		attribute.String("player.id", playerID),
	))
	defer span.End()

	g := r.matchmaker.Enqueue(playerID)
	if g == nil {
		slog.InfoContext(ctx, "player waiting for opponent", "player.id", playerID)
		r.conns.Send(playerID, &proto.ServerToClientMessage{
			Type:    proto.TypeWaiting,
			Message: "Waiting for opponent...",
		})
		return
	}

	span.SetAttributes(attribute.String("game.id", g.ID))
	snapshot := g.Snapshot()
	for _, p := range snapshot.Players {
		r.conns.AddToGroup(g.ID, p.ID)
	}

	slog.InfoContext(ctx, "game starting", "game.id", g.ID)
	r.conns.Broadcast(g.ID, &proto.ServerToClientMessage{
		Type: proto.TypeGameStart,
		Game: snapshot,
	})
}

// handleMakeMove validates the payload, applies the move and broadcasts
// the new state; a finishing move additionally produces a game_over
// event. All rejection reasons collapse into one generic reply.
func (r *Router) handleMakeMove(ctx context.Context, playerID string, message *proto.ClientToServerMessage) {
	ctx, span := tracer.Start(ctx, "session.handleMakeMove", trace.WithAttributes(
		attribute.String("player.id", playerID),
	))
	defer span.End()

	if message.Row == nil || message.Col == nil {
		span.SetStatus(codes.Error, "Missing coordinates")
		r.sendError(playerID, "Invalid move: missing row or col")
		return
	}
	span.SetAttributes(attribute.Int("move.row", *message.Row), attribute.Int("move.col", *message.Col))

	g := r.matchmaker.PlayerGame(playerID)
	if g == nil {
		span.SetStatus(codes.Error, "Player not in a game")
		r.sendError(playerID, "You are not in a game")
		return
	}
	span.SetAttributes(attribute.String("game.id", g.ID))

	if err := g.MakeMove(*message.Row, *message.Col, playerID); err != nil {
		slog.WarnContext(ctx, "invalid move from player", "player.id", playerID, "game.id", g.ID, "error", err)
		span.SetAttributes(attribute.Bool("move.valid", false))
		span.RecordError(err)
		r.sendError(playerID, "Invalid move")
		return
	}
	span.SetAttributes(attribute.Bool("move.valid", true))

	snapshot := g.Snapshot()
	r.conns.Broadcast(g.ID, &proto.ServerToClientMessage{
		Type: proto.TypeGameUpdate,
		Game: snapshot,
	})

	if snapshot.State == game.StateFinished {
		slog.InfoContext(ctx, "game finished", "game.id", g.ID, "winner", snapshot.Winner, "outcome", snapshot.Outcome)
		var winner *string
		if snapshot.Winner != "" {
			winner = &snapshot.Winner
		}
		r.conns.Broadcast(g.ID, &proto.GameOverMessage{
			Type:   proto.TypeGameOver,
			Game:   snapshot,
			Winner: winner,
		})
	}
}

// handleLeaveGame removes the player from their game. The leaver comes
// out of the broadcast group before the player_left event goes out, so
// they never hear about their own departure, and their connection stays
// open for an immediate re-queue.
func (r *Router) handleLeaveGame(ctx context.Context, playerID string) {
	ctx, span := tracer.Start(ctx, "session.handleLeaveGame", trace.WithAttributes(
		attribute.String("player.id", playerID),
	))
	defer span.End()

	if g := r.matchmaker.PlayerGame(playerID); g != nil {
		span.SetAttributes(attribute.String("game.id", g.ID))
		r.conns.RemoveFromGroup(g.ID, playerID)
		r.conns.Broadcast(g.ID, &proto.ServerToClientMessage{
			Type:     proto.TypePlayerLeft,
			PlayerID: playerID,
			Message:  "Opponent has left the game",
		})
	}

	slog.InfoContext(ctx, "player left game", "player.id", playerID)
	r.matchmaker.RemovePlayer(playerID)
}

// Disconnect handles abrupt channel loss: the player's game membership is
// looked up before any state is torn down, so the remaining members still
// get their player_disconnected event.
func (r *Router) Disconnect(ctx context.Context, playerID string) {
	ctx, span := tracer.Start(ctx, "session.Disconnect", trace.WithAttributes(
		attribute.String("player.id", playerID),
	))
	defer span.End()

	g := r.matchmaker.PlayerGame(playerID)

	r.conns.Remove(playerID)
	r.matchmaker.RemovePlayer(playerID)

	if g != nil {
		span.SetAttributes(attribute.String("game.id", g.ID))
		r.conns.Broadcast(g.ID, &proto.ServerToClientMessage{
			Type:     proto.TypePlayerDisconnected,
			PlayerID: playerID,
			Message:  "Opponent disconnected",
		})
	}

	slog.InfoContext(ctx, "player disconnected", "player.id", playerID)
}

func (r *Router) sendError(playerID, message string) {
	r.conns.Send(playerID, &proto.ServerToClientMessage{
		Type:    proto.TypeError,
		Message: message,
	})
}
