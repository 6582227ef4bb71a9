package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/rendis/vetassist/internal/streaming"
)

// notificationMethod is the MCP method used for wizard event pushes.
const notificationMethod = "notifications/message"

// ClientNotifier pushes notifications to connected clients.
type ClientNotifier interface {
	Notify(ctx context.Context, sessionID string, payload map[string]any) error
}

// MCPNotifier implements ClientNotifier using MCP server push.
type MCPNotifier struct {
	mcpServer *server.MCPServer
	sessions  *SessionRegistry
}

// NewMCPNotifier creates a notifier that pushes to the client owning a wizard session.
func NewMCPNotifier(mcpServer *server.MCPServer, sessions *SessionRegistry) *MCPNotifier {
	return &MCPNotifier{mcpServer: mcpServer, sessions: sessions}
}

// Notify sends a notification to the client that created the wizard session.
// Best-effort: returns nil if the client is not connected.
func (n *MCPNotifier) Notify(_ context.Context, sessionID string, payload map[string]any) error {
	clientID, ok := n.sessions.ClientFor(sessionID)
	if !ok {
		return nil
	}
	err := n.mcpServer.SendNotificationToSpecificClient(clientID, notificationMethod, payload)
	if errors.Is(err, server.ErrSessionNotFound) {
		// Client went away between lookup and send.
		n.sessions.Remove(clientID)
		return nil
	}
	return err
}

// Forward subscribes to hub and relays every wizard event to its owning
// client until ctx is cancelled.
func Forward(ctx context.Context, hub streaming.EventHub, n ClientNotifier, logger *slog.Logger) error {
	events, cancel, err := hub.Subscribe(ctx, streaming.EventFilter{})
	if err != nil {
		return err
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := n.Notify(ctx, ev.SessionID, eventPayload(ev)); err != nil {
				logger.WarnContext(ctx, "notify client failed",
					slog.String("session_id", ev.SessionID),
					slog.String("event_type", ev.EventType),
					slog.Any("error", err))
			}
		}
	}
}

func eventPayload(ev streaming.StreamEvent) map[string]any {
	payload := map[string]any{
		"session_id": ev.SessionID,
		"step":       ev.Step,
		"event_type": ev.EventType,
		"run":        ev.Run,
	}
	if ev.Payload != nil {
		payload["data"] = ev.Payload
	}
	return payload
}
