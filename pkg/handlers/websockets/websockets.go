// Package websockets holds the API Gateway WebSocket route handlers.
package websockets

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/staynest/booking-coordinator/pkg/storage"
)

// Handler registers and unregisters client connections.
type Handler struct {
	Manager storage.WebSocketManager
	Log     *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(manager storage.WebSocketManager, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Manager: manager, Log: log}
}

// HandleConnect stores a new client connection.
func (h *Handler) HandleConnect(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := request.RequestContext.ConnectionID
	if err := h.Manager.AddConnection(ctx, connectionID); err != nil {
		h.Log.Error("failed to store connection", "connection_id", connectionID, "error", err)
		return events.APIGatewayProxyResponse{StatusCode: 500}, err
	}
	h.Log.Info("client connected", "connection_id", connectionID)
	return events.APIGatewayProxyResponse{StatusCode: 200}, nil
}

// HandleDisconnect removes a client connection.
func (h *Handler) HandleDisconnect(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := request.RequestContext.ConnectionID
	if err := h.Manager.RemoveConnection(ctx, connectionID); err != nil {
		h.Log.Error("failed to remove connection", "connection_id", connectionID, "error", err)
		return events.APIGatewayProxyResponse{StatusCode: 500}, err
	}
	h.Log.Info("client disconnected", "connection_id", connectionID)
	return events.APIGatewayProxyResponse{StatusCode: 200}, nil
}

// HandleDefault acknowledges client messages. The push channel is one-way;
// inbound payloads are logged and dropped.
func (h *Handler) HandleDefault(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	h.Log.Info("ignoring inbound message", "connection_id", request.RequestContext.ConnectionID)
	return events.APIGatewayProxyResponse{StatusCode: 200}, nil
}
