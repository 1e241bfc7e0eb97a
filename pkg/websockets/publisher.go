package websockets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
)

// ConnectionLister yields the ids of every live client connection.
type ConnectionLister interface {
	GetAllConnections(ctx context.Context) ([]string, error)
}

// ManagementAPI is the slice of the API Gateway management client the
// publisher uses.
type ManagementAPI interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// APIGatewayPublisher fans an operation event out to every connected client
// through the API Gateway management API.
type APIGatewayPublisher struct {
	API         ManagementAPI
	Connections ConnectionLister
	Manager     ConnectionManager
	Log         *slog.Logger
}

var _ Publisher = (*APIGatewayPublisher)(nil)

// NewAPIGatewayPublisher creates a publisher for the given management
// endpoint.
func NewAPIGatewayPublisher(cfg aws.Config, endpoint string, connections ConnectionLister, manager ConnectionManager, log *slog.Logger) *APIGatewayPublisher {
	if log == nil {
		log = slog.Default()
	}
	client := apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return &APIGatewayPublisher{API: client, Connections: connections, Manager: manager, Log: log}
}

// Publish delivers the message to all connected clients. A connection that
// is gone gets pruned; other per-connection delivery failures are logged and
// skipped, never failing the publish as a whole.
func (p *APIGatewayPublisher) Publish(ctx context.Context, message Message) error {
	connectionIDs, err := p.Connections.GetAllConnections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list connections: %w", err)
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	var delivered, pruned int
	for _, connectionID := range connectionIDs {
		_, err := p.API.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
			ConnectionId: aws.String(connectionID),
			Data:         payload,
		})
		if err == nil {
			delivered += 1
			continue
		}

		var gone *apigwtypes.GoneException
		if errors.As(err, &gone) {
			if err := p.Manager.RemoveConnection(ctx, connectionID); err != nil {
				p.Log.Error("failed to prune stale connection", "connection_id", connectionID, "error", err)
			} else {
				pruned += 1
			}
			continue
		}
		p.Log.Error("failed to post to connection", "connection_id", connectionID, "error", err)
	}

	p.Log.Debug("published operation event", "type", message.Type, "delivered", delivered, "pruned", pruned)
	return nil
}
