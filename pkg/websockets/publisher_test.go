package websockets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/staynest/booking-coordinator/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeManagementAPI struct {
	posted []string
	gone   map[string]bool
}

func (f *fakeManagementAPI) PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	id := *params.ConnectionId
	if f.gone[id] {
		return nil, &apigwtypes.GoneException{}
	}
	f.posted = append(f.posted, id)
	return &apigatewaymanagementapi.PostToConnectionOutput{}, nil
}

type fakeConnections struct {
	ids     []string
	removed []string
}

func (f *fakeConnections) GetAllConnections(ctx context.Context) ([]string, error) {
	return f.ids, nil
}

func (f *fakeConnections) AddConnection(ctx context.Context, connectionID string) error {
	f.ids = append(f.ids, connectionID)
	return nil
}

func (f *fakeConnections) RemoveConnection(ctx context.Context, connectionID string) error {
	f.removed = append(f.removed, connectionID)
	return nil
}

func testMessage() Message {
	return Message{
		Type: MessageTypeOperationConfirmed,
		Payload: OperationEventPayload{
			TxID:     "0xabc",
			Kind:     models.KindBooking,
			EntityID: 7,
		},
	}
}

func TestPublish_DeliversToAllConnections(t *testing.T) {
	api := &fakeManagementAPI{}
	conns := &fakeConnections{ids: []string{"conn-1", "conn-2"}}
	p := &APIGatewayPublisher{
		API:         api,
		Connections: conns,
		Manager:     conns,
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	err := p.Publish(context.Background(), testMessage())
	require.NoError(t, err)

	assert.Equal(t, []string{"conn-1", "conn-2"}, api.posted)
	assert.Empty(t, conns.removed)
}

func TestPublish_PrunesGoneConnections(t *testing.T) {
	api := &fakeManagementAPI{gone: map[string]bool{"conn-stale": true}}
	conns := &fakeConnections{ids: []string{"conn-stale", "conn-live"}}
	p := &APIGatewayPublisher{
		API:         api,
		Connections: conns,
		Manager:     conns,
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	err := p.Publish(context.Background(), testMessage())
	require.NoError(t, err)

	assert.Equal(t, []string{"conn-live"}, api.posted)
	assert.Equal(t, []string{"conn-stale"}, conns.removed)
}

type failingConnections struct{ fakeConnections }

func (f *failingConnections) GetAllConnections(ctx context.Context) ([]string, error) {
	return nil, fmt.Errorf("table unavailable")
}

func TestPublish_ListFailureIsAnError(t *testing.T) {
	conns := &failingConnections{}
	p := &APIGatewayPublisher{
		API:         &fakeManagementAPI{},
		Connections: conns,
		Manager:     conns,
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	err := p.Publish(context.Background(), testMessage())
	assert.Error(t, err)
}
