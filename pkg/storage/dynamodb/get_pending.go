package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/staynest/booking-coordinator/pkg/models"
	"github.com/staynest/booking-coordinator/pkg/storage"
)

// GetPending retrieves a pending operation by its transaction id.
func (s *Store) GetPending(ctx context.Context, txID string) (*models.PendingOperation, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"tx_id": txID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction id: %w", err)
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.PendingTableName),
		Key:       key,
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending operation from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("pending operation %s: %w", txID, storage.ErrPendingNotFound)
	}

	var op models.PendingOperation
	if err := attributevalue.UnmarshalMap(result.Item, &op); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending operation: %w", err)
	}

	return &op, nil
}
