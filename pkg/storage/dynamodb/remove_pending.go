package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// RemovePending deletes a pending operation. Deleting an absent id is not an
// error: removal races between the confirmation tracker and the reconciler
// are benign.
func (s *Store) RemovePending(ctx context.Context, txID string) error {
	key, err := attributevalue.MarshalMap(map[string]string{"tx_id": txID})
	if err != nil {
		return fmt.Errorf("failed to marshal transaction id: %w", err)
	}

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(s.PendingTableName),
		Key:       key,
	}

	if _, err := s.Client.DeleteItem(ctx, input); err != nil {
		return fmt.Errorf("failed to delete pending operation: %w", err)
	}

	return nil
}
