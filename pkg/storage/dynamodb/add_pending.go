package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/staynest/booking-coordinator/pkg/models"
	"github.com/staynest/booking-coordinator/pkg/storage"
)

// pendingTTL keeps abandoned pending records from living forever; the
// reconciler normally removes them long before this.
const pendingTTL = 7 * 24 * time.Hour

// AddPending records a broadcast-but-unconfirmed operation. The write is
// conditional on the transaction id not existing, which makes Add idempotent:
// a second add of the same handle is a no-op.
func (s *Store) AddPending(ctx context.Context, op *models.PendingOperation) error {
	op.TTL = time.Now().Add(pendingTTL).Unix()

	item, err := attributevalue.MarshalMap(op)
	if err != nil {
		return fmt.Errorf("failed to marshal pending operation: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.PendingTableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(tx_id)"),
	}

	_, err = s.Client.PutItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Already recorded for this handle.
			return nil
		}
		return fmt.Errorf("failed to put pending operation: %w", err)
	}

	return nil
}

// UpdatePending overwrites an existing pending operation.
func (s *Store) UpdatePending(ctx context.Context, op *models.PendingOperation) error {
	item, err := attributevalue.MarshalMap(op)
	if err != nil {
		return fmt.Errorf("failed to marshal pending operation: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.PendingTableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(tx_id)"),
	}

	_, err = s.Client.PutItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("pending operation %s: %w", op.TxID, storage.ErrPendingNotFound)
		}
		return fmt.Errorf("failed to update pending operation: %w", err)
	}

	return nil
}
