package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/staynest/booking-coordinator/pkg/models"
)

const pendingByStatusGSI = "status-submitted_at-index"

// ListPending retrieves all pending operations ordered by submission time,
// oldest first.
func (s *Store) ListPending(ctx context.Context) ([]models.PendingOperation, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.PendingTableName),
		IndexName:              aws.String(pendingByStatusGSI),
		KeyConditionExpression: aws.String("#status = :status"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(models.PendingStatusPending)},
		},
		ScanIndexForward: aws.Bool(true),
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending operations: %w", err)
	}

	var ops []models.PendingOperation
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &ops); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending operations: %w", err)
	}

	return ops, nil
}

// ListStalePending retrieves pending operations submitted longer ago than
// maxAge. These are the reconciler's re-check candidates.
func (s *Store) ListStalePending(ctx context.Context, maxAge time.Duration) ([]models.PendingOperation, error) {
	cutoff := time.Now().Add(-maxAge)
	cutoffStr, err := cutoff.MarshalText()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cutoff time: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.PendingTableName),
		IndexName:              aws.String(pendingByStatusGSI),
		KeyConditionExpression: aws.String("#status = :status"),
		FilterExpression:       aws.String("submitted_at < :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(models.PendingStatusPending)},
			":cutoff": &types.AttributeValueMemberS{Value: string(cutoffStr)},
		},
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale pending operations: %w", err)
	}

	var ops []models.PendingOperation
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &ops); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stale pending operations: %w", err)
	}

	return ops, nil
}
