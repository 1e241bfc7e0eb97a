package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/staynest/booking-coordinator/pkg/models"
	"github.com/staynest/booking-coordinator/pkg/storage"
	"github.com/staynest/booking-coordinator/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func pendingOp() *models.PendingOperation {
	return &models.PendingOperation{
		TxID:          "0xabc",
		OpID:          "f81d4fae-7dec-11d0-a765-00a0c91e6bf6",
		Kind:          models.KindBooking,
		PropertyID:    7,
		Guest:         "SP2GUEST",
		CheckInHeight: 2000,
		TotalAmount:   10_000_000,
		ExpectedID:    4,
		Status:        models.PendingStatusPending,
		SubmittedAt:   time.Now(),
	}
}

func TestAddPending(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, PendingTableName: "pending"}

		mockClient.On("PutItem", mock.Anything, mock.Anything).Once().Return(&awsdynamodb.PutItemOutput{}, nil)

		err := store.AddPending(context.Background(), pendingOp())

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Duplicate Handle Is No-Op", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, PendingTableName: "pending"}

		mockClient.On("PutItem", mock.Anything, mock.Anything).Once().
			Return(nil, &types.ConditionalCheckFailedException{})

		err := store.AddPending(context.Background(), pendingOp())

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Put Fails", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, PendingTableName: "pending"}

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("dynamo down"))

		err := store.AddPending(context.Background(), pendingOp())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to put pending operation")
		mockClient.AssertExpectations(t)
	})
}

func TestUpdatePending(t *testing.T) {
	t.Run("Missing Record", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, PendingTableName: "pending"}

		mockClient.On("PutItem", mock.Anything, mock.Anything).
			Return(nil, &types.ConditionalCheckFailedException{})

		err := store.UpdatePending(context.Background(), pendingOp())

		assert.ErrorIs(t, err, storage.ErrPendingNotFound)
		mockClient.AssertExpectations(t)
	})
}

func TestGetPending(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, PendingTableName: "pending"}

		item, _ := attributevalue.MarshalMap(pendingOp())
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&awsdynamodb.GetItemOutput{Item: item}, nil)

		op, err := store.GetPending(context.Background(), "0xabc")

		assert.NoError(t, err)
		assert.Equal(t, "0xabc", op.TxID)
		assert.Equal(t, models.KindBooking, op.Kind)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, PendingTableName: "pending"}

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&awsdynamodb.GetItemOutput{}, nil)

		_, err := store.GetPending(context.Background(), "0xmissing")

		assert.ErrorIs(t, err, storage.ErrPendingNotFound)
		mockClient.AssertExpectations(t)
	})
}

func TestListPending(t *testing.T) {
	mockClient := new(mocks.DynamoDBAPI)
	store := &Store{Client: mockClient, PendingTableName: "pending"}

	first := pendingOp()
	second := pendingOp()
	second.TxID = "0xdef"
	firstAV, _ := attributevalue.MarshalMap(first)
	secondAV, _ := attributevalue.MarshalMap(second)

	mockClient.On("Query", mock.Anything, mock.Anything).Return(&awsdynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{firstAV, secondAV},
	}, nil)

	ops, err := store.ListPending(context.Background())

	assert.NoError(t, err)
	assert.Len(t, ops, 2)
	assert.Equal(t, "0xabc", ops[0].TxID)
	assert.Equal(t, "0xdef", ops[1].TxID)
	mockClient.AssertExpectations(t)
}

// Provisional entries keep their live status; both list queries key the GSI
// on that status, so a provisional row must still match the bound value.
func TestListQueriesMatchProvisionalEntries(t *testing.T) {
	mockClient := new(mocks.DynamoDBAPI)
	store := &Store{Client: mockClient, PendingTableName: "pending"}

	op := pendingOp()
	op.Provisional = true
	op.SubmittedAt = time.Now().Add(-time.Hour)
	opAV, err := attributevalue.MarshalMap(op)
	assert.NoError(t, err)
	stored, ok := opAV["status"].(*types.AttributeValueMemberS)
	assert.True(t, ok)

	var queries []*awsdynamodb.QueryInput
	mockClient.On("Query", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		queries = append(queries, args.Get(1).(*awsdynamodb.QueryInput))
	}).Return(&awsdynamodb.QueryOutput{Items: []map[string]types.AttributeValue{opAV}}, nil)

	ops, err := store.ListPending(context.Background())
	assert.NoError(t, err)
	assert.Len(t, ops, 1)
	assert.True(t, ops[0].Provisional)

	stale, err := store.ListStalePending(context.Background(), 10*time.Minute)
	assert.NoError(t, err)
	assert.Len(t, stale, 1)

	assert.Len(t, queries, 2)
	for _, input := range queries {
		bound, ok := input.ExpressionAttributeValues[":status"].(*types.AttributeValueMemberS)
		assert.True(t, ok)
		assert.Equal(t, stored.Value, bound.Value)
	}
}

func TestListStalePending(t *testing.T) {
	mockClient := new(mocks.DynamoDBAPI)
	store := &Store{Client: mockClient, PendingTableName: "pending"}

	op := pendingOp()
	opAV, _ := attributevalue.MarshalMap(op)
	mockClient.On("Query", mock.Anything, mock.MatchedBy(func(input *awsdynamodb.QueryInput) bool {
		return input.FilterExpression != nil
	})).Return(&awsdynamodb.QueryOutput{Items: []map[string]types.AttributeValue{opAV}}, nil)

	ops, err := store.ListStalePending(context.Background(), 10*time.Minute)

	assert.NoError(t, err)
	assert.Len(t, ops, 1)
	mockClient.AssertExpectations(t)
}

func TestRemovePending(t *testing.T) {
	mockClient := new(mocks.DynamoDBAPI)
	store := &Store{Client: mockClient, PendingTableName: "pending"}

	mockClient.On("DeleteItem", mock.Anything, mock.Anything).Return(&awsdynamodb.DeleteItemOutput{}, nil)

	err := store.RemovePending(context.Background(), "0xabc")

	assert.NoError(t, err)
	mockClient.AssertExpectations(t)
}
