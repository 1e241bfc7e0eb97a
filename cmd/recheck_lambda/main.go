package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/staynest/booking-coordinator/pkg/chain"
	"github.com/staynest/booking-coordinator/pkg/coordinator"
	"github.com/staynest/booking-coordinator/pkg/models"
	"github.com/staynest/booking-coordinator/pkg/queue"
	"github.com/staynest/booking-coordinator/pkg/scheduler"
	dydbstore "github.com/staynest/booking-coordinator/pkg/storage/dynamodb"
	"github.com/staynest/booking-coordinator/pkg/websockets"
)

var coord *coordinator.Coordinator

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	ledgerURL := os.Getenv("LEDGER_API_URL")
	contractAddress := os.Getenv("CONTRACT_ADDRESS")
	contractName := os.Getenv("CONTRACT_NAME")
	if ledgerURL == "" || contractAddress == "" || contractName == "" {
		log.Fatal("LEDGER_API_URL, CONTRACT_ADDRESS and CONTRACT_NAME must all be set")
	}

	pendingTable := os.Getenv("DYNAMODB_PENDING_TABLE_NAME")
	connectionsTable := os.Getenv("DYNAMODB_CONNECTIONS_TABLE_NAME")
	if pendingTable == "" {
		log.Fatal("DYNAMODB_PENDING_TABLE_NAME environment variable not set")
	}
	store := dydbstore.New(awsdynamodb.NewFromConfig(cfg), pendingTable, connectionsTable)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	requestQueue := queue.New(context.Background(), queue.WithLogger(logger))
	chainClient := chain.NewClient(httpClient, ledgerURL, contractAddress, contractName, requestQueue, logger)
	poller := chain.NewPoller(chainClient, logger)

	var publisher websockets.Publisher
	if endpoint := os.Getenv("WEBSOCKET_API_ENDPOINT"); endpoint != "" {
		publisher = websockets.NewAPIGatewayPublisher(cfg, endpoint, store, store, logger)
	}

	// Re-checks never broadcast, so no wallet bridge is wired here.
	coord = coordinator.New(chainClient, poller, nil, store, publisher, logger)

	if queueURL := os.Getenv("SQS_QUEUE_URL"); queueURL != "" {
		coord.Scheduler = scheduler.NewSQSScheduler(sqs.NewFromConfig(cfg), queueURL)
	}
}

// HandleRequest consumes re-check messages and drives each operation to its
// terminal state if the ledger has one.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		log.Printf("Processing message %s", message.MessageId)

		var op models.PendingOperation
		if err := json.Unmarshal([]byte(message.Body), &op); err != nil {
			log.Printf("ERROR: failed to unmarshal pending operation from message %s: %v", message.MessageId, err)
			// Returning an error makes SQS retry the message.
			return err
		}

		// RecheckPending routes provisional entries to the repair pass itself.
		done, err := coord.RecheckPending(ctx, &op)
		if err != nil {
			log.Printf("ERROR: failed to re-check operation %s: %v", op.TxID, err)
			return err
		}
		log.Printf("Operation %s retired=%t", op.TxID, done)
	}
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
