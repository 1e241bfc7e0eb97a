package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/staynest/booking-coordinator/pkg/scheduler"
	"github.com/staynest/booking-coordinator/pkg/storage"
	dydbstore "github.com/staynest/booking-coordinator/pkg/storage/dynamodb"
)

var store storage.PendingStore
var recheckScheduler scheduler.Scheduler

// Operations older than this are considered stuck and re-enqueued for a
// confirmation re-check.
const stalePendingThreshold = 15 * time.Minute

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	queueURL := os.Getenv("SQS_QUEUE_URL")
	if queueURL == "" {
		log.Fatal("SQS_QUEUE_URL environment variable not set")
	}
	recheckScheduler = scheduler.NewSQSScheduler(sqs.NewFromConfig(cfg), queueURL)

	pendingTable := os.Getenv("DYNAMODB_PENDING_TABLE_NAME")
	connectionsTable := os.Getenv("DYNAMODB_CONNECTIONS_TABLE_NAME")
	if pendingTable == "" {
		log.Fatal("DYNAMODB_PENDING_TABLE_NAME environment variable not set")
	}
	store = dydbstore.New(dynamodb.NewFromConfig(cfg), pendingTable, connectionsTable)
}

// HandleRequest is triggered by an EventBridge schedule. It sweeps the
// pending log and enqueues every stale entry for a re-check.
func HandleRequest(ctx context.Context) error {
	log.Println("Sweeping pending log for stale operations...")

	stale, err := store.ListStalePending(ctx, stalePendingThreshold)
	if err != nil {
		log.Printf("ERROR: failed to list stale pending operations: %v", err)
		return err
	}
	if len(stale) == 0 {
		log.Println("No stale pending operations found.")
		return nil
	}

	log.Printf("Found %d stale operations. Enqueuing re-checks...", len(stale))
	for i := range stale {
		op := stale[i]
		if err := recheckScheduler.ScheduleRecheck(ctx, &op, 0); err != nil {
			log.Printf("ERROR: failed to enqueue re-check for %s: %v", op.TxID, err)
			// Don't let one failure stop the whole batch.
			continue
		}
		log.Printf("Enqueued re-check for %s", op.TxID)
	}

	log.Println("Sweep finished.")
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
