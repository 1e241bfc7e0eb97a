package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/staynest/booking-coordinator/pkg/chain"
	"github.com/staynest/booking-coordinator/pkg/coordinator"
	"github.com/staynest/booking-coordinator/pkg/handlers"
	"github.com/staynest/booking-coordinator/pkg/metadata"
	"github.com/staynest/booking-coordinator/pkg/queue"
	"github.com/staynest/booking-coordinator/pkg/scheduler"
	"github.com/staynest/booking-coordinator/pkg/storage"
	"github.com/staynest/booking-coordinator/pkg/storage/bolt"
	"github.com/staynest/booking-coordinator/pkg/storage/dynamodb"
	"github.com/staynest/booking-coordinator/pkg/tx"
	"github.com/staynest/booking-coordinator/pkg/websockets"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ledgerURL := os.Getenv("LEDGER_API_URL")
	contractAddress := os.Getenv("CONTRACT_ADDRESS")
	contractName := os.Getenv("CONTRACT_NAME")
	bridgeURL := os.Getenv("WALLET_BRIDGE_URL")
	if ledgerURL == "" || contractAddress == "" || contractName == "" || bridgeURL == "" {
		log.Fatal("LEDGER_API_URL, CONTRACT_ADDRESS, CONTRACT_NAME and WALLET_BRIDGE_URL must all be set")
	}

	ctx := context.Background()
	httpClient := &http.Client{Timeout: 30 * time.Second}

	requestQueue := queue.New(ctx, queue.WithLogger(logger))
	chainClient := chain.NewClient(httpClient, ledgerURL, contractAddress, contractName, requestQueue, logger)
	poller := chain.NewPoller(chainClient, logger)
	signer := tx.NewHTTPSigner(httpClient, bridgeURL)

	// Pending-operation store: DynamoDB for the hosted deployment, bbolt for
	// a single host.
	var store storage.PendingStore
	var hub *websockets.LocalHub
	var recheckScheduler scheduler.Scheduler
	var publisher websockets.Publisher

	switch backend := os.Getenv("STORE_BACKEND"); backend {
	case "", "bolt":
		path := os.Getenv("BOLT_PATH")
		if path == "" {
			path = "coordinator.db"
		}
		boltStore, err := bolt.Open(path)
		if err != nil {
			log.Fatalf("Failed to open bolt store: %v", err)
		}
		defer boltStore.Close()
		store = boltStore

		// Single-host mode serves the websocket clients itself.
		hub = websockets.NewLocalHub(logger)
		publisher = hub

	case "dynamodb":
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatalf("Unable to load SDK config: %v", err)
		}

		pendingTable := os.Getenv("DYNAMODB_PENDING_TABLE_NAME")
		connectionsTable := os.Getenv("DYNAMODB_CONNECTIONS_TABLE_NAME")
		if pendingTable == "" || connectionsTable == "" {
			log.Fatal("DYNAMODB_PENDING_TABLE_NAME and DYNAMODB_CONNECTIONS_TABLE_NAME must be set")
		}
		ddbStore := dynamodb.New(awsdynamodb.NewFromConfig(cfg), pendingTable, connectionsTable)
		store = ddbStore

		if queueURL := os.Getenv("SQS_QUEUE_URL"); queueURL != "" {
			recheckScheduler = scheduler.NewSQSScheduler(sqs.NewFromConfig(cfg), queueURL)
		}
		if endpoint := os.Getenv("WEBSOCKET_API_ENDPOINT"); endpoint != "" {
			publisher = websockets.NewAPIGatewayPublisher(cfg, endpoint, ddbStore, ddbStore, logger)
		}

	default:
		log.Fatalf("Unknown STORE_BACKEND %q", backend)
	}

	coord := coordinator.New(chainClient, poller, signer, store, publisher, logger)
	coord.Scheduler = recheckScheduler

	var meta *metadata.Client
	if gateway := os.Getenv("METADATA_GATEWAY_URL"); gateway != "" {
		meta = metadata.NewClient(httpClient, gateway,
			os.Getenv("METADATA_FALLBACK_GATEWAY_URL"),
			os.Getenv("METADATA_UPLOAD_URL"), logger)
	}

	handler := handlers.NewHandler(coord, meta, logger)

	router := chi.NewRouter()
	router.Mount("/", handler.Routes())
	if hub != nil {
		router.Get("/ws", hub.ServeHTTP)
	}

	// Periodic reconciliation for deployments without the lambda pipeline.
	if recheckScheduler == nil {
		go func() {
			ticker := time.NewTicker(coordinator.DefaultStaleAge)
			defer ticker.Stop()
			for range ticker.C {
				if _, err := coord.ReconcileStale(ctx, coordinator.DefaultStaleAge); err != nil {
					logger.Error("reconciliation sweep failed", "error", err)
				}
			}
		}()
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting coordinator on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
