package chain

import (
	"context"
	"log/slog"
	"time"
)

// TerminalState classifies how polling for a transaction ended.
type TerminalState string

const (
	// StateSuccess means the ledger confirmed the transaction.
	StateSuccess TerminalState = "success"
	// StateAbortedByResponse means the contract returned an error.
	StateAbortedByResponse TerminalState = "abort_by_response"
	// StateAbortedByPostCondition means a post-condition check failed.
	StateAbortedByPostCondition TerminalState = "abort_by_post_condition"
	// StateTimeout means polling gave up without a terminal answer. The
	// transaction may still confirm later: callers must treat this as
	// "unknown, check later", never as a definitive failure.
	StateTimeout TerminalState = "timeout"
)

// Aborted reports whether the state is a definitive on-chain failure.
func (s TerminalState) Aborted() bool {
	return s == StateAbortedByResponse || s == StateAbortedByPostCondition
}

// Outcome is the result of confirming a transaction.
type Outcome struct {
	TxID  string
	State TerminalState
	// Value is the uint extracted from a successful receipt, nil when the
	// receipt's shape was not recognized.
	Value *uint64
	// Reason is a best-effort human-readable explanation for aborts.
	Reason string
}

// StatusReader is the slice of the query facade the poller needs.
type StatusReader interface {
	GetTransactionStatus(ctx context.Context, txID string) (*TxStatus, error)
}

const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 30
)

// Poller repeatedly queries transaction status until a terminal state or
// until MaxAttempts is exhausted. It is stateless per call: callers that
// need idempotent re-confirmation cache the Outcome themselves.
type Poller struct {
	Client      StatusReader
	Interval    time.Duration
	MaxAttempts int
	Log         *slog.Logger

	// sleep is injectable for tests; it must honor ctx cancellation so an
	// abandoned Confirm does not leak a timer.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a Poller with the default cadence (2s x 30 attempts).
func NewPoller(client StatusReader, log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}
	return &Poller{
		Client:      client,
		Interval:    DefaultPollInterval,
		MaxAttempts: DefaultMaxAttempts,
		Log:         log,
		sleep:       sleepCtx,
	}
}

// Confirm polls the status endpoint for txID until it reaches a terminal
// state. The only error it returns is ctx cancellation; every ledger answer,
// including exhaustion of attempts, is expressed as an Outcome.
func (p *Poller) Confirm(ctx context.Context, txID string) (*Outcome, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		status, err := p.Client.GetTransactionStatus(ctx, txID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Transient query failures do not end the poll; the attempt
			// still counts against the budget.
			p.Log.Warn("transaction status query failed", "tx_id", txID, "attempt", attempt, "error", err)
		} else {
			switch status.State {
			case "success":
				return &Outcome{
					TxID:  txID,
					State: StateSuccess,
					Value: ExtractOkUint(status.ResultRepr),
				}, nil
			case "abort_by_response":
				return &Outcome{
					TxID:   txID,
					State:  StateAbortedByResponse,
					Reason: ReasonFromReceipt(status.ResultRepr),
				}, nil
			case "abort_by_post_condition":
				return &Outcome{
					TxID:   txID,
					State:  StateAbortedByPostCondition,
					Reason: ReasonFromReceipt(status.ResultRepr),
				}, nil
			}
		}

		if attempt < attempts {
			if err := sleep(ctx, interval); err != nil {
				return nil, err
			}
		}
	}

	return &Outcome{TxID: txID, State: StateTimeout}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
