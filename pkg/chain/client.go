// Package chain is the coordinator's read-side view of the ledger: a typed
// query facade over the marketplace contract's read-only functions, and the
// confirmation poller that tracks broadcast transactions to a terminal state.
// All query traffic flows through the rate-limited request queue.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/staynest/booking-coordinator/pkg/models"
	"github.com/staynest/booking-coordinator/pkg/queue"
	"github.com/valyala/fastjson"
)

// HTTPDoer is the subset of http.Client the facade needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the typed read facade over the ledger's query service. It never
// mutates chain state.
type Client struct {
	HTTP            HTTPDoer
	BaseURL         string
	ContractAddress string
	ContractName    string
	Queue           *queue.Queue
	Log             *slog.Logger
}

// NewClient creates a query facade whose calls are paced by q.
func NewClient(httpClient HTTPDoer, baseURL, contractAddress, contractName string, q *queue.Queue, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		HTTP:            httpClient,
		BaseURL:         baseURL,
		ContractAddress: contractAddress,
		ContractName:    contractName,
		Queue:           q,
		Log:             log,
	}
}

// callRead invokes a read-only contract function through the request queue
// and returns the raw response body. The query service answers with
// {"okay":true,"result":...} or {"okay":false,"cause":"..."}.
func (c *Client) callRead(ctx context.Context, function string, args []string) ([]byte, error) {
	value, err := c.Queue.Submit(ctx, func(ctx context.Context) (interface{}, error) {
		url := fmt.Sprintf("%s/v2/contracts/call-read/%s/%s/%s",
			c.BaseURL, c.ContractAddress, c.ContractName, function)

		reqBody, err := json.Marshal(map[string]interface{}{"arguments": args})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal call arguments: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
		if err != nil {
			return nil, fmt.Errorf("failed to build read request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return nil, fmt.Errorf("read call %s failed: %w", function, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, &RateLimitError{StatusCode: resp.StatusCode}
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("read call %s returned status %d", function, resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]byte), nil
}

// readResult unwraps the query service envelope and returns the decoded
// result value. A null result maps to ErrNotFound.
func (c *Client) readResult(ctx context.Context, function string, args []string) (*fastjson.Value, error) {
	body, err := c.callRead(ctx, function, args)
	if err != nil {
		return nil, err
	}

	parsed, err := fastjson.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("query service returned malformed JSON for %s: %w", function, err)
	}

	if !parsed.GetBool("okay") {
		cause := string(parsed.GetStringBytes("cause"))
		return nil, fmt.Errorf("read call %s rejected: %s", function, cause)
	}

	result := parsed.Get("result")
	if result == nil || result.Type() == fastjson.TypeNull {
		return nil, ErrNotFound
	}
	return result, nil
}

// uintResult tolerates the two shapes counters come back in: a bare number
// or an object wrapping one.
func uintResult(v *fastjson.Value) uint64 {
	if v.Type() == fastjson.TypeNumber {
		n, _ := v.Uint64()
		return n
	}
	return v.GetUint64("value")
}

// GetProperty fetches a property record by id.
func (c *Client) GetProperty(ctx context.Context, id uint64) (*models.Property, error) {
	result, err := c.readResult(ctx, "get-property", []string{fmt.Sprintf("u%d", id)})
	if err != nil {
		return nil, err
	}
	return &models.Property{
		ID:              id,
		Owner:           string(result.GetStringBytes("owner")),
		PricePerNight:   result.GetUint64("price_per_night"),
		LocationTag:     result.GetUint64("location_tag"),
		MetadataRef:     string(result.GetStringBytes("metadata_ref")),
		Active:          result.GetBool("active"),
		CreatedAtHeight: result.GetUint64("created_at_height"),
	}, nil
}

// GetBooking fetches a booking record by id.
func (c *Client) GetBooking(ctx context.Context, id uint64) (*models.Booking, error) {
	result, err := c.readResult(ctx, "get-booking", []string{fmt.Sprintf("u%d", id)})
	if err != nil {
		return nil, err
	}
	booking := &models.Booking{
		ID:              id,
		PropertyID:      result.GetUint64("property_id"),
		Guest:           string(result.GetStringBytes("guest")),
		Host:            string(result.GetStringBytes("host")),
		CheckInHeight:   result.GetUint64("check_in_height"),
		CheckOutHeight:  result.GetUint64("check_out_height"),
		TotalAmount:     result.GetUint64("total_amount"),
		PlatformFee:     result.GetUint64("platform_fee"),
		HostPayout:      result.GetUint64("host_payout"),
		EscrowedAmount:  result.GetUint64("escrowed_amount"),
		Status:          bookingStatusFromCode(result.GetUint64("status")),
		CreatedAtHeight: result.GetUint64("created_at_height"),
	}
	return booking, nil
}

// GetDispute fetches the dispute attached to a booking, if any.
func (c *Client) GetDispute(ctx context.Context, bookingID uint64) (*models.Dispute, error) {
	result, err := c.readResult(ctx, "get-dispute", []string{fmt.Sprintf("u%d", bookingID)})
	if err != nil {
		return nil, err
	}
	return &models.Dispute{
		BookingID:        bookingID,
		RaisedBy:         string(result.GetStringBytes("raised_by")),
		Reason:           string(result.GetStringBytes("reason")),
		Evidence:         string(result.GetStringBytes("evidence")),
		Status:           disputeStatusFromCode(result.GetUint64("status")),
		Resolution:       string(result.GetStringBytes("resolution")),
		RefundPercentage: result.GetUint64("refund_percentage"),
		CreatedAtHeight:  result.GetUint64("created_at_height"),
		ResolvedAtHeight: result.GetUint64("resolved_at_height"),
	}, nil
}

// GetUserStats fetches the aggregate reputation record for an address.
func (c *Client) GetUserStats(ctx context.Context, address string) (*models.UserStats, error) {
	result, err := c.readResult(ctx, "get-user-stats", []string{address})
	if err != nil {
		return nil, err
	}
	return &models.UserStats{
		Address:         address,
		BookingsAsGuest: result.GetUint64("bookings_as_guest"),
		BookingsAsHost:  result.GetUint64("bookings_as_host"),
		ReviewCount:     result.GetUint64("review_count"),
		RatingSum:       result.GetUint64("rating_sum"),
	}, nil
}

// GetPropertyCounter returns the id the contract will assign to the next
// listed property.
func (c *Client) GetPropertyCounter(ctx context.Context) (uint64, error) {
	result, err := c.readResult(ctx, "get-property-counter", nil)
	if err != nil {
		return 0, err
	}
	return uintResult(result), nil
}

// GetBookingCounter returns the id the contract will assign to the next
// created booking.
func (c *Client) GetBookingCounter(ctx context.Context) (uint64, error) {
	result, err := c.readResult(ctx, "get-booking-counter", nil)
	if err != nil {
		return 0, err
	}
	return uintResult(result), nil
}

// GetGuestBookingIDs returns the ids of all bookings where the address is
// the guest.
func (c *Client) GetGuestBookingIDs(ctx context.Context, guest string) ([]uint64, error) {
	result, err := c.readResult(ctx, "get-guest-bookings", []string{guest})
	if err != nil {
		return nil, err
	}
	items := result.GetArray("ids")
	if items == nil {
		items = result.GetArray()
	}
	ids := make([]uint64, 0, len(items))
	for _, item := range items {
		n, err := item.Uint64()
		if err != nil {
			continue
		}
		ids = append(ids, n)
	}
	return ids, nil
}

// GetCurrentHeight returns the chain tip height, the ledger's logical clock.
func (c *Client) GetCurrentHeight(ctx context.Context) (uint64, error) {
	value, err := c.Queue.Submit(ctx, func(ctx context.Context) (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v2/info", nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build info request: %w", err)
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return nil, fmt.Errorf("info call failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, &RateLimitError{StatusCode: resp.StatusCode}
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("info call returned status %d", resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read info response: %w", err)
		}
		return body, nil
	})
	if err != nil {
		return 0, err
	}

	parsed, err := fastjson.ParseBytes(value.([]byte))
	if err != nil {
		return 0, fmt.Errorf("info endpoint returned malformed JSON: %w", err)
	}
	return parsed.GetUint64("stacks_tip_height"), nil
}

// TxStatus is the ledger's view of a submitted transaction.
type TxStatus struct {
	TxID       string
	State      string
	ResultRepr string
}

// GetTransactionStatus queries the transaction-status endpoint by handle.
func (c *Client) GetTransactionStatus(ctx context.Context, txID string) (*TxStatus, error) {
	value, err := c.Queue.Submit(ctx, func(ctx context.Context) (interface{}, error) {
		url := fmt.Sprintf("%s/extended/v1/tx/%s", c.BaseURL, txID)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build status request: %w", err)
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return nil, fmt.Errorf("status call failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, &RateLimitError{StatusCode: resp.StatusCode}
		}
		if resp.StatusCode == http.StatusNotFound {
			// The node may not have indexed the transaction yet; treat as
			// still pending rather than failing the poll.
			return []byte(`{"tx_status":"pending"}`), nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status call returned status %d", resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read status response: %w", err)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}

	parsed, err := fastjson.ParseBytes(value.([]byte))
	if err != nil {
		return nil, fmt.Errorf("status endpoint returned malformed JSON: %w", err)
	}
	return &TxStatus{
		TxID:       txID,
		State:      string(parsed.GetStringBytes("tx_status")),
		ResultRepr: string(parsed.GetStringBytes("tx_result", "repr")),
	}, nil
}

// Status codes as the contract stores them.
func bookingStatusFromCode(code uint64) models.BookingStatus {
	switch code {
	case 1:
		return models.BookingConfirmed
	case 2:
		return models.BookingCompleted
	case 3:
		return models.BookingCancelled
	default:
		return models.BookingStatus(fmt.Sprintf("UNKNOWN(%d)", code))
	}
}

func disputeStatusFromCode(code uint64) models.DisputeStatus {
	switch code {
	case 1:
		return models.DisputePending
	case 2:
		return models.DisputeResolved
	case 3:
		return models.DisputeRejected
	default:
		return models.DisputeStatus(fmt.Sprintf("UNKNOWN(%d)", code))
	}
}
