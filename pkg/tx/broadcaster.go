package tx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// BroadcastResult is the discriminated outcome of handing a payload to the
// wallet boundary: either the user signed and a transaction handle exists,
// or the user declined. Declining is not an error.
type BroadcastResult struct {
	TxID      string
	Cancelled bool
}

// Broadcaster is the wallet boundary: the only way transactions leave the
// coordinator. Implementations sign and broadcast the described call.
type Broadcaster interface {
	Broadcast(ctx context.Context, payload *Payload) (*BroadcastResult, error)
}

// HTTPSigner broadcasts through a wallet bridge service: the bridge prompts
// the user, signs on approval, and answers with either a transaction id or
// a cancelled flag.
type HTTPSigner struct {
	HTTP    interface {
		Do(req *http.Request) (*http.Response, error)
	}
	BridgeURL string
}

// NewHTTPSigner creates a wallet-bridge broadcaster.
func NewHTTPSigner(httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}, bridgeURL string) *HTTPSigner {
	return &HTTPSigner{HTTP: httpClient, BridgeURL: bridgeURL}
}

// Make sure we conform to the interface
var _ Broadcaster = (*HTTPSigner)(nil)

type bridgeResponse struct {
	TxID      string `json:"txid"`
	Cancelled bool   `json:"cancelled"`
}

// Broadcast posts the payload to the bridge and waits for the user's
// decision.
func (s *HTTPSigner) Broadcast(ctx context.Context, payload *Payload) (*BroadcastResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BridgeURL+"/v1/sign-and-broadcast", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build broadcast request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wallet bridge call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wallet bridge returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read bridge response: %w", err)
	}

	var decoded bridgeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode bridge response: %w", err)
	}

	if decoded.Cancelled {
		return &BroadcastResult{Cancelled: true}, nil
	}
	if decoded.TxID == "" {
		return nil, fmt.Errorf("wallet bridge returned neither a txid nor a cancellation")
	}
	return &BroadcastResult{TxID: decoded.TxID}, nil
}
