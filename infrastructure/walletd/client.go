// Package walletd implements the wallet sender against a local walletd
// sidecar. The sidecar holds the signing key; this process never sees it.
package walletd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"croupier/domain/interfaces"
)

// Client talks to the walletd HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a walletd client
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

var _ interfaces.WalletSender = (*Client)(nil)

type transferRequest struct {
	ToAddress string `json:"to_address"`
	Amount    int64  `json:"amount"`
	Comment   string `json:"comment"`
}

type transferResponse struct {
	Ref   string `json:"ref"`
	Error string `json:"error"`
}

// SendTransfer asks walletd to sign and broadcast a transfer. Only transport
// errors before a response arrives are retried: once walletd has answered,
// the transfer may already be on chain, and a blind retry would double-pay.
func (c *Client) SendTransfer(ctx context.Context, toAddress string, amount int64, memo string) (string, error) {
	body, err := json.Marshal(transferRequest{
		ToAddress: toAddress,
		Amount:    amount,
		Comment:   memo,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal transfer request: %w", err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)

	var ref string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transfer", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// A timeout means the request may have reached walletd and the
			// transfer may be signing or broadcast right now; retrying risks
			// a double payout, so the failure goes straight to reconciliation.
			// Only errors that prove the request was never delivered (refused
			// connection, DNS failure) are safe to retry.
			var netErr net.Error
			if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
				return backoff.Permanent(fmt.Errorf("walletd request timed out, transfer state unknown: %w", err))
			}
			return fmt.Errorf("walletd request failed: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to read walletd response: %w", err))
		}

		var decoded transferResponse
		if err := json.Unmarshal(data, &decoded); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode walletd response: %w", err))
		}

		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("walletd rejected transfer (status %d): %s", resp.StatusCode, decoded.Error))
		}

		ref = decoded.Ref
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return ref, nil
}
