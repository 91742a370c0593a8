// Package toncenter implements the chain reader against the toncenter.com
// HTTP API (v2). Only the two read endpoints the settlement engine needs are
// wrapped: address balance and recent transactions.
package toncenter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"croupier/domain/entities"
	"croupier/domain/interfaces"
)

// Client talks to the toncenter HTTP API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a toncenter client. The API key may be empty for the public
// rate-limited tier.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

var _ interfaces.ChainReader = (*Client)(nil)

type apiResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
	Code   int             `json:"code"`
}

type rawMessage struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Value       string `json:"value"`
	Message     string `json:"message"`
}

type rawTransaction struct {
	TransactionID struct {
		Hash string `json:"hash"`
		Lt   string `json:"lt"`
	} `json:"transaction_id"`
	Utime int64       `json:"utime"`
	InMsg *rawMessage `json:"in_msg"`
}

// GetBalance returns the wallet balance in nanotons
func (c *Client) GetBalance(ctx context.Context, address string) (int64, error) {
	query := url.Values{"address": {address}}

	var result string
	if err := c.get(ctx, "/api/v2/getAddressBalance", query, &result); err != nil {
		return 0, err
	}

	balance, err := strconv.ParseInt(result, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse balance %q: %w", result, err)
	}

	return balance, nil
}

// GetRecentTransactions returns the most recent ledger entries for the
// wallet, newest first
func (c *Client) GetRecentTransactions(ctx context.Context, address string, limit int) ([]*entities.ChainTransaction, error) {
	query := url.Values{
		"address": {address},
		"limit":   {strconv.Itoa(limit)},
	}

	var raw []rawTransaction
	if err := c.get(ctx, "/api/v2/getTransactions", query, &raw); err != nil {
		return nil, err
	}

	txs := make([]*entities.ChainTransaction, 0, len(raw))
	for _, r := range raw {
		tx := &entities.ChainTransaction{
			Hash:      r.TransactionID.Hash,
			Timestamp: time.Unix(r.Utime, 0),
		}
		// An inbound transfer carries an in_msg with a source and a value;
		// outbound and internal bookkeeping entries do not.
		if r.InMsg != nil && r.InMsg.Source != "" {
			amount, err := strconv.ParseInt(r.InMsg.Value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse transaction value %q: %w", r.InMsg.Value, err)
			}
			tx.Inbound = amount > 0
			tx.Amount = amount
			tx.SenderAddress = r.InMsg.Source
			tx.Memo = r.InMsg.Message
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// get performs a toncenter API call and decodes the result field into out
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("toncenter request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode toncenter response: %w", err)
	}

	if !envelope.OK {
		return fmt.Errorf("toncenter API error (code %d): %s", envelope.Code, envelope.Error)
	}

	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("failed to decode toncenter result: %w", err)
	}

	return nil
}
