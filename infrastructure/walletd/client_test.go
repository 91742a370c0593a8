package walletd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendTransfer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transfer", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req transferRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "EQWinner", req.ToAddress)
		assert.Equal(t, int64(10000000000), req.Amount)
		assert.Equal(t, "payout slots", req.Comment)

		json.NewEncoder(w).Encode(transferResponse{Ref: "lt:12345:hash:abc"})
	}))
	defer server.Close()

	client := New(server.URL)

	ref, err := client.SendTransfer(context.Background(), "EQWinner", 10000000000, "payout slots")
	require.NoError(t, err)
	assert.Equal(t, "lt:12345:hash:abc", ref)
}

func TestClient_SendTransfer_RejectionIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(transferResponse{Error: "insufficient balance"})
	}))
	defer server.Close()

	client := New(server.URL)

	_, err := client.SendTransfer(context.Background(), "EQWinner", 1, "payout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient balance")
	assert.Equal(t, int32(1), calls.Load(),
		"a response from walletd must never be retried, the transfer may have broadcast")
}

func TestClient_SendTransfer_TimeoutIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// Hold the response past the client timeout; the request was
		// delivered and the transfer may be broadcasting
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	client := New(server.URL)
	client.httpClient.Timeout = 50 * time.Millisecond

	_, err := client.SendTransfer(context.Background(), "EQWinner", 1, "payout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transfer state unknown")
	assert.Equal(t, int32(1), calls.Load(),
		"a delivered request that timed out must never be retried, the transfer may have broadcast")
}

func TestClient_SendTransfer_TransportErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// Kill the connection before any response reaches the client
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		json.NewEncoder(w).Encode(transferResponse{Ref: "lt:2:hash:def"})
	}))
	defer server.Close()

	client := New(server.URL)

	ref, err := client.SendTransfer(context.Background(), "EQWinner", 1, "payout")
	require.NoError(t, err)
	assert.Equal(t, "lt:2:hash:def", ref)
	assert.Equal(t, int32(2), calls.Load())
}
