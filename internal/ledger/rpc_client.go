package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lending-engine/internal/circuitbreaker"
	"github.com/lending-engine/internal/types"
)

// lamportsPerUnit converts raw native balance units to whole tokens.
const lamportsPerUnit = 1_000_000_000

// RPCClient implements Client against a JSON-RPC ledger node.
type RPCClient struct {
	endpoint    string
	client      *http.Client
	rateLimiter *rateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	requestID   int64
	mu          sync.Mutex
}

// RPCClientConfig configures an RPCClient.
type RPCClientConfig struct {
	Endpoint       string
	RequestTimeout time.Duration
	RequestsPerSec float64
	Breaker        *circuitbreaker.CircuitBreaker
}

// NewRPCClient creates a ledger RPC client.
func NewRPCClient(cfg *RPCClientConfig) *RPCClient {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}
	return &RPCClient{
		endpoint:    cfg.Endpoint,
		client:      &http.Client{Timeout: timeout},
		rateLimiter: newRateLimiter(rps),
		breaker:     cfg.Breaker,
	}
}

// rateLimiter implements a simple token bucket rate limiter
type rateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newRateLimiter(requestsPerSecond float64) *rateLimiter {
	return &rateLimiter{
		tokens:     requestsPerSecond, // start full
		maxTokens:  requestsPerSecond,
		refillRate: requestsPerSecond,
		lastRefill: time.Now(),
	}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Refill tokens based on elapsed time
	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.tokens += elapsed * r.refillRate
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
	r.lastRefill = now

	if r.tokens < 1 {
		waitTime := time.Duration((1 - r.tokens) / r.refillRate * float64(time.Second))
		r.mu.Unlock()
		time.Sleep(waitTime)
		r.mu.Lock()
		r.tokens = 0
		r.lastRefill = time.Now()
	} else {
		r.tokens--
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC request. The circuit breaker, when configured,
// wraps the whole round trip so a flapping node trips fast instead of
// timing out every request.
func (c *RPCClient) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	do := func() error {
		return c.doCall(ctx, method, params, out)
	}
	if c.breaker != nil {
		return c.breaker.Execute(do)
	}
	return do()
}

func (c *RPCClient) doCall(ctx context.Context, method string, params []interface{}, out interface{}) error {
	c.rateLimiter.wait()

	c.mu.Lock()
	c.requestID++
	id := c.requestID
	c.mu.Unlock()

	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &LedgerError{Op: method, Err: fmt.Errorf("%w: %v", ErrProviderUnavailable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &LedgerError{Op: method, Err: fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable, resp.StatusCode, string(body))}
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return &LedgerError{Op: method, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if rpcResp.Error != nil {
		return &LedgerError{Op: method, Err: fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)}
	}

	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return &LedgerError{Op: method, Err: fmt.Errorf("failed to decode result: %w", err)}
		}
	}
	return nil
}

// signatureInfo is one entry from getSignaturesForAddress
type signatureInfo struct {
	Signature string          `json:"signature"`
	BlockTime int64           `json:"blockTime"`
	Err       json.RawMessage `json:"err"`
}

// transactionDetail is the subset of getTransaction we consume: the account
// list (first key is the fee payer / originating party) and the error field.
type transactionDetail struct {
	Transaction struct {
		Message struct {
			AccountKeys []string `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
	Meta struct {
		Err json.RawMessage `json:"err"`
	} `json:"meta"`
}

// FetchTransactionHistory retrieves up to maxCount recent transactions for an
// address. Details are fetched sequentially per signature; callers sampling a
// small window keep this cheap.
func (c *RPCClient) FetchTransactionHistory(ctx context.Context, address string, maxCount int) ([]*Transaction, error) {
	var sigs []signatureInfo
	params := []interface{}{address, map[string]interface{}{"limit": maxCount}}
	if err := c.call(ctx, "getSignaturesForAddress", params, &sigs); err != nil {
		return nil, err
	}

	txs := make([]*Transaction, 0, len(sigs))
	for _, sig := range sigs {
		var detail transactionDetail
		detailParams := []interface{}{sig.Signature, map[string]interface{}{"encoding": "json"}}
		if err := c.call(ctx, "getTransaction", detailParams, &detail); err != nil {
			return nil, err
		}

		tx := &Transaction{
			Signature: sig.Signature,
			BlockTime: sig.BlockTime,
			Failed:    !isNullJSON(detail.Meta.Err) || !isNullJSON(sig.Err),
		}
		keys := detail.Transaction.Message.AccountKeys
		if len(keys) > 0 {
			tx.Source = keys[0]
		}
		if len(keys) > 1 {
			tx.Destination = keys[1]
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// balanceResult wraps the getBalance response
type balanceResult struct {
	Value int64 `json:"value"`
}

// GetBalance retrieves the native balance for an address in whole tokens.
func (c *RPCClient) GetBalance(ctx context.Context, address string) (float64, error) {
	var result balanceResult
	if err := c.call(ctx, "getBalance", []interface{}{address}, &result); err != nil {
		return 0, err
	}
	return float64(result.Value) / lamportsPerUnit, nil
}

// tokenAccountsResult wraps getTokenAccountsByOwner with parsed encoding
type tokenAccountsResult struct {
	Value []struct {
		Account struct {
			Data struct {
				Parsed struct {
					Info struct {
						TokenAmount struct {
							UIAmount float64 `json:"uiAmount"`
						} `json:"tokenAmount"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"account"`
	} `json:"value"`
}

// GetTokenBalance retrieves the balance of a token (by mint) for an address,
// summed across the owner's token accounts.
func (c *RPCClient) GetTokenBalance(ctx context.Context, address, token string) (float64, error) {
	var result tokenAccountsResult
	params := []interface{}{
		address,
		map[string]interface{}{"mint": token},
		map[string]interface{}{"encoding": "jsonParsed"},
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return 0, err
	}

	var total float64
	for _, acct := range result.Value {
		total += acct.Account.Data.Parsed.Info.TokenAmount.UIAmount
	}
	return total, nil
}

// SubmitTransaction submits a signed transaction and returns its signature.
func (c *RPCClient) SubmitTransaction(ctx context.Context, signedTx string) (string, error) {
	var signature string
	params := []interface{}{signedTx, map[string]interface{}{"encoding": "base64"}}
	if err := c.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// statusResult wraps getSignatureStatuses
type statusResult struct {
	Value []*struct {
		ConfirmationStatus string          `json:"confirmationStatus"`
		Err                json.RawMessage `json:"err"`
	} `json:"value"`
}

// GetTransactionStatus reports the confirmation state for a signature.
// A signature the ledger has not seen yet reports as pending.
func (c *RPCClient) GetTransactionStatus(ctx context.Context, signature string) (types.ConfirmationState, error) {
	var result statusResult
	params := []interface{}{[]string{signature}}
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return types.ConfirmationPending, err
	}

	if len(result.Value) == 0 || result.Value[0] == nil {
		return types.ConfirmationPending, nil
	}

	status := result.Value[0]
	if !isNullJSON(status.Err) {
		return types.ConfirmationErrored, nil
	}
	if status.ConfirmationStatus == "finalized" || status.ConfirmationStatus == "confirmed" {
		return types.ConfirmationOK, nil
	}
	return types.ConfirmationPending, nil
}

// isNullJSON reports whether a raw JSON field is absent or null.
func isNullJSON(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
