// Package chainrpc is the RPC collaborator spec.md §6 names: per-pool
// balances, gas price, native USD price, and latest block height.
// Grounded on the teacher's internal/exchange/httpclient.go (shared HTTP
// client, JSON decode, context-aware requests) generalized from a
// CEX REST client to a JSON-RPC chain client, wrapped in the teacher's
// pkg/retry and pkg/ratelimit exactly as exchange adapters wrap their
// HTTP calls.
package chainrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tychoorderbook/internal/apperr"
	"tychoorderbook/internal/domain"
	"tychoorderbook/internal/metrics"
	"tychoorderbook/pkg/ratelimit"
	"tychoorderbook/pkg/retry"
)

// Client is a JSON-RPC client for the pool-balance/gas/price/block
// collaborator.
type Client struct {
	url        string
	httpClient *http.Client
	limiter    *ratelimit.RateLimiter
	retryCfg   retry.Config
}

// New builds a Client against the given RPC URL.
func New(url string, timeout time.Duration, rateLimit, burst float64) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    ratelimit.NewRateLimiter(rateLimit, burst),
		retryCfg:   retry.NetworkConfig(),
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	started := time.Now()
	retries := 0
	cfg := c.retryCfg
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		retries = attempt
	}

	err := retry.Do(ctx, func() error {
		body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
		if err != nil {
			return retry.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, jsonReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return apperr.Wrap(apperr.CodeRPCUnavailable, "rpc request failed", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return apperr.New(apperr.CodeRPCUnavailable, fmt.Sprintf("rpc returned status %d", resp.StatusCode))
		}

		var rr rpcResponse
		if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
			return apperr.Wrap(apperr.CodeRPCUnavailable, "failed to decode rpc response", err)
		}
		if rr.Error != nil {
			return apperr.New(apperr.CodeRPCUnavailable, rr.Error.Message)
		}
		return json.Unmarshal(rr.Result, out)
	}, cfg)

	metrics.RecordRPCCall(method, float64(time.Since(started).Microseconds())/1000, retries)
	return err
}

// GetComponentBalances fetches the raw reserve of `token` held by the
// given pool address, tolerating failure per spec.md (the caller decides
// whether to degrade the build or fail it).
func (c *Client) GetComponentBalances(ctx context.Context, poolAddress, token string, decimals uint8) (domain.RawAmount, error) {
	var hex string
	if err := c.call(ctx, "eth_call", []interface{}{
		map[string]string{"to": token, "data": balanceOfCalldata(poolAddress)},
		"latest",
	}, &hex); err != nil {
		return domain.RawAmount{}, err
	}
	return parseHexRawAmount(hex), nil
}

// GetGasPrice returns the current gas price in gwei.
func (c *Client) GetGasPrice(ctx context.Context) (float64, error) {
	var hex string
	if err := c.call(ctx, "eth_gasPrice", nil, &hex); err != nil {
		return 0, err
	}
	return parseHexRawAmount(hex).ToFloat(9), nil
}

// GetNativeUSDPrice returns the current USD price of the chain's native
// asset. In absence of an on-chain oracle wired here, this calls out to
// the same RPC endpoint's price extension method; a production deployment
// would point this at a dedicated price feed.
func (c *Client) GetNativeUSDPrice(ctx context.Context) (float64, error) {
	var price float64
	if err := c.call(ctx, "tycho_nativeUsdPrice", nil, &price); err != nil {
		return 0, err
	}
	return price, nil
}

// GetLatestBlock returns the current chain head's block height.
func (c *Client) GetLatestBlock(ctx context.Context) (uint64, error) {
	var hex string
	if err := c.call(ctx, "eth_blockNumber", nil, &hex); err != nil {
		return 0, err
	}
	return uint64(parseHexRawAmount(hex).ToFloat(0)), nil
}
