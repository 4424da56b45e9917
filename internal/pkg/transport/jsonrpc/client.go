// Package jsonrpc provides a generic JSON-RPC 2.0 client over HTTP. Unlike a
// connection bound to a single provider, the endpoint URL is supplied on
// every call: callers that rotate through pools of interchangeable public
// nodes reuse one client for all of them.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ErrProviderReturnedError indicates that the remote JSON-RPC server returned
// an error response.
var ErrProviderReturnedError = errors.New("provider error")

// response represents a standard JSON-RPC 2.0 response.
type response struct {
	JsonRPC string `json:"jsonrpc"` // protocol version (usually "2.0")
	Error   *struct {
		Code    int    `json:"code"`    // error code defined by the spec or the server
		Message string `json:"message"` // human-readable error message
	} `json:"error"`
	Result json.RawMessage `json:"result"` // raw result payload
}

// Err returns an error if the response includes a JSON-RPC error object,
// wrapping ErrProviderReturnedError with the code and message.
func (r response) Err() error {
	if r.Error == nil {
		return nil
	}

	return fmt.Errorf("%w: [%d] - %s", ErrProviderReturnedError, r.Error.Code, r.Error.Message)
}

// Client defines the interface for a generic JSON-RPC client. It abstracts
// the underlying implementation to facilitate mocking in tests.
type Client interface {
	// Call sends a JSON-RPC request with the given method and parameters to
	// the endpoint URL. It returns the raw JSON result or an error if the
	// request or response fails.
	Call(ctx context.Context, endpoint, method string, params ...any) (json.RawMessage, error)
}

// client is the default implementation of the Client interface.
type client struct {
	httpClient *http.Client // HTTP client used to perform requests
}

// Compile-time assertion that client implements the Client interface.
var _ Client = (*client)(nil)

// Call sends a JSON-RPC request to endpoint with the given method and
// parameters. The request id is a fresh UUID string. A nil params slice is
// encoded as an empty array, which every mainstream node accepts. A single
// map parameter is sent as a named-params object, which servers like NEAR's
// require for most methods.
func (c *client) Call(ctx context.Context, endpoint, method string, params ...any) (json.RawMessage, error) {
	var encodedParams any = params
	if params == nil {
		encodedParams = []any{}
	} else if len(params) == 1 {
		if _, ok := params[0].(map[string]any); ok {
			encodedParams = params[0]
		}
	}

	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      uuid.NewString(),
		"method":  method,
		"params":  encodedParams,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var data response
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}

	return data.Result, data.Err()
}

// NewClient constructs a Client that performs JSON-RPC requests using the
// given HTTP client.
func NewClient(httpClient *http.Client) *client {
	return &client{
		httpClient: httpClient,
	}
}
