// Package rest provides a small JSON-over-HTTP helper for explorer-style
// and chain-native REST services. It complements the jsonrpc package for
// upstreams that expose GET/POST resources instead of JSON-RPC methods.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrUnexpectedStatus indicates the upstream answered with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected http status")

// ErrResourceNotFound indicates the upstream answered 404 for the resource.
var ErrResourceNotFound = errors.New("resource not found")

// Client defines the interface for the REST helper. It abstracts the
// underlying implementation to facilitate mocking in tests.
type Client interface {
	// Get performs a GET request against url and decodes the JSON body into out.
	Get(ctx context.Context, url string, out any) error

	// Post performs a POST request with a JSON-encoded body and decodes the
	// JSON response into out.
	Post(ctx context.Context, url string, body, out any) error
}

// client is the default implementation of the Client interface.
type client struct {
	httpClient *http.Client // HTTP client used to perform requests
}

// Compile-time assertion that client implements the Client interface.
var _ Client = (*client)(nil)

// Get performs a GET request and decodes the JSON response into out.
// A 404 status maps to ErrResourceNotFound; any other non-2xx status maps
// to ErrUnexpectedStatus carrying the code.
func (c *client) Get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	return c.do(req, out)
}

// Post performs a POST request with a JSON body and decodes the JSON
// response into out. Status handling matches Get.
func (c *client) Post(ctx context.Context, url string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, res.Body)
		return ErrResourceNotFound
	case res.StatusCode < 200 || res.StatusCode > 299:
		io.Copy(io.Discard, res.Body)
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)
	}

	if out == nil {
		io.Copy(io.Discard, res.Body)
		return nil
	}

	return json.NewDecoder(res.Body).Decode(out)
}

// NewClient constructs a Client that performs REST requests using the given
// HTTP client.
func NewClient(httpClient *http.Client) *client {
	return &client{
		httpClient: httpClient,
	}
}
