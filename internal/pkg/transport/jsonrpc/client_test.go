package jsonrpc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_Err(t *testing.T) {
	t.Run("returns nil when Error field is nil", func(t *testing.T) {
		resp := response{
			JsonRPC: "2.0",
			Error:   nil,
			Result:  nil,
		}

		err := resp.Err()
		assert.NoError(t, err, "Err() should return nil when Error field is nil")
	})

	t.Run("returns formatted error when Error field is present", func(t *testing.T) {
		expectedCode := -32601
		expectedMsg := "method not found"

		resp := response{
			JsonRPC: "2.0",
			Error: &struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			}{
				Code:    expectedCode,
				Message: expectedMsg,
			},
		}

		err := resp.Err()

		assert.Error(t, err, "Err() should return an error when Error field is present")
		assert.ErrorIs(t, err, ErrProviderReturnedError, "Err() should wrap ErrProviderReturnedError")
		assert.Contains(t, err.Error(), fmt.Sprintf("[%d]", expectedCode), "error message should include code")
		assert.Contains(t, err.Error(), expectedMsg, "error message should include message")
	})
}

func TestClient_Call(t *testing.T) {
	t.Run("successful response with result", func(t *testing.T) {
		expected := map[string]any{"hello": "world"}
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0",
				"result":  expected,
				"id":      "1",
			})
		}))
		defer mockServer.Close()

		c := NewClient(mockServer.Client())

		result, err := c.Call(t.Context(), mockServer.URL, "dummy_method")
		assert.NoError(t, err)

		var actual map[string]any
		err = json.Unmarshal(result, &actual)
		assert.NoError(t, err)
		assert.Equal(t, expected, actual)
	})

	t.Run("response with JSON-RPC error", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0",
				"error": map[string]any{
					"code":    -32601,
					"message": "method not found",
				},
				"id": "1",
			})
		}))
		defer mockServer.Close()

		c := NewClient(mockServer.Client())

		_, err := c.Call(t.Context(), mockServer.URL, "nonexistent_method")
		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrProviderReturnedError)
		assert.Contains(t, err.Error(), "method not found")
	})

	t.Run("malformed JSON response", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("this is not json"))
		}))
		defer mockServer.Close()

		c := NewClient(mockServer.Client())

		result, err := c.Call(t.Context(), mockServer.URL, "bad_json")
		assert.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "invalid character")
	})

	t.Run("network error when server is down", func(t *testing.T) {
		mockServer := httptest.NewServer(nil)
		mockServer.Close() // Immediately close

		c := NewClient(http.DefaultClient)

		result, err := c.Call(t.Context(), mockServer.URL, "network_failure")
		assert.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("endpoint is chosen per call", func(t *testing.T) {
		makeServer := func(result string) *httptest.Server {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"jsonrpc":"2.0","result":%q,"id":"1"}`, result)
			}))
			t.Cleanup(srv.Close)
			return srv
		}

		first := makeServer("first")
		second := makeServer("second")

		c := NewClient(http.DefaultClient)

		result, err := c.Call(t.Context(), first.URL, "whoami")
		require.NoError(t, err)
		assert.Equal(t, `"first"`, string(result))

		result, err = c.Call(t.Context(), second.URL, "whoami")
		require.NoError(t, err)
		assert.Equal(t, `"second"`, string(result))
	})
}

func TestClient_ParamEncoding(t *testing.T) {
	// capture returns a server that records the raw params field of each
	// request it receives.
	capture := func(t *testing.T, into *json.RawMessage) *httptest.Server {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Params json.RawMessage `json:"params"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			*into = req.Params

			fmt.Fprint(w, `{"jsonrpc":"2.0","result":null,"id":"1"}`)
		}))
		t.Cleanup(srv.Close)
		return srv
	}

	t.Run("no params encode as an empty array", func(t *testing.T) {
		var params json.RawMessage
		srv := capture(t, &params)

		c := NewClient(http.DefaultClient)

		_, err := c.Call(t.Context(), srv.URL, "eth_blockNumber")
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(params))
	})

	t.Run("positional params encode as an array", func(t *testing.T) {
		var params json.RawMessage
		srv := capture(t, &params)

		c := NewClient(http.DefaultClient)

		_, err := c.Call(t.Context(), srv.URL, "eth_getBalance", "0xabc", "latest")
		require.NoError(t, err)
		assert.JSONEq(t, `["0xabc", "latest"]`, string(params))
	})

	t.Run("a single map param encodes as a named-params object", func(t *testing.T) {
		var params json.RawMessage
		srv := capture(t, &params)

		c := NewClient(http.DefaultClient)

		_, err := c.Call(t.Context(), srv.URL, "block", map[string]any{"finality": "final"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"finality": "final"}`, string(params))
	})

	t.Run("a map alongside other params stays positional", func(t *testing.T) {
		var params json.RawMessage
		srv := capture(t, &params)

		c := NewClient(http.DefaultClient)

		_, err := c.Call(t.Context(), srv.URL, "eth_call", map[string]any{"to": "0xabc"}, "latest")
		require.NoError(t, err)
		assert.JSONEq(t, `[{"to": "0xabc"}, "latest"]`, string(params))
	})
}
