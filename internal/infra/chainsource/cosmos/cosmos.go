// Package cosmos implements the RPC reader for Cosmos SDK chains against the
// LCD REST gateway (the /cosmos/* surface public nodes expose).
package cosmos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/normalize"
	"github.com/gabapcia/chainlens/internal/pkg/transport/rest"
	"github.com/gabapcia/chainlens/internal/source"
)

// reader implements source.Reader for the Cosmos family.
type reader struct {
	rest rest.Client
}

// Compile-time assertion that reader implements the source.Reader interface.
var _ source.Reader = (*reader)(nil)

// NewReader constructs the Cosmos reader on top of the REST helper.
func NewReader(restClient rest.Client) *reader {
	return &reader{rest: restClient}
}

func join(endpoint, path string) string {
	return strings.TrimRight(endpoint, "/") + path
}

func mapNotFound(err error, entity string) error {
	if errors.Is(err, rest.ErrResourceNotFound) {
		return fmt.Errorf("%w: %s", source.ErrEntityNotFound, entity)
	}
	return err
}

// Height returns the latest block height from the tendermint service.
func (r *reader) Height(ctx context.Context, chain chains.Descriptor, endpoint string) (uint64, error) {
	var payload struct {
		Block struct {
			Header struct {
				Height string `json:"height"`
			} `json:"header"`
		} `json:"block"`
	}
	if err := r.rest.Get(ctx, join(endpoint, "/cosmos/base/tendermint/v1beta1/blocks/latest"), &payload); err != nil {
		return 0, err
	}

	var height uint64
	if _, err := fmt.Sscanf(payload.Block.Header.Height, "%d", &height); err != nil {
		return 0, fmt.Errorf("unparseable block height %q: %w", payload.Block.Header.Height, err)
	}
	return height, nil
}

// AddressInfo fetches the bank module's balances for the address.
func (r *reader) AddressInfo(ctx context.Context, chain chains.Descriptor, endpoint, address string) (normalize.AddressInfo, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	var raw json.RawMessage
	if err := r.rest.Get(ctx, join(endpoint, "/cosmos/bank/v1beta1/balances/"+address), &raw); err != nil {
		return normalize.AddressInfo{}, mapNotFound(err, "address "+address)
	}

	info, err := adapter.ToAddressInfo(chain, address, raw)
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	var account struct {
		Account struct {
			Sequence string `json:"sequence"`
		} `json:"account"`
	}
	if err := r.rest.Get(ctx, join(endpoint, "/cosmos/auth/v1beta1/accounts/"+address), &account); err == nil {
		fmt.Sscanf(account.Account.Sequence, "%d", &info.TxCount)
	}

	return info, nil
}

// Transaction fetches the tx service view of a transaction.
func (r *reader) Transaction(ctx context.Context, chain chains.Descriptor, endpoint, hash string) (normalize.Transaction, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Transaction{}, err
	}

	var raw json.RawMessage
	if err := r.rest.Get(ctx, join(endpoint, "/cosmos/tx/v1beta1/txs/"+hash), &raw); err != nil {
		return normalize.Transaction{}, mapNotFound(err, "transaction "+hash)
	}

	return adapter.ToTransaction(chain, raw)
}

// Block fetches the tendermint service view of a block.
func (r *reader) Block(ctx context.Context, chain chains.Descriptor, endpoint string, number uint64) (normalize.Block, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Block{}, err
	}

	var raw json.RawMessage
	if err := r.rest.Get(ctx, join(endpoint, fmt.Sprintf("/cosmos/base/tendermint/v1beta1/blocks/%d", number)), &raw); err != nil {
		return normalize.Block{}, mapNotFound(err, fmt.Sprintf("block %d", number))
	}

	return adapter.ToBlock(chain, raw)
}

// LatestTransactions queries the tx service for transactions at the newest
// height, walking back through empty blocks when needed.
func (r *reader) LatestTransactions(ctx context.Context, chain chains.Descriptor, endpoint string, limit int) ([]normalize.Transaction, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return nil, err
	}

	head, err := r.Height(ctx, chain, endpoint)
	if err != nil {
		return nil, err
	}

	maxBlocks := source.SampleWindow(chain, limit)

	txs := make([]normalize.Transaction, 0, limit)
	for i := 0; i < maxBlocks && len(txs) < limit && head >= uint64(i); i++ {
		var payload struct {
			Txs         []json.RawMessage `json:"txs"`
			TxResponses []json.RawMessage `json:"tx_responses"`
		}

		url := join(endpoint, fmt.Sprintf("/cosmos/tx/v1beta1/txs?query=tx.height=%d&limit=%d", head-uint64(i), limit))
		if err := r.rest.Get(ctx, url, &payload); err != nil {
			return nil, err
		}

		for j := range payload.TxResponses {
			// Reassemble the single-tx payload shape the normalizer reads.
			combined := map[string]json.RawMessage{
				"tx_response": payload.TxResponses[j],
			}
			if j < len(payload.Txs) {
				combined["tx"] = payload.Txs[j]
			}

			encoded, err := json.Marshal(combined)
			if err != nil {
				return nil, err
			}

			tx, err := adapter.ToTransaction(chain, encoded)
			if err != nil {
				return nil, err
			}

			txs = append(txs, tx)
			if len(txs) == limit {
				break
			}
		}
	}

	return txs, nil
}

// TokenInfo requires CosmWasm smart queries, which this reader does not
// speak.
func (r *reader) TokenInfo(ctx context.Context, chain chains.Descriptor, endpoint, contract string) (normalize.TokenInfo, error) {
	return normalize.TokenInfo{}, fmt.Errorf("%w: token introspection on %s", source.ErrUnsupportedOperation, chain.Family)
}
