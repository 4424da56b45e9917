// Package analytics derives aggregate network metrics from a bounded sample
// of normalized transactions. No upstream exposes a first-class analytics
// endpoint, so everything here is estimated from raw samples; every output
// is guaranteed finite, with 0 substituted for any undefined intermediate.
package analytics

import (
	"math"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/normalize"
	"github.com/gabapcia/chainlens/internal/pkg/types"
)

// Snapshot is one derived analytics view. Recomputed per request from a
// fresh sample, never persisted.
type Snapshot struct {
	ChainID                string  `json:"chainId"`
	TotalTransactions      int     `json:"totalTransactions"`
	ActiveAddresses        int     `json:"activeAddresses"`
	TotalVolume            float64 `json:"totalVolume"`      // native units
	AverageGasPrice        float64 `json:"averageGasPrice"`  // Gwei on EVM chains
	LargeTransactionCount  int     `json:"largeTransactionCount"`
	BlockProductionRate    float64 `json:"blockProductionRate"` // blocks/minute
	NetworkHealth          float64 `json:"networkHealth"`       // percentage in [0,100]
	GasPriceStability      float64 `json:"gasPriceStability"`   // [0,1]
	SuccessRate            float64 `json:"successRate"`         // [0,1]
}

// finite substitutes 0 for NaN and infinities. Every Snapshot field passes
// through it before being returned.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Compute derives a Snapshot from a transaction sample using the chain's
// externally supplied tuning (large-transaction threshold, average block
// time, transactions-per-block estimate). An empty sample yields an all-zero
// snapshot.
func Compute(chain chains.Descriptor, sample []normalize.Transaction) Snapshot {
	snapshot := Snapshot{
		ChainID:           chain.ID,
		TotalTransactions: len(sample),
	}
	if len(sample) == 0 {
		return snapshot
	}

	participants := types.NewSet[string]()
	gasPrices := make([]float64, 0, len(sample))

	var (
		failed       int
		minTimestamp int64
		maxTimestamp int64
	)

	for _, tx := range sample {
		if tx.From != "" {
			participants.Add(tx.From)
		}
		if tx.To != "" {
			participants.Add(tx.To)
		}

		snapshot.TotalVolume += tx.Value
		if tx.Value >= chain.Tuning.LargeTxThreshold {
			snapshot.LargeTransactionCount++
		}
		if tx.GasPrice > 0 {
			gasPrices = append(gasPrices, tx.GasPrice)
		}
		if tx.Status == normalize.StatusFailed {
			failed++
		}

		if tx.Timestamp > 0 {
			if minTimestamp == 0 || tx.Timestamp < minTimestamp {
				minTimestamp = tx.Timestamp
			}
			if tx.Timestamp > maxTimestamp {
				maxTimestamp = tx.Timestamp
			}
		}
	}

	snapshot.ActiveAddresses = len(participants)
	snapshot.AverageGasPrice = finite(mean(gasPrices))
	snapshot.GasPriceStability = finite(gasPriceStability(gasPrices))
	snapshot.SuccessRate = finite(float64(len(sample)-failed) / float64(len(sample)))
	snapshot.NetworkHealth = finite((0.7*snapshot.SuccessRate + 0.3*snapshot.GasPriceStability) * 100)
	snapshot.BlockProductionRate = finite(blockProductionRate(chain, len(sample), minTimestamp, maxTimestamp))
	snapshot.TotalVolume = finite(snapshot.TotalVolume)

	return snapshot
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// gasPriceStability is max(0, 1 - stddev/mean) over the observed gas prices,
// using the population standard deviation. Zero when no prices were observed
// or the mean is zero.
func gasPriceStability(prices []float64) float64 {
	m := mean(prices)
	if m == 0 {
		return 0
	}

	var sumSquares float64
	for _, p := range prices {
		d := p - m
		sumSquares += d * d
	}
	stddev := math.Sqrt(sumSquares / float64(len(prices)))

	return math.Max(0, 1-stddev/m)
}

// blockProductionRate estimates blocks per minute. The sample-derived
// estimate (sample size over the tuning's transactions-per-block constant,
// spread over the observed time window) wins whenever the sample spans a
// positive time interval; otherwise the static per-chain block time supplies
// the rate. The static path is the only one taken for single-block samples,
// whose spread is zero by construction.
func blockProductionRate(chain chains.Descriptor, sampleSize int, minTimestamp, maxTimestamp int64) float64 {
	spread := maxTimestamp - minTimestamp
	txPerBlock := chain.Tuning.TxPerBlock

	if spread > 0 && txPerBlock > 0 {
		estimatedBlocks := float64(sampleSize) / float64(txPerBlock)
		return estimatedBlocks / (float64(spread) / 60)
	}

	if seconds := chain.Tuning.AvgBlockTime.Seconds(); seconds > 0 {
		return 60 / seconds
	}
	return 0
}
