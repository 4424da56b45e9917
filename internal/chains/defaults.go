package chains

import "time"

// Defaults returns the built-in chain table. It is used when no chains file
// is supplied and doubles as a reference for the expected YAML shape. Public
// RPC endpoints carry no availability guarantee; pools exist precisely so
// that individual entries may rot.
func Defaults() []Descriptor {
	return []Descriptor{
		{
			ID:     "ethereum",
			Name:   "Ethereum",
			Symbol: "ETH",
			Family: FamilyEVM,
			RPCEndpoints: []string{
				"https://eth.llamarpc.com",
				"https://rpc.ankr.com/eth",
				"https://ethereum-rpc.publicnode.com",
				"https://cloudflare-eth.com",
			},
			API:         &KeyedAPI{BaseURL: "https://api.etherscan.io/api", RequiresKey: true},
			ExplorerURL: "https://etherscan.io/tx/%s",
			Tuning:      Tuning{LargeTxThreshold: 10, AvgBlockTime: 12 * time.Second, TxPerBlock: 150, SampleSize: 200},
		},
		{
			ID:     "polygon",
			Name:   "Polygon",
			Symbol: "POL",
			Family: FamilyEVM,
			RPCEndpoints: []string{
				"https://polygon-rpc.com",
				"https://rpc.ankr.com/polygon",
				"https://polygon-bor-rpc.publicnode.com",
			},
			API:         &KeyedAPI{BaseURL: "https://api.polygonscan.com/api", RequiresKey: true},
			ExplorerURL: "https://polygonscan.com/tx/%s",
			Tuning:      Tuning{LargeTxThreshold: 10000, AvgBlockTime: 2 * time.Second, TxPerBlock: 80, SampleSize: 200},
		},
		{
			ID:     "bsc",
			Name:   "BNB Smart Chain",
			Symbol: "BNB",
			Family: FamilyEVM,
			RPCEndpoints: []string{
				"https://bsc-dataseed.binance.org",
				"https://rpc.ankr.com/bsc",
				"https://bsc-rpc.publicnode.com",
			},
			API:         &KeyedAPI{BaseURL: "https://api.bscscan.com/api", RequiresKey: true},
			ExplorerURL: "https://bscscan.com/tx/%s",
			Tuning:      Tuning{LargeTxThreshold: 50, AvgBlockTime: 3 * time.Second, TxPerBlock: 120, SampleSize: 200},
		},
		{
			ID:     "arbitrum",
			Name:   "Arbitrum One",
			Symbol: "ETH",
			Family: FamilyEVM,
			RPCEndpoints: []string{
				"https://arb1.arbitrum.io/rpc",
				"https://rpc.ankr.com/arbitrum",
				"https://arbitrum-one-rpc.publicnode.com",
			},
			API:         &KeyedAPI{BaseURL: "https://api.arbiscan.io/api", RequiresKey: true},
			ExplorerURL: "https://arbiscan.io/tx/%s",
			Tuning:      Tuning{LargeTxThreshold: 10, AvgBlockTime: time.Second / 4, TxPerBlock: 10, SampleSize: 200},
		},
		{
			ID:     "optimism",
			Name:   "OP Mainnet",
			Symbol: "ETH",
			Family: FamilyEVM,
			RPCEndpoints: []string{
				"https://mainnet.optimism.io",
				"https://rpc.ankr.com/optimism",
				"https://optimism-rpc.publicnode.com",
			},
			API:         &KeyedAPI{BaseURL: "https://api-optimistic.etherscan.io/api", RequiresKey: true},
			ExplorerURL: "https://optimistic.etherscan.io/tx/%s",
			Tuning:      Tuning{LargeTxThreshold: 10, AvgBlockTime: 2 * time.Second, TxPerBlock: 15, SampleSize: 200},
		},
		{
			ID:     "bitcoin",
			Name:   "Bitcoin",
			Symbol: "BTC",
			Family: FamilyUTXO,
			RPCEndpoints: []string{
				"https://blockchain.info",
				"https://blockstream.info/api",
			},
			ExplorerURL: "https://www.blockchain.com/btc/tx/%s",
			Tuning:      Tuning{LargeTxThreshold: 1, AvgBlockTime: 10 * time.Minute, TxPerBlock: 2500, SampleSize: 100},
		},
		{
			ID:     "solana",
			Name:   "Solana",
			Symbol: "SOL",
			Family: FamilySolana,
			RPCEndpoints: []string{
				"https://api.mainnet-beta.solana.com",
				"https://solana-rpc.publicnode.com",
				"https://rpc.ankr.com/solana",
			},
			ExplorerURL: "https://solscan.io/tx/%s",
			Tuning:      Tuning{LargeTxThreshold: 100, AvgBlockTime: 400 * time.Millisecond, TxPerBlock: 1000, SampleSize: 200},
		},
		{
			ID:     "tron",
			Name:   "Tron",
			Symbol: "TRX",
			Family: FamilyTron,
			RPCEndpoints: []string{
				"https://api.trongrid.io",
				"https://api.tronstack.io",
			},
			ExplorerURL: "https://tronscan.org/#/transaction/%s",
			Tuning:      Tuning{LargeTxThreshold: 100000, AvgBlockTime: 3 * time.Second, TxPerBlock: 80, SampleSize: 200},
		},
		{
			ID:     "aptos",
			Name:   "Aptos",
			Symbol: "APT",
			Family: FamilyAptos,
			RPCEndpoints: []string{
				"https://fullnode.mainnet.aptoslabs.com/v1",
				"https://aptos-mainnet.nodereal.io/v1",
			},
			ExplorerURL: "https://explorer.aptoslabs.com/txn/%s",
			Tuning:      Tuning{LargeTxThreshold: 1000, AvgBlockTime: 4 * time.Second, TxPerBlock: 100, SampleSize: 100},
		},
		{
			ID:     "sui",
			Name:   "Sui",
			Symbol: "SUI",
			Family: FamilySui,
			RPCEndpoints: []string{
				"https://fullnode.mainnet.sui.io",
				"https://sui-rpc.publicnode.com",
			},
			ExplorerURL: "https://suiscan.xyz/mainnet/tx/%s",
			Tuning:      Tuning{LargeTxThreshold: 10000, AvgBlockTime: 3 * time.Second, TxPerBlock: 30, SampleSize: 100},
		},
		{
			ID:     "cosmos",
			Name:   "Cosmos Hub",
			Symbol: "ATOM",
			Family: FamilyCosmos,
			RPCEndpoints: []string{
				"https://cosmos-rest.publicnode.com",
				"https://rest.cosmos.directory/cosmoshub",
			},
			ExplorerURL: "https://www.mintscan.io/cosmos/tx/%s",
			Tuning:      Tuning{LargeTxThreshold: 1000, AvgBlockTime: 6 * time.Second, TxPerBlock: 50, SampleSize: 100},
		},
		{
			ID:     "near",
			Name:   "NEAR Protocol",
			Symbol: "NEAR",
			Family: FamilyNEAR,
			RPCEndpoints: []string{
				"https://rpc.mainnet.near.org",
				"https://near-rpc.publicnode.com",
			},
			ExplorerURL: "https://nearblocks.io/txns/%s",
			Tuning:      Tuning{LargeTxThreshold: 5000, AvgBlockTime: time.Second, TxPerBlock: 50, SampleSize: 100},
		},
	}
}
