package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/detect"
	"github.com/gabapcia/chainlens/internal/endpoint"
	"github.com/gabapcia/chainlens/internal/explorer"
	"github.com/gabapcia/chainlens/internal/handlers/cli"
	"github.com/gabapcia/chainlens/internal/handlers/httpapi"
	"github.com/gabapcia/chainlens/internal/infra/chainsource/aptos"
	"github.com/gabapcia/chainlens/internal/infra/chainsource/cosmos"
	"github.com/gabapcia/chainlens/internal/infra/chainsource/evm"
	"github.com/gabapcia/chainlens/internal/infra/chainsource/evmscan"
	"github.com/gabapcia/chainlens/internal/infra/chainsource/near"
	"github.com/gabapcia/chainlens/internal/infra/chainsource/solana"
	"github.com/gabapcia/chainlens/internal/infra/chainsource/sui"
	"github.com/gabapcia/chainlens/internal/infra/chainsource/tron"
	"github.com/gabapcia/chainlens/internal/infra/chainsource/utxo"
	lrucache "github.com/gabapcia/chainlens/internal/infra/cache/lru"
	rediscache "github.com/gabapcia/chainlens/internal/infra/cache/redis"
	"github.com/gabapcia/chainlens/internal/pkg/logger"
	"github.com/gabapcia/chainlens/internal/pkg/telemetry"
	"github.com/gabapcia/chainlens/internal/pkg/transport/http"
	"github.com/gabapcia/chainlens/internal/pkg/transport/jsonrpc"
	"github.com/gabapcia/chainlens/internal/pkg/transport/rest"
	"github.com/gabapcia/chainlens/internal/source"
)

const serviceName = "chainlens"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := chains.LoadSettings()
	if err != nil {
		logger.Fatal(ctx, "loading settings", "error", err)
	}

	if settings.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, serviceName)
		if err != nil {
			logger.Fatal(ctx, "initializing telemetry", "error", err)
		}
		defer shutdown(context.Background())
	}

	if err := logger.Init(logger.WithLevel(settings.LogLevel)); err != nil {
		logger.Fatal(ctx, "initializing logger", "error", err)
	}
	defer logger.Sync()

	registry, err := chains.Load(settings.ChainsFile)
	if err != nil {
		logger.Fatal(ctx, "loading chain registry", "error", err)
	}

	httpClient := http.NewClient().StandardClient()
	rpcClient := jsonrpc.NewClient(httpClient)
	restClient := rest.NewClient(httpClient)

	readers := map[chains.Family]source.Reader{
		chains.FamilyEVM:    evm.NewReader(rpcClient),
		chains.FamilyUTXO:   utxo.NewReader(restClient),
		chains.FamilySolana: solana.NewReader(rpcClient),
		chains.FamilyTron:   tron.NewReader(restClient),
		chains.FamilyAptos:  aptos.NewReader(restClient),
		chains.FamilySui:    sui.NewReader(rpcClient),
		chains.FamilyCosmos: cosmos.NewReader(restClient),
		chains.FamilyNEAR:   near.NewReader(rpcClient),
	}

	apis := map[chains.Family]source.API{
		chains.FamilyEVM: evmscan.NewAPI(restClient),
	}

	resolver := endpoint.NewResolver(registry, source.NewProber(readers))
	policy := source.NewPolicy(registry, resolver, readers, apis, settings.APIKeys)
	detector := detect.New(registry)

	var cache explorer.Cache
	if settings.RedisAddr != "" {
		redisCache, err := rediscache.New(ctx, settings.RedisAddr, settings.RedisPassword, settings.RedisDB, settings.CacheTTL)
		if err != nil {
			logger.Fatal(ctx, "connecting to redis cache", "addr", settings.RedisAddr, "error", err)
		}
		defer redisCache.Close()
		cache = redisCache
	} else {
		cache = lrucache.New(settings.CacheSize, settings.CacheTTL)
	}

	svc := explorer.NewService(registry, policy, detector,
		explorer.WithCache(cache),
		explorer.WithSpeculativeFanout(settings.SpeculativeFanout),
	)
	server := httpapi.NewServer(svc, registry)

	if err := cli.Run(ctx, svc, server, settings.HTTPAddr); err != nil {
		logger.Fatal(ctx, "command failed", "error", err)
	}
}
