// Command api is the gateway's entrypoint: it wires configuration,
// ledger shards, processor clients, the health monitor, the intake
// queue, the dispatcher, and the HTTP surface together, and runs them
// until SIGINT/SIGTERM triggers a graceful shutdown.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rinha-payment-gateway/internal/breaker"
	"rinha-payment-gateway/internal/config"
	"rinha-payment-gateway/internal/coordination"
	"rinha-payment-gateway/internal/dispatch"
	"rinha-payment-gateway/internal/domain"
	"rinha-payment-gateway/internal/httpapi"
	"rinha-payment-gateway/internal/ledger"
	"rinha-payment-gateway/internal/processor"
	"rinha-payment-gateway/internal/queue"
)

func main() {
	cfg := config.Load()
	log.Printf("STARTING backendId=%s ledgerDriver=%s local=%s peer=%s", cfg.BackendID, cfg.LedgerDriver, config.MaskDSN(cfg.LedgerDSNLocal), config.MaskDSN(cfg.LedgerDSNPeer))

	selector, err := ledger.OpenSelector(cfg)
	if err != nil {
		log.Fatalf("LEDGER_OPEN_FAILED %v", err)
	}

	coord, err := coordination.New(cfg.RedisURL)
	if err != nil {
		log.Printf("COORDINATION_UNAVAILABLE err=%v — continuing without cross-replica seeding", err)
		coord = nil
	}
	defer coord.Close()

	defaultState := processor.NewState(domain.Default)
	fallbackState := processor.NewState(domain.Fallback)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 2*time.Second)
	seedState(seedCtx, coord, "default", defaultState)
	seedState(seedCtx, coord, "fallback", fallbackState)
	seedCancel()

	defaultClient := processor.NewClient(cfg.DefaultProcessorURL)
	fallbackClient := processor.NewClient(cfg.FallbackProcessorURL)

	defaultMonitor := processor.NewMonitor("default", defaultClient, defaultState)
	fallbackMonitor := processor.NewMonitor("fallback", fallbackClient, fallbackState)

	defaultMonitor.OnProbe(func(healthy bool, minLatencyMs int) {
		coord.Publish(context.Background(), "default", healthy, minLatencyMs)
	})
	fallbackMonitor.OnProbe(func(healthy bool, minLatencyMs int) {
		coord.Publish(context.Background(), "fallback", healthy, minLatencyMs)
	})

	intake := queue.New()

	routes := []*dispatch.Route{
		{Kind: domain.Default, State: defaultState, Client: defaultClient, Breaker: breaker.New("default", breaker.DefaultConfig())},
		{Kind: domain.Fallback, State: fallbackState, Client: fallbackClient, Breaker: breaker.New("fallback", breaker.DefaultConfig())},
	}
	dispatcher := dispatch.New(intake, routes, selector)

	ctx, cancel := context.WithCancel(context.Background())
	go defaultMonitor.Run(ctx)
	go fallbackMonitor.Run(ctx)
	go dispatcher.Run(ctx)

	handlers := &httpapi.Handlers{
		Queue:     intake,
		Ledger:    selector,
		BackendID: cfg.BackendID,
		Processors: map[domain.ProcessorKind]*processor.State{
			domain.Default:  defaultState,
			domain.Fallback: fallbackState,
		},
	}
	router := httpapi.NewRouter(handlers)

	srv := &http.Server{
		Addr:    ":" + config.HTTPPort,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP_SERVER_FAILED %v", err)
		}
	}()
	log.Printf("LISTENING port=%s", config.HTTPPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("SHUTTING_DOWN")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP_SHUTDOWN_FAILED %v", err)
	}

	if err := selector.Close(); err != nil {
		log.Printf("LEDGER_CLOSE_FAILED %v", err)
	}

	log.Printf("STOPPED")
}

// seedState pulls a peer's last published probe, if any, so a
// restarted replica doesn't assume healthy for a full cycle. It only
// seeds the initial value — the Monitor's own next probe always
// overwrites it.
func seedState(ctx context.Context, coord *coordination.Coordinator, name string, state *processor.State) {
	healthy, minLatencyMs, ok := coord.Seed(ctx, name)
	if !ok {
		return
	}
	state.SetProbeResult(healthy, minLatencyMs)
	log.Printf("HEALTH_SEED processor=%s healthy=%t minLatencyMs=%d", name, healthy, minLatencyMs)
}
