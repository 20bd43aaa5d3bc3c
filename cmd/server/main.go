// Package main runs the wheel paper-trading server:
// - one simulation runner per strategy (continuous price ticks)
// - JSON API for strategies, trades and stats
// - cron-scheduled daily history refresh and plan reconciliation
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"btcwheel/internal/config"
	"btcwheel/internal/domain"
	"btcwheel/internal/feed"
	"btcwheel/internal/history"
	"btcwheel/internal/ledger"
	"btcwheel/internal/observability"
	"btcwheel/internal/paper"
	"btcwheel/internal/priceprocess"
	"btcwheel/internal/projection"
	"btcwheel/internal/stats"
	"btcwheel/internal/storage"
	chstore "btcwheel/internal/storage/clickhouse"
	"btcwheel/internal/storage/keyvalue"
	"btcwheel/internal/storage/memory"
	"btcwheel/internal/storage/migrations"
	pgstore "btcwheel/internal/storage/postgres"
	"btcwheel/internal/storage/remote"
)

// Server holds all components of the wheel service.
type Server struct {
	cfg     *config.Config
	backend storage.Backend

	// priceStore is nil unless ClickHouse is configured.
	priceStore *chstore.PricePointStore

	histSource history.Source
	logger     *log.Logger
	started    time.Time

	// Per-strategy simulation runners.
	mu      sync.Mutex
	runners map[string]*paper.Runner
	cancels map[string]context.CancelFunc
	feeds   map[string]*feed.Client
	rootCtx context.Context
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	configPath := flag.String("config", os.Getenv("BTCWHEEL_CONFIG"), "Path to YAML config file")
	addr := flag.String("addr", "", "API listen address (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics address (overrides config)")
	backendFlag := flag.String("backend", "", "Storage backend: memory, file, postgres, remote (overrides config)")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *metricsAddr != "" {
		cfg.Server.MetricsAddr = *metricsAddr
	}
	if *backendFlag != "" {
		cfg.Storage.Backend = *backendFlag
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, priceStore, cleanup, err := createBackend(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to create storage backend: %v", err)
	}
	defer cleanup()
	logger.Printf("Storage backend: %s", cfg.Storage.Backend)

	server := &Server{
		cfg:        cfg,
		backend:    backend,
		priceStore: priceStore,
		histSource: newHistorySource(),
		logger:     logger,
		started:    time.Now(),
		runners:    make(map[string]*paper.Runner),
		cancels:    make(map[string]context.CancelFunc),
		feeds:      make(map[string]*feed.Client),
		rootCtx:    ctx,
	}

	if err := server.restoreStrategies(ctx); err != nil {
		logger.Fatalf("Failed to restore strategies: %v", err)
	}

	// Schedule the daily reconciliation job. The default spec carries a
	// seconds field.
	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc(cfg.Schedule.ReconcileCron, func() {
		server.runReconciliation(ctx)
	}); err != nil {
		logger.Fatalf("Invalid reconcile cron spec %q: %v", cfg.Schedule.ReconcileCron, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	go server.startMetricsServer(cfg.Server.MetricsAddr)

	if err := server.serveAPI(ctx, cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("API server error: %v", err)
	}

	server.stopAllRunners()
	logger.Println("Shutdown complete")
}

// createBackend builds the store bundle selected by the config. The
// returned cleanup closes any held connections.
func createBackend(ctx context.Context, cfg *config.Config) (storage.Backend, *chstore.PricePointStore, func(), error) {
	var backend storage.Backend
	cleanup := func() {}

	switch cfg.Storage.Backend {
	case "memory":
		backend = storage.Backend{
			Strategies: memory.NewStrategyStore(),
			Positions:  memory.NewPositionStore(),
			Plans:      memory.NewPlanStore(),
		}

	case "file":
		kv, err := keyvalue.NewFileKV(cfg.Storage.FilePath)
		if err != nil {
			return backend, nil, nil, fmt.Errorf("open file store: %w", err)
		}
		backend = keyvalue.NewBackend(kv)

	case "postgres":
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return backend, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return backend, nil, nil, fmt.Errorf("run postgres migrations: %w", err)
		}
		backend = storage.Backend{
			Strategies: pgstore.NewStrategyStore(pool),
			Positions:  pgstore.NewPositionStore(pool),
			Plans:      pgstore.NewPlanStore(pool),
		}
		cleanup = pool.Close

	case "remote":
		client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Token)
		backend = storage.Backend{
			Strategies: remote.NewStrategyStore(client),
			Positions:  remote.NewPositionStore(client),
		}

	default:
		return backend, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	// ClickHouse price history is independent of the main backend.
	var priceStore *chstore.PricePointStore
	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			cleanup()
			return backend, nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}
		priceStore = chstore.NewPricePointStore(conn)
		prev := cleanup
		cleanup = func() {
			conn.Close()
			prev()
		}
	}

	return backend, priceStore, cleanup, nil
}

// newHistorySource wires CoinGecko behind the synthetic fallback.
func newHistorySource() history.Source {
	return history.NewFallback(
		history.NewCoinGecko(),
		priceprocess.New(nil),
		log.New(os.Stdout, "[history] ", log.LstdFlags),
	)
}

// restoreStrategies loads persisted strategies and restarts a runner
// for each.
func (s *Server) restoreStrategies(ctx context.Context) error {
	strategies, err := s.backend.Strategies.List(ctx)
	if err != nil {
		return fmt.Errorf("list strategies: %w", err)
	}
	for _, strat := range strategies {
		positions, err := s.backend.Positions.GetByStrategyID(ctx, strat.StrategyID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("load positions for %s: %w", strat.StrategyID, err)
		}
		s.startRunner(strat, positions)
	}
	s.logger.Printf("Restored %d strategies", len(strategies))
	return nil
}

// startRunner builds the ledger and simulation loop for one strategy.
func (s *Server) startRunner(strat *domain.Strategy, positions []*domain.Position) {
	prob := s.cfg.Simulation.AssignmentProbability
	led := ledger.New(strat, ledger.Options{AssignmentProbability: &prob})
	led.Restore(positions)

	proc := priceprocess.New(nil)
	if s.cfg.Simulation.Amplitude > 0 {
		proc.Amplitude = s.cfg.Simulation.Amplitude
	}
	if s.cfg.Simulation.Floor > 0 {
		proc.Floor = s.cfg.Simulation.Floor
	}
	if s.cfg.Simulation.Ceiling > 0 {
		proc.Ceiling = s.cfg.Simulation.Ceiling
	}

	opts := paper.Options{
		Interval: s.cfg.Feed.TickInterval.Std(),
		Process:  proc,
		Backend:  s.backend,
		Logger:   log.New(os.Stdout, "[paper] ", log.LstdFlags),
	}

	ctx, cancel := context.WithCancel(s.rootCtx)

	// Live ticks when a feed endpoint is configured; dial failure falls
	// back to the synthetic process.
	var fc *feed.Client
	if s.cfg.Feed.WSEndpoint != "" {
		var err error
		fc, err = feed.NewClient(ctx, s.cfg.Feed.WSEndpoint, s.cfg.Feed.Product, nil)
		if err != nil {
			s.logger.Printf("Feed unavailable (%v), using synthetic prices for %s", err, strat.StrategyID)
		} else {
			opts.Feed = fc.Ticks()
		}
	}

	runner := paper.NewRunner(led, opts)

	s.mu.Lock()
	s.runners[strat.StrategyID] = runner
	s.cancels[strat.StrategyID] = cancel
	if fc != nil {
		s.feeds[strat.StrategyID] = fc
	}
	s.mu.Unlock()

	go runner.Run(ctx)
}

// stopRunner cancels one strategy's simulation loop.
func (s *Server) stopRunner(strategyID string) {
	s.mu.Lock()
	cancel, ok := s.cancels[strategyID]
	fc := s.feeds[strategyID]
	delete(s.runners, strategyID)
	delete(s.cancels, strategyID)
	delete(s.feeds, strategyID)
	s.mu.Unlock()

	if ok {
		cancel()
	}
	if fc != nil {
		fc.Close()
	}
}

func (s *Server) stopAllRunners() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.cancels))
	for id := range s.cancels {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.stopRunner(id)
	}
}

// runner returns the live runner for a strategy, or nil.
func (s *Server) runner(strategyID string) *paper.Runner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runners[strategyID]
}

// runReconciliation refreshes 90 days of daily history and compares
// each planned strategy against its target growth curve.
func (s *Server) runReconciliation(ctx context.Context) {
	s.logger.Println("Running daily reconciliation...")
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -90)

	series, err := s.histSource.DailyPrices(ctx, from, to)
	if err != nil {
		s.logger.Printf("History fetch failed: %v", err)
		return
	}
	if series.Simulated {
		observability.RecordHistoryFetch("fallback")
	} else {
		observability.RecordHistoryFetch("ok")
	}

	if s.priceStore != nil {
		if err := s.priceStore.InsertBulk(ctx, "BTC", series.Points); err != nil {
			s.logger.Printf("Price history persist failed: %v", err)
		}
	}

	s.mu.Lock()
	runners := make(map[string]*paper.Runner, len(s.runners))
	for id, r := range s.runners {
		runners[id] = r
	}
	s.mu.Unlock()

	for id, r := range runners {
		strat := r.Ledger().Strategy()
		if strat.Plan == nil {
			continue
		}
		rec := projection.Reconcile(projection.Plan{
			InitialCapital: strat.Capital,
			DailyRatePct:   strat.Plan.TargetMonthlyReturnPct / 30,
			Years:          1,
			StartDate:      strat.CreatedAt,
		}, series)
		s.logger.Printf("Reconciliation %s: expected=%.2f actual=%.2f variance=%+.2f ahead=%v simulated=%v",
			id, rec.ExpectedCapital, rec.ActualValue, rec.Variance, rec.AheadOfPlan, rec.Simulated)
	}
}

// startMetricsServer serves health and Prometheus metrics.
func (s *Server) startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())

	s.logger.Printf("Starting metrics server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Printf("Metrics server error: %v", err)
	}
}

// serveAPI runs the JSON API until ctx is cancelled.
func (s *Server) serveAPI(ctx context.Context, addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /wheel/strategies", s.handleCreateStrategy)
	mux.HandleFunc("GET /wheel/strategies", s.handleListStrategies)
	mux.HandleFunc("GET /wheel/strategies/{id}/stats", s.handleStats)
	mux.HandleFunc("DELETE /strategies/{id}", s.handleDeleteStrategy)
	mux.HandleFunc("GET /wheel/trades/{strategyId}", s.handleListTrades)
	mux.HandleFunc("POST /wheel/trades", s.handleCreateTrade)
	mux.HandleFunc("PATCH /wheel/trades/{id}", s.handleUpdateTrade)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Printf("Starting API server on %s", addr)
	return srv.ListenAndServe()
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// ---- handlers ----

// strategyRow is the API's strategy representation.
type strategyRow struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Ticker       string  `json:"ticker"`
	TotalCapital float64 `json:"total_capital"`
	CreatedAt    string  `json:"created_at"`
}

func toStrategyRow(s domain.Strategy) strategyRow {
	return strategyRow{
		ID:           s.StrategyID,
		Name:         s.Name,
		Ticker:       s.Ticker,
		TotalCapital: s.Capital,
		CreatedAt:    s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// tradeRow is the API's trade representation.
type tradeRow struct {
	ID         string  `json:"id"`
	StrategyID string  `json:"strategy_id"`
	Type       string  `json:"type"`
	Action     string  `json:"action"`
	Strike     float64 `json:"strike"`
	Premium    float64 `json:"premium"`
	Capital    float64 `json:"capital"`
	Quantity   float64 `json:"quantity"`
	Ticker     string  `json:"ticker"`
	Expiry     string  `json:"expiry"`
	PnL        float64 `json:"pnl"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at"`
}

func toTradeRow(p *domain.Position) tradeRow {
	return tradeRow{
		ID:         p.PositionID,
		StrategyID: p.StrategyID,
		Type:       string(p.Type),
		Action:     string(p.Action),
		Strike:     p.Strike,
		Premium:    p.Premium,
		Capital:    p.CapitalCommitted,
		Quantity:   p.Quantity,
		Ticker:     p.Ticker,
		Expiry:     p.Expiry.UTC().Format(time.RFC3339),
		PnL:        p.PnL,
		Status:     string(p.Status),
		CreatedAt:  p.OpenDate.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string  `json:"name"`
		Ticker       string  `json:"ticker"`
		TotalCapital float64 `json:"totalCapital"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.TotalCapital <= 0 {
		writeError(w, http.StatusBadRequest, "name and a positive totalCapital are required")
		return
	}
	if req.Ticker == "" {
		req.Ticker = "BTC"
	}

	strat := &domain.Strategy{
		StrategyID: uuid.NewString(),
		Name:       req.Name,
		Ticker:     req.Ticker,
		Capital:    req.TotalCapital,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.backend.Strategies.Insert(r.Context(), strat); err != nil {
		s.logger.Printf("Create strategy failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create strategy")
		return
	}

	s.startRunner(strat, nil)
	writeJSON(w, http.StatusCreated, map[string]any{"strategy": toStrategyRow(*strat)})
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	strategies, err := s.backend.Strategies.List(r.Context())
	if err != nil {
		s.logger.Printf("List strategies failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list strategies")
		return
	}

	// Newest first on the wire.
	sort.Slice(strategies, func(i, j int) bool {
		if !strategies[i].CreatedAt.Equal(strategies[j].CreatedAt) {
			return strategies[i].CreatedAt.After(strategies[j].CreatedAt)
		}
		return strategies[i].StrategyID > strategies[j].StrategyID
	})

	rows := make([]strategyRow, 0, len(strategies))
	for _, strat := range strategies {
		rows = append(rows, toStrategyRow(*strat))
	}
	writeJSON(w, http.StatusOK, map[string]any{"strategies": rows})
}

func (s *Server) handleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.stopRunner(id)

	if s.backend.Positions != nil {
		if err := s.backend.Positions.DeleteByStrategyID(r.Context(), id); err != nil &&
			!errors.Is(err, storage.ErrNotFound) && !errors.Is(err, remote.ErrUnsupported) {
			s.logger.Printf("Delete trades for %s failed: %v", id, err)
		}
	}
	err := s.backend.Strategies.Delete(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "strategy not found")
		return
	}
	if err != nil {
		s.logger.Printf("Delete strategy %s failed: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to delete strategy")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	strategyID := r.PathValue("strategyId")

	// Prefer the live ledger; fall back to storage for stopped
	// strategies.
	var positions []*domain.Position
	if runner := s.runner(strategyID); runner != nil {
		positions = runner.Ledger().Positions()
	} else {
		var err error
		positions, err = s.backend.Positions.GetByStrategyID(r.Context(), strategyID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Printf("List trades for %s failed: %v", strategyID, err)
			writeError(w, http.StatusInternalServerError, "failed to list trades")
			return
		}
	}

	// Newest first on the wire.
	sort.Slice(positions, func(i, j int) bool {
		if !positions[i].OpenDate.Equal(positions[j].OpenDate) {
			return positions[i].OpenDate.After(positions[j].OpenDate)
		}
		return positions[i].PositionID > positions[j].PositionID
	})

	rows := make([]tradeRow, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, toTradeRow(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"trades": rows})
}

func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StrategyID string  `json:"strategyId"`
		Type       string  `json:"type"`
		Action     string  `json:"action"`
		Strike     float64 `json:"strike"`
		Premium    float64 `json:"premium"`
		Quantity   float64 `json:"quantity"`
		Expiry     string  `json:"expiry"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	runner := s.runner(req.StrategyID)
	if runner == nil {
		writeError(w, http.StatusNotFound, "strategy not found")
		return
	}

	expiry, err := parseDate(req.Expiry)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expiry")
		return
	}
	action := domain.TradeAction(req.Action)
	if action == "" {
		action = domain.ActionSell
	}

	pos, err := runner.OpenPosition(r.Context(), ledger.OpenRequest{
		Type:     domain.OptionType(req.Type),
		Action:   action,
		Strike:   req.Strike,
		Premium:  req.Premium,
		Quantity: req.Quantity,
		Expiry:   expiry,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrValidation) ||
			errors.Is(err, ledger.ErrInsufficientCollateral) ||
			errors.Is(err, ledger.ErrInsufficientUnderlying) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Printf("Open position failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to open trade")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"trade": toTradeRow(pos)})
}

func (s *Server) handleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if domain.PositionStatus(req.Status) != domain.StatusClosed {
		writeError(w, http.StatusBadRequest, "only status transitions to closed are supported")
		return
	}

	// Find the runner owning this position.
	s.mu.Lock()
	runners := make([]*paper.Runner, 0, len(s.runners))
	for _, runner := range s.runners {
		runners = append(runners, runner)
	}
	s.mu.Unlock()

	for _, runner := range runners {
		for _, p := range runner.Ledger().Positions() {
			if p.PositionID != id {
				continue
			}
			if err := runner.ClosePosition(r.Context(), id); err != nil {
				if errors.Is(err, ledger.ErrPositionClosed) {
					writeError(w, http.StatusConflict, "trade already closed")
					return
				}
				s.logger.Printf("Close position %s failed: %v", id, err)
				writeError(w, http.StatusInternalServerError, "failed to close trade")
				return
			}
			p.Status = domain.StatusClosed
			writeJSON(w, http.StatusOK, map[string]any{"trade": toTradeRow(p)})
			return
		}
	}
	writeError(w, http.StatusNotFound, "trade not found")
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	strategyID := r.PathValue("id")
	runner := s.runner(strategyID)
	if runner == nil {
		writeError(w, http.StatusNotFound, "strategy not found")
		return
	}

	strat := runner.Ledger().Strategy()
	st := stats.Compute(&strat, runner.Ledger().Positions())

	writeJSON(w, http.StatusOK, map[string]any{"stats": map[string]any{
		"totalPnL":              st.TotalPnL,
		"activeTrades":          st.OpenCount,
		"closedTrades":          st.ClosedCount,
		"totalTrades":           st.TotalCount,
		"winningTrades":         st.WinCount,
		"losingTrades":          st.LossCount,
		"winRate":               st.WinRatePct,
		"totalPremiumCollected": st.TotalPremiumCollected,
		"returnOnCapital":       st.ReturnOnCapitalPct,
		"initialCapital":        st.InitialCapital,
		"currentCapital":        st.CurrentCapital,
	}})
}

// statusResponse is the JSON response for /status.
type statusResponse struct {
	Status     string  `json:"status"`
	Uptime     string  `json:"uptime"`
	Backend    string  `json:"backend"`
	Strategies int     `json:"strategies"`
	LastPrice  float64 `json:"last_price,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	count := len(s.runners)
	var lastPrice float64
	for _, runner := range s.runners {
		lastPrice = runner.Price()
		break
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, statusResponse{
		Status:     "running",
		Uptime:     time.Since(s.started).String(),
		Backend:    s.cfg.Storage.Backend,
		Strategies: count,
		LastPrice:  lastPrice,
	})
}

// parseDate accepts RFC3339 or bare dates.
func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
