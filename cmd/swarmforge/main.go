package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	cfhttp "github.com/Strob0t/SwarmForge/internal/adapter/http"
	"github.com/Strob0t/SwarmForge/internal/adapter/membus"
	"github.com/Strob0t/SwarmForge/internal/adapter/otel"
	"github.com/Strob0t/SwarmForge/internal/adapter/ristretto"
	"github.com/Strob0t/SwarmForge/internal/adapter/ws"
	"github.com/Strob0t/SwarmForge/internal/agent"
	"github.com/Strob0t/SwarmForge/internal/config"
	"github.com/Strob0t/SwarmForge/internal/domain/task"
	"github.com/Strob0t/SwarmForge/internal/logger"
	"github.com/Strob0t/SwarmForge/internal/port/worker"
	"github.com/Strob0t/SwarmForge/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", config.DefaultConfigFile, "path to YAML config")
		duration   = flag.Duration("duration", 0, "stop the swarm after this duration (0 = run until shutdown)")
		batch      = flag.Bool("batch", false, "run without the interactive prompt")
		request    = flag.String("request", "", "submit a single request, print its output, then shut down")
	)
	flag.Parse()

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if *duration > 0 {
		cfg.Swarm.Duration = *duration
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded", "port", cfg.Server.Port, "log_level", cfg.Logging.Level)

	metrics, err := otel.NewMetrics()
	if err != nil {
		slog.Warn("metrics init failed, continuing without", "error", err)
		metrics = nil
	}

	archive, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("archive cache: %w", err)
	}
	defer archive.Close()

	// --- Swarm wiring ---

	bus := membus.New(metrics)
	hub := ws.NewHub()

	coord := service.NewCoordinator(cfg.Pipeline, hub, archive, metrics)
	coordAgent, err := agent.New(cfg.Pipeline.Coordinator, "coordinator", bus, coord)
	if err != nil {
		return fmt.Errorf("coordinator agent: %w", err)
	}

	runners := []service.Runner{coordAgent}

	workerNames := map[task.Type]string{
		task.TypePlan:   cfg.Pipeline.Planner,
		task.TypeCode:   cfg.Pipeline.Coder,
		task.TypeReview: cfg.Pipeline.Reviewer,
	}
	for _, taskType := range []task.Type{task.TypePlan, task.TypeCode, task.TypeReview} {
		w, err := worker.New(taskType)
		if err != nil {
			return fmt.Errorf("worker %s: %w", taskType, err)
		}
		a, err := agent.New(workerNames[taskType], string(taskType), bus,
			agent.NewWorkerHandler(w, cfg.Pipeline.Coordinator))
		if err != nil {
			return fmt.Errorf("worker agent %s: %w", workerNames[taskType], err)
		}
		runners = append(runners, a)
	}

	gw := cfhttp.NewGateway(cfg.Pipeline.Coordinator, coord, archive, hub)
	gwAgent, err := agent.New(cfg.Pipeline.Gateway, "gateway", bus, gw)
	if err != nil {
		return fmt.Errorf("gateway agent: %w", err)
	}
	gw.Bind(gwAgent)
	runners = append(runners, gwAgent)

	// Front end: one-shot submitter, interactive REPL, or neither (batch).
	interactive := !*batch && *request == "" && term.IsTerminal(int(os.Stdin.Fd()))
	switch {
	case *request != "":
		one, err := newOneShot(cfg.Pipeline.User, bus, cfg.Pipeline.Coordinator, *request)
		if err != nil {
			return fmt.Errorf("one-shot agent: %w", err)
		}
		runners = append(runners, one)
	case interactive:
		repl, err := newREPL(cfg.Pipeline.User, bus, cfg.Pipeline.Coordinator)
		if err != nil {
			return fmt.Errorf("repl agent: %w", err)
		}
		runners = append(runners, repl)
	}

	swarm, err := service.NewSwarm(runners, bus)
	if err != nil {
		return fmt.Errorf("swarm: %w", err)
	}

	// --- HTTP gateway server ---

	router := cfhttp.NewRouter(gw, cfg.Logging.Service, cfg.Server.CORSOrigin)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		slog.Info("starting gateway", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("gateway server failed", "error", err)
		}
	}()

	// --- Lifecycle ---

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		slog.Info("signal received, stopping swarm")
		swarm.Stop()
	}()

	runErr := swarm.Run(context.Background(), cfg.Swarm.Duration)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("gateway shutdown", "error", err)
	}

	return runErr
}
