package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"restaurant-pos/internal/broadcast"
	"restaurant-pos/internal/config"
	"restaurant-pos/internal/database"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/messaging"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/ordercode"
	"restaurant-pos/internal/services/order"
	"restaurant-pos/internal/services/terminal"
)

func main() {
	var (
		mode       = flag.String("mode", "", "service mode: order-service, kitchen-terminal or cashier-terminal")
		port       = flag.Int("port", 0, "HTTP port for order-service (overrides config)")
		branchID   = flag.Int("branch", 0, "branch id for terminal modes")
		name       = flag.String("name", "", "terminal name for terminal modes")
		apiBaseURL = flag.String("api", "http://localhost:3000", "order service base URL for terminal reconciliation")
		configPath = flag.String("config", "config.yaml", "path to config file")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintln(os.Stderr, "Error: --mode is required (order-service, kitchen-terminal or cashier-terminal)")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.HTTP.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "order-service":
		err = runOrderService(ctx, cfg)
	case "kitchen-terminal":
		err = runTerminal(ctx, cfg, models.RoleKitchen, *branchID, *name, *apiBaseURL)
	case "cashier-terminal":
		err = runTerminal(ctx, cfg, models.RoleCashier, *branchID, *name, *apiBaseURL)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown mode %q\n", *mode)
		os.Exit(1)
	}

	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runOrderService(ctx context.Context, cfg *config.Config) error {
	log := logger.New("order-service")
	log.Info("service_starting", "Order service starting", "startup", nil)

	db, err := database.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, "migrations"); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	rabbit, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("rabbitmq: %w", err)
	}
	defer rabbit.Close()

	hub := broadcast.NewHub(16)
	dispatcher := order.NewDispatcher(hub, messaging.NewPublisher(rabbit, log), log)
	defer dispatcher.Close()
	store := order.NewStore(db, ordercode.New(), log)
	service := order.NewService(store, dispatcher, log)
	handler := order.NewHandler(service, hub, log)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:     handler.Routes(),
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: /events holds the response open indefinitely.
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("server_started",
			fmt.Sprintf("HTTP server listening on port %d", cfg.HTTP.Port),
			"startup", nil)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		log.Info("service_stopping", "Shutting down order service", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func runTerminal(ctx context.Context, cfg *config.Config, role models.Role, branchID int, name, apiBaseURL string) error {
	if branchID <= 0 {
		return fmt.Errorf("--branch is required for %s terminals", role)
	}
	if name == "" {
		hostname, _ := os.Hostname()
		name = fmt.Sprintf("%s-%s", role, hostname)
	}

	log := logger.New(fmt.Sprintf("%s-terminal", role))
	log.Info("terminal_starting",
		fmt.Sprintf("Terminal %s starting for branch %d", name, branchID),
		"startup", nil)

	rabbit, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("rabbitmq: %w", err)
	}
	defer rabbit.Close()

	t := terminal.New(terminal.Config{
		BranchID:   branchID,
		Role:       role,
		Name:       name,
		APIBaseURL: apiBaseURL,
	}, rabbit, log)

	if err := t.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	log.Info("terminal_stopped", fmt.Sprintf("Terminal %s stopped", name), "shutdown", nil)
	return nil
}
