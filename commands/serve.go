package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"coffee-shop/config"
	"coffee-shop/consumers"
	"coffee-shop/middlewares"
	"coffee-shop/paystack"
	"coffee-shop/rabbitmq"
	"coffee-shop/routes"
	"coffee-shop/services"
	"coffee-shop/ws"

	"github.com/spf13/cobra"
)

var storeKind string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API.

With RABBITMQ_URL set, order events are published and the order consumer
auto-cancels orders that are still unpaid after PAYMENT_CHECK_DELAY.

Examples:
  coffee-shop serve                  # MySQL store
  coffee-shop serve --store memory   # in-process store, data is lost on exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), config.LoadConfig(envFile))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&storeKind, "store", storeMySQL, "Storage backend: mysql or memory")
}

func runServe(ctx context.Context, cfg *config.Config) error {
	st, err := openStores(ctx, cfg, storeKind)
	if err != nil {
		return err
	}
	defer st.close()

	authSvc := services.NewAuthService(st.users, cfg.JWTSecret, cfg.JWTTTL)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		err := authSvc.EnsureAdmin(ctx, services.RegisterInput{Name: cfg.AdminName, Email: cfg.AdminEmail, Password: cfg.AdminPassword})
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	// Leave events as a nil interface when RabbitMQ is disabled.
	var events services.EventPublisher
	var rmq *rabbitmq.RabbitMQ
	if cfg.RabbitMQURL != "" {
		rmq, err = rabbitmq.NewRabbitMQ(cfg)
		if err != nil {
			return fmt.Errorf("RabbitMQ initialization failed: %w", err)
		}
		defer rmq.Close()

		if err := rmq.SetupQueues(); err != nil {
			return fmt.Errorf("failed to setup RabbitMQ queues: %w", err)
		}
		events = rmq
	} else {
		log.Printf("RABBITMQ_URL not set, order events are disabled")
	}

	orderSvc := services.NewOrderService(st.orders, events, cfg.PaymentCheckDelay)
	if rmq != nil {
		handler := &consumers.OrderHandler{Orders: orderSvc, Hub: hub}
		if err := consumers.StartOrderConsumer(ctx, rmq.Channel, cfg, handler); err != nil {
			return err
		}
	}

	paymentSvc := services.NewPaymentService(orderSvc,
		paystack.NewClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey, cfg.PaystackTimeout),
		cfg.PaystackCallbackURL)
	paymentSvc.Observe = middlewares.RecordPaymentOperation

	routeSvc := routes.Services{
		Auth:     authSvc,
		Coffees:  services.NewCoffeeService(st.coffees),
		Carts:    services.NewCartService(st.carts, st.coffees),
		Orders:   orderSvc,
		Payments: paymentSvc,
		Hub:      hub,
	}
	if rmq != nil {
		routeSvc.DeadLetters = rmq
	}
	router := routes.SetupRouter(cfg, routeSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Coffee shop API starting on port %s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
