package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appcart "github.com/Zhima-Mochi/shopcore/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/shopcore/internal/application/catalog"
	apporder "github.com/Zhima-Mochi/shopcore/internal/application/order"
	apppayment "github.com/Zhima-Mochi/shopcore/internal/application/payment"
	"github.com/Zhima-Mochi/shopcore/internal/config"
	domcart "github.com/Zhima-Mochi/shopcore/internal/domain/cart"
	"github.com/Zhima-Mochi/shopcore/internal/infrastructure/audit"
	"github.com/Zhima-Mochi/shopcore/internal/infrastructure/gateway"
	"github.com/Zhima-Mochi/shopcore/internal/infrastructure/httpapi"
	"github.com/Zhima-Mochi/shopcore/internal/infrastructure/id"
	"github.com/Zhima-Mochi/shopcore/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/shopcore/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/shopcore/internal/infrastructure/rediscart"
	"github.com/Zhima-Mochi/shopcore/internal/pkg/logging"
)

func main() {
	cfg := config.Load()

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)
	log := baseLogger.Sugar()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	domainEvents := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_events_total",
			Help: "Count of domain events observed on the event bus.",
		},
		[]string{"event"},
	)
	prometheus.MustRegister(httpRequests, httpLatency, domainEvents)

	productRepo := memory.NewProductRepository()
	orderRepo := memory.NewOrderRepository()
	paymentRepo := memory.NewPaymentRepository()
	cartRepo := newCartRepository(cfg, log)

	bus := outbox.NewBus(log)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	auditWorker := audit.New(bus, domainEvents, log)
	auditWorker.Start()

	idGenerator := id.NewUUIDGenerator()
	gatewayClient := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.GatewayTimeout)

	catalogService := appcatalog.NewService(productRepo, idGenerator)
	cartService := appcart.NewService(cartRepo, productRepo)
	orderService := apporder.NewService(orderRepo, productRepo, cartService, idGenerator, bus)
	paymentService := apppayment.NewService(paymentRepo, gatewayClient, orderService, idGenerator, bus, apppayment.Config{
		Currency:      cfg.Currency,
		KeySecret:     cfg.GatewayKeySecret,
		WebhookSecret: cfg.WebhookSecret,
	})

	handler := httpapi.NewHandler(catalogService, cartService, orderService, paymentService,
		cfg.WebhookSecret, log, httpapi.Metrics{Requests: httpRequests, Latency: httpLatency})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infow("http_server_start", "addr", server.Addr)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("http_server_error", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("http_server_shutdown_error", "error", err)
	} else {
		log.Infow("http_server_stopped")
	}
}

// newCartRepository uses Redis when configured and reachable, otherwise the
// in-memory store. Cart data is disposable, so a cold fallback is acceptable.
func newCartRepository(cfg config.Config, log *zap.SugaredLogger) domcart.Repository {
	if cfg.RedisAddr == "" {
		log.Infow("cart_store_selected", "backend", "memory")
		return memory.NewCartRepository()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warnw("redis_unreachable_falling_back", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return memory.NewCartRepository()
	}

	log.Infow("cart_store_selected", "backend", "redis", "addr", cfg.RedisAddr)
	return rediscart.NewCartRepository(client)
}
