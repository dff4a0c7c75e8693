package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	appcart "github.com/Zhima-Mochi/shopcore/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/shopcore/internal/application/catalog"
	apporder "github.com/Zhima-Mochi/shopcore/internal/application/order"
	apppayment "github.com/Zhima-Mochi/shopcore/internal/application/payment"
)

const headerUserID = "X-User-ID"

// Metrics holds the HTTP-level instruments the handler records into. They are
// registered by the caller so the handler never owns registry state.
type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

type Handler struct {
	catalogService *appcatalog.Service
	cartService    *appcart.Service
	orderService   *apporder.Service
	paymentService *apppayment.Service
	webhookSecret  string
	log            *zap.SugaredLogger
	metrics        Metrics
}

func NewHandler(
	catalogSvc *appcatalog.Service,
	cartSvc *appcart.Service,
	orderSvc *apporder.Service,
	paymentSvc *apppayment.Service,
	webhookSecret string,
	logger *zap.SugaredLogger,
	metrics Metrics,
) *Handler {
	return &Handler{
		catalogService: catalogSvc,
		cartService:    cartSvc,
		orderService:   orderSvc,
		paymentService: paymentSvc,
		webhookSecret:  webhookSecret,
		log:            logger.With("component", "http_server"),
		metrics:        metrics,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(observe(h.log, h.metrics.Requests, h.metrics.Latency))

	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.handleCreateProduct)
		r.Get("/", h.handleListProducts)
		r.Get("/search", h.handleSearchProducts)
		r.Get("/{id}", h.handleGetProduct)
		r.Put("/{id}", h.handleUpdateProduct)
		r.Delete("/{id}", h.handleDeleteProduct)
		r.Post("/{id}/stock", h.handleAdjustStock)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.handleGetCart)
		r.Post("/items", h.handleAddCartItem)
		r.Put("/items/{productID}", h.handleUpdateCartItem)
		r.Delete("/items/{productID}", h.handleRemoveCartItem)
		r.Delete("/", h.handleClearCart)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/checkout", h.handleCheckout)
		r.Get("/", h.handleListOrders)
		r.Get("/{id}", h.handleGetOrder)
		r.Post("/{id}/cancel", h.handleCancelOrder)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Post("/", h.handleCreatePayment)
		r.Post("/verify", h.handleVerifyPayment)
		r.Get("/{id}", h.handleGetPayment)
		r.Get("/order/{orderID}", h.handleGetPaymentByOrder)
	})

	r.Post("/webhooks/payment", h.handlePaymentWebhook)

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// userID resolves the acting user from the X-User-ID header. Authentication is
// terminated upstream; an empty header is rejected at the handler.
func userID(r *http.Request) string {
	return r.Header.Get(headerUserID)
}
