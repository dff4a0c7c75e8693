package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Zhima-Mochi/shopcore/internal/pkg/logging"
)

const headerRequestID = "X-Request-ID"

// observe combines trace-context extraction, a server span, a request-scoped
// logger carrying request_id and trace ids, RED metrics, and a final access
// log line.
func observe(base *zap.SugaredLogger, requests *prometheus.CounterVec, latency *prometheus.HistogramVec) func(http.Handler) http.Handler {
	prop := otel.GetTextMapPropagator()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			rid := r.Header.Get(headerRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set(headerRequestID, rid)

			ctx, span := otel.Tracer("shopcore.http").Start(ctx,
				r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
				),
			)
			defer span.End()

			reqLogger := base.With("request_id", rid)
			if sc := span.SpanContext(); sc.IsValid() {
				reqLogger = reqLogger.With("trace_id", sc.TraceID().String())
			}
			ctx = logging.ContextWithLogger(ctx, reqLogger)

			start := time.Now()
			lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(lrw, r.WithContext(ctx))

			route := routePattern(r)
			status := strconv.Itoa(lrw.status)

			if requests != nil {
				requests.WithLabelValues(r.Method, route, status).Inc()
			}
			if latency != nil {
				latency.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
			}

			reqLogger.Infow("http_access",
				"method", r.Method,
				"route", route,
				"path", r.URL.Path,
				"status", lrw.status,
				"latency_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// routePattern returns the matched chi route template so metric labels stay
// low-cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
