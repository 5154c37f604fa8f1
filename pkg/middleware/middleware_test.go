package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// recordingTracer keeps every span it starts.
type recordingTracer struct {
	noop.Tracer
	mu    sync.Mutex
	spans []*recordingSpan
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordingSpan{name: name, kind: cfg.SpanKind(), attrs: cfg.Attributes()}
	t.mu.Lock()
	t.spans = append(t.spans, s)
	t.mu.Unlock()
	return trace.ContextWithSpan(ctx, s), s
}

type recordingSpan struct {
	noop.Span
	name   string
	kind   trace.SpanKind
	attrs  []attribute.KeyValue
	status codes.Code
	ended  bool
}

func (s *recordingSpan) SetName(name string)                    { s.name = name }
func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) { s.attrs = append(s.attrs, kv...) }
func (s *recordingSpan) SetStatus(code codes.Code, _ string)    { s.status = code }
func (s *recordingSpan) End(...trace.SpanEndOption)             { s.ended = true }

func (s *recordingSpan) attr(key string) (attribute.Value, bool) {
	for _, kv := range s.attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func testRouter(mw ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(mw...)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	r.Get("/bad", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	})
	return r
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestOpenTelemetryConfig(t *testing.T) {
	config := defaultOTelConfig()
	if config.TracerName != "mcstructs" {
		t.Errorf("TracerName = %q, want mcstructs", config.TracerName)
	}

	filter := func(*http.Request) bool { return false }
	for _, opt := range []OTelOption{WithTracerName("custom"), WithFilter(filter)} {
		opt(&config)
	}
	if config.TracerName != "custom" {
		t.Errorf("TracerName = %q, want custom", config.TracerName)
	}
	if config.Filter == nil {
		t.Error("Filter not set")
	}
}

func TestOpenTelemetrySpans(t *testing.T) {
	tracer := &recordingTracer{}
	h := testRouter(OpenTelemetry(WithTracer(tracer)))

	serve(h, "/items/42")
	serve(h, "/boom")

	if len(tracer.spans) != 2 {
		t.Fatalf("started %d spans, want 2", len(tracer.spans))
	}

	ok := tracer.spans[0]
	if ok.name != "GET /items/{id}" {
		t.Errorf("span name = %q, want route pattern", ok.name)
	}
	if ok.kind != trace.SpanKindServer {
		t.Errorf("span kind = %v, want server", ok.kind)
	}
	if v, _ := ok.attr("http.status_code"); v.AsInt64() != 200 {
		t.Errorf("http.status_code = %v, want 200", v.AsInt64())
	}
	if !ok.ended || ok.status == codes.Error {
		t.Errorf("span ended=%v status=%v", ok.ended, ok.status)
	}

	if tracer.spans[1].status != codes.Error {
		t.Errorf("5xx span status = %v, want error", tracer.spans[1].status)
	}
}

func TestOpenTelemetryFilter(t *testing.T) {
	tracer := &recordingTracer{}
	h := testRouter(OpenTelemetry(WithTracer(tracer), WithFilter(func(r *http.Request) bool {
		return !strings.HasPrefix(r.URL.Path, "/items")
	})))

	if rec := serve(h, "/items/1"); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(tracer.spans) != 0 {
		t.Errorf("filtered request traced: %d spans", len(tracer.spans))
	}
}

func TestOpenTelemetrySpanInContext(t *testing.T) {
	tracer := &recordingTracer{}
	r := chi.NewRouter()
	r.Use(OpenTelemetry(WithTracer(tracer)))

	var got trace.Span
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		got = trace.SpanFromContext(r.Context())
	})
	serve(r, "/")

	if len(tracer.spans) != 1 || got != trace.Span(tracer.spans[0]) {
		t.Error("handler did not see the request span")
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetricsConfig(t *testing.T) {
	config := defaultMetricsConfig()
	if config.Namespace != "mcstructs" || config.Subsystem != "http" {
		t.Errorf("defaults = %q/%q", config.Namespace, config.Subsystem)
	}

	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"env": "test"}
	buckets := []float64{0.1, 1}
	for _, opt := range []MetricsOption{
		WithNamespace("ns"),
		WithSubsystem("sub"),
		WithConstLabels(labels),
		WithBuckets(buckets),
		WithRegistry(reg),
	} {
		opt(&config)
	}
	if config.Namespace != "ns" || config.Subsystem != "sub" {
		t.Errorf("names = %q/%q", config.Namespace, config.Subsystem)
	}
	if config.ConstLabels["env"] != "test" || len(config.Buckets) != 2 || config.Registry != reg {
		t.Errorf("options not applied: %+v", config)
	}
}

func TestPrometheusRecordsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := testRouter(Prometheus(WithRegistry(reg)))
	serve(h, "/items/1")
	serve(h, "/items/2")
	serve(h, "/boom")
	serve(h, "/nowhere")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "mcstructs_http_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			var route, status string
			for _, lp := range metric.GetLabel() {
				switch lp.GetName() {
				case "route":
					route = lp.GetValue()
				case "status":
					status = lp.GetValue()
				}
			}
			counts[route+" "+status] = metric.GetCounter().GetValue()
		}
	}

	want := map[string]float64{
		"/items/{id} 200": 2,
		"/boom 500":       1,
		"unmatched 404":   1,
	}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("requests_total{%s} = %v, want %v", k, counts[k], v)
		}
	}
}

func TestRequestMetricsCollectors(t *testing.T) {
	config := defaultMetricsConfig()
	config.Registry = prometheus.NewRegistry()
	m := newRequestMetrics(config)

	m.requestsTotal.WithLabelValues("/x", "GET", "200").Inc()
	if got := counterValue(t, m.requestsTotal.WithLabelValues("/x", "GET", "200")); got != 1 {
		t.Errorf("requests_total = %v, want 1", got)
	}
	m.requestDuration.WithLabelValues("/x").Observe(0.01)
	if got := histogramCount(t, m.requestDuration.WithLabelValues("/x")); got != 1 {
		t.Errorf("request_duration_seconds count = %d, want 1", got)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	h := testRouter(Logger(logger))

	serve(h, "/items/1")
	if buf.Len() != 0 {
		t.Errorf("2xx logged above debug: %q", buf.String())
	}

	serve(h, "/bad")
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "status=400") {
		t.Errorf("4xx log = %q", buf.String())
	}

	buf.Reset()
	serve(h, "/boom")
	if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "route=/boom") {
		t.Errorf("5xx log = %q", buf.String())
	}
}
