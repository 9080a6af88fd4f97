package execute

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shaiso/Relay/internal/dispatch"
	"github.com/shaiso/Relay/internal/transport"
)

type orderPlaced struct {
	OrderID string `json:"order_id"`
}

func (orderPlaced) Kind() string { return "order.placed" }

func newTestHandler(t *testing.T, registry *Registry) *Handler {
	t.Helper()

	codec := transport.NewJSON()
	codec.Register("order.placed", func() dispatch.Event { return &orderPlaced{} })

	return NewHandler(Config{
		Registry:  registry,
		Transport: codec,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func postForm(t *testing.T, h *Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, dispatch.ExecutePath, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestExecute_Task(t *testing.T) {
	var got map[string]string

	registry := NewRegistry()
	registry.RegisterTask("reports.generate", TaskHandlerFunc(func(ctx context.Context, params map[string]string) error {
		got = params
		return nil
	}))

	rec := postForm(t, newTestHandler(t, registry), url.Values{
		dispatch.ParamTaskType: {"reports.generate"},
		"period":               {"2026-08"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got["period"] != "2026-08" {
		t.Errorf("params[period] = %q, want %q", got["period"], "2026-08")
	}
	if got[dispatch.ParamTaskType] != "reports.generate" {
		t.Errorf("reserved task type param missing from handler params")
	}
}

func TestExecute_TaskUnknownType(t *testing.T) {
	rec := postForm(t, newTestHandler(t, NewRegistry()), url.Values{
		dispatch.ParamTaskType: {"no.such.task"},
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestExecute_TaskHandlerError(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterTask("reports.generate", TaskHandlerFunc(func(ctx context.Context, params map[string]string) error {
		return errors.New("storage unavailable")
	}))

	rec := postForm(t, newTestHandler(t, registry), url.Values{
		dispatch.ParamTaskType: {"reports.generate"},
	})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestExecute_EventNamedListener(t *testing.T) {
	var got dispatch.Event

	registry := NewRegistry()
	registry.RegisterListener("billing", EventHandlerFunc(func(ctx context.Context, event dispatch.Event) error {
		got = event
		return nil
	}), "order.placed")

	rec := postForm(t, newTestHandler(t, registry), url.Values{
		dispatch.ParamEventKind:    {"order.placed"},
		dispatch.ParamEventPayload: {url.QueryEscape(`{"order_id":"ord-7"}`)},
		dispatch.ParamListener:     {"billing"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	event, ok := got.(*orderPlaced)
	if !ok {
		t.Fatalf("event = %T, want *orderPlaced", got)
	}
	if event.OrderID != "ord-7" {
		t.Errorf("OrderID = %q, want %q", event.OrderID, "ord-7")
	}
}

func TestExecute_EventNamedHandler(t *testing.T) {
	called := false

	registry := NewRegistry()
	registry.RegisterHandler("fulfillment", EventHandlerFunc(func(ctx context.Context, event dispatch.Event) error {
		called = true
		return nil
	}))

	rec := postForm(t, newTestHandler(t, registry), url.Values{
		dispatch.ParamEventKind:    {"order.placed"},
		dispatch.ParamEventPayload: {url.QueryEscape(`{"order_id":"ord-1"}`)},
		dispatch.ParamHandler:      {"fulfillment"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !called {
		t.Error("named handler was not invoked")
	}
}

func TestExecute_EventFanOutToSubscribers(t *testing.T) {
	var invoked []string

	registry := NewRegistry()
	registry.RegisterListener("billing", EventHandlerFunc(func(ctx context.Context, event dispatch.Event) error {
		invoked = append(invoked, "billing")
		return nil
	}), "order.placed")
	registry.RegisterListener("analytics", EventHandlerFunc(func(ctx context.Context, event dispatch.Event) error {
		invoked = append(invoked, "analytics")
		return nil
	}), "order.placed")
	registry.RegisterListener("unrelated", EventHandlerFunc(func(ctx context.Context, event dispatch.Event) error {
		invoked = append(invoked, "unrelated")
		return nil
	}), "order.cancelled")

	rec := postForm(t, newTestHandler(t, registry), url.Values{
		dispatch.ParamEventKind:    {"order.placed"},
		dispatch.ParamEventPayload: {url.QueryEscape(`{"order_id":"ord-2"}`)},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(invoked) != 2 || invoked[0] != "billing" || invoked[1] != "analytics" {
		t.Errorf("invoked = %v, want [billing analytics]", invoked)
	}
}

func TestExecute_EventListenerError(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterListener("billing", EventHandlerFunc(func(ctx context.Context, event dispatch.Event) error {
		return errors.New("ledger write failed")
	}), "order.placed")

	rec := postForm(t, newTestHandler(t, registry), url.Values{
		dispatch.ParamEventKind:    {"order.placed"},
		dispatch.ParamEventPayload: {url.QueryEscape(`{"order_id":"ord-3"}`)},
	})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestExecute_EventUnknownListener(t *testing.T) {
	rec := postForm(t, newTestHandler(t, NewRegistry()), url.Values{
		dispatch.ParamEventKind:    {"order.placed"},
		dispatch.ParamEventPayload: {url.QueryEscape(`{"order_id":"ord-4"}`)},
		dispatch.ParamListener:     {"ghost"},
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestExecute_EventNoSubscribers(t *testing.T) {
	rec := postForm(t, newTestHandler(t, NewRegistry()), url.Values{
		dispatch.ParamEventKind:    {"order.placed"},
		dispatch.ParamEventPayload: {url.QueryEscape(`{"order_id":"ord-5"}`)},
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestExecute_EventUnknownKind(t *testing.T) {
	rec := postForm(t, newTestHandler(t, NewRegistry()), url.Values{
		dispatch.ParamEventKind:    {"never.registered"},
		dispatch.ParamEventPayload: {url.QueryEscape(`{}`)},
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestExecute_MissingDiscriminator(t *testing.T) {
	rec := postForm(t, newTestHandler(t, NewRegistry()), url.Values{
		"x": {"1"},
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestExecute_PanicRecovered(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterTask("boom", TaskHandlerFunc(func(ctx context.Context, params map[string]string) error {
		panic("handler bug")
	}))

	rec := postForm(t, newTestHandler(t, registry), url.Values{
		dispatch.ParamTaskType: {"boom"},
	})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

// captureBackend сохраняет зафиксированные запросы вместо постановки
// в очередь.
type captureBackend struct {
	requests []*dispatch.Request
}

func (b *captureBackend) Enqueue(ctx context.Context, req *dispatch.Request, queueName string, transactionless bool) error {
	b.requests = append(b.requests, req)
	return nil
}

type staticRouter struct{}

func (staticRouter) Resolve(candidates ...string) string { return "" }

// Сквозной тест: событие, закодированное на стороне отправителя,
// восстанавливается execute endpoint'ом без потерь.
func TestExecute_RoundTripFromScheduler(t *testing.T) {
	codec := transport.NewJSON()
	codec.Register("order.placed", func() dispatch.Event { return &orderPlaced{} })

	backend := &captureBackend{}
	scheduler := dispatch.New(dispatch.Config{
		Backend:   backend,
		Transport: codec,
		Router:    staticRouter{},
	})

	scheduler.Add(dispatch.NewEvent(orderPlaced{OrderID: "ord-42"}))
	if err := scheduler.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(backend.requests) != 1 {
		t.Fatalf("enqueued %d requests, want 1", len(backend.requests))
	}

	var received *orderPlaced
	registry := NewRegistry()
	registry.RegisterListener("billing", EventHandlerFunc(func(ctx context.Context, event dispatch.Event) error {
		received = event.(*orderPlaced)
		return nil
	}), "order.placed")

	form := url.Values{}
	for key, value := range backend.requests[0].Params {
		form.Set(key, value)
	}

	rec := postForm(t, newTestHandler(t, registry), form)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if received == nil || received.OrderID != "ord-42" {
		t.Fatalf("received = %+v, want OrderID ord-42", received)
	}
}
