package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

// --- фейки портов ---

type enqueueCall struct {
	req             *Request
	queueName       string
	transactionless bool
}

// fakeBackend записывает вызовы Enqueue и отдаёт заранее
// запрограммированные ошибки в порядке вызовов.
type fakeBackend struct {
	calls []enqueueCall
	errs  []error
}

func (b *fakeBackend) Enqueue(_ context.Context, req *Request, queueName string, transactionless bool) error {
	b.calls = append(b.calls, enqueueCall{req: req, queueName: queueName, transactionless: transactionless})
	if len(b.errs) == 0 {
		return nil
	}
	err := b.errs[0]
	b.errs = b.errs[1:]
	return err
}

type fakeBinder struct {
	params map[string]string
	calls  int
}

func (f *fakeBinder) CommonParams() map[string]string {
	f.calls++
	out := make(map[string]string, len(f.params))
	for k, v := range f.params {
		out[k] = v
	}
	return out
}

type staticRouter map[string]string

func (r staticRouter) Resolve(candidates ...string) string {
	for _, c := range candidates {
		if name, ok := r[c]; ok {
			return name
		}
	}
	return ""
}

type jsonTransport struct{}

func (jsonTransport) Encode(_ string, event Event) ([]byte, error) {
	return json.Marshal(event)
}

func (jsonTransport) Decode(string, []byte) (Event, error) {
	return nil, errors.New("not implemented")
}

// brokenTransport всегда отказывает при сериализации.
type brokenTransport struct{}

func (brokenTransport) Encode(string, Event) ([]byte, error) {
	return nil, errors.New("no codec for event")
}

func (brokenTransport) Decode(string, []byte) (Event, error) {
	return nil, errors.New("no codec for event")
}

type testEvent struct {
	A int `json:"a"`
}

func (testEvent) Kind() string { return "test.event" }

func newScheduler(b Backend, binder ParamBinder, router QueueRouter) *Scheduler {
	return New(Config{
		Backend:   b,
		Transport: jsonTransport{},
		Binder:    binder,
		Router:    router,
	})
}

// --- тесты ---

func TestCommit_SubmitsInInsertionOrder(t *testing.T) {
	backend := &fakeBackend{}
	s := newScheduler(backend, nil, nil)

	s.Add(NewTask("first")).
		Add(NewTask("second"), NewTask("third"))

	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(backend.calls) != 3 {
		t.Fatalf("expected 3 submissions, got %d", len(backend.calls))
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		got := backend.calls[i].req.Params[ParamTaskType]
		if got != w {
			t.Errorf("call %d: expected task type %q, got %q", i, w, got)
		}
	}
}

func TestCommit_CommonParamsWinOnCollision(t *testing.T) {
	backend := &fakeBackend{}
	binder := &fakeBinder{params: map[string]string{
		"corr":   "abc",
		"tenant": "t-1",
	}}
	s := newScheduler(backend, binder, nil)

	s.Add(NewTask("report.build").
		Param("tenant", "caller-supplied").
		Param("x", "1"))

	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params := backend.calls[0].req.Params
	if params["corr"] != "abc" {
		t.Errorf("common param missing: %v", params)
	}
	// Общие параметры применяются последними и побеждают.
	if params["tenant"] != "t-1" {
		t.Errorf("expected common value to win, got %q", params["tenant"])
	}
	if params["x"] != "1" {
		t.Errorf("descriptor param lost: %v", params)
	}
}

func TestCommit_BinderCalledOncePerCommit(t *testing.T) {
	backend := &fakeBackend{}
	binder := &fakeBinder{params: map[string]string{"corr": "abc"}}
	s := newScheduler(backend, binder, nil)

	s.Add(NewTask("a"), NewTask("b"), NewTask("c"))
	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if binder.calls != 1 {
		t.Errorf("expected 1 binder call, got %d", binder.calls)
	}
}

func TestCommit_DuplicateNameFirstAttemptIsSuccess(t *testing.T) {
	backend := &fakeBackend{errs: []error{
		fmt.Errorf("queue default: %w", ErrTaskAlreadyExists),
	}}
	s := newScheduler(backend, nil, nil)

	s.Add(
		NewTask("summarize").Named("fanin-key"),
		NewTask("next"),
	)

	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("duplicate on first attempt must be swallowed, got: %v", err)
	}

	// Без повтора: дубликат + следующий дескриптор = ровно 2 вызова.
	if len(backend.calls) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(backend.calls))
	}
}

func TestCommit_TransientThenSuccessContinues(t *testing.T) {
	backend := &fakeBackend{errs: []error{
		fmt.Errorf("overloaded: %w", ErrTransientFailure),
		nil,
	}}
	s := newScheduler(backend, nil, nil)

	s.Add(NewTask("flaky"), NewTask("next"))

	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Первый дескриптор ушёл дважды (попытка + повтор), второй один раз.
	if len(backend.calls) != 3 {
		t.Fatalf("expected 3 enqueue calls, got %d", len(backend.calls))
	}
	if backend.calls[0].req != backend.calls[1].req {
		t.Error("retry must reuse the identical request")
	}
}

func TestCommit_TransientTwiceAborts(t *testing.T) {
	second := fmt.Errorf("still overloaded: %w", ErrTransientFailure)
	backend := &fakeBackend{errs: []error{
		fmt.Errorf("overloaded: %w", ErrTransientFailure),
		second,
	}}
	s := newScheduler(backend, nil, nil)

	s.Add(NewTask("flaky"), NewTask("never-sent"))

	err := s.Commit(context.Background())
	if !errors.Is(err, ErrTransientFailure) {
		t.Fatalf("expected second transient failure surfaced, got: %v", err)
	}

	// Оставшиеся дескрипторы не отправляются.
	if len(backend.calls) != 2 {
		t.Fatalf("expected 2 enqueue calls, got %d", len(backend.calls))
	}
}

// Асимметрия политики дубликатов: конфликт имени, всплывший на
// повторе после временного сбоя, НЕ проглатывается. Поведение
// сохранено намеренно — оно несущее для fan-in сценария.
func TestCommit_DuplicateOnRetryPropagates(t *testing.T) {
	backend := &fakeBackend{errs: []error{
		fmt.Errorf("overloaded: %w", ErrTransientFailure),
		fmt.Errorf("queue default: %w", ErrTaskAlreadyExists),
	}}
	s := newScheduler(backend, nil, nil)

	s.Add(NewTask("summarize").Named("fanin-key"))

	err := s.Commit(context.Background())
	if !errors.Is(err, ErrTaskAlreadyExists) {
		t.Fatalf("duplicate on retry path must propagate, got: %v", err)
	}
}

func TestCommit_OtherBackendFailureAbortsImmediately(t *testing.T) {
	boom := errors.New("queue does not exist")
	backend := &fakeBackend{errs: []error{boom}}
	s := newScheduler(backend, nil, nil)

	s.Add(NewTask("a"), NewTask("b"))

	err := s.Commit(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected backend error surfaced, got: %v", err)
	}
	if len(backend.calls) != 1 {
		t.Fatalf("fatal error must not be retried, got %d calls", len(backend.calls))
	}
}

func TestCommit_EncodeFailureIsFatalAndNotRetried(t *testing.T) {
	backend := &fakeBackend{}
	s := New(Config{Backend: backend, Transport: brokenTransport{}})

	s.Add(NewEvent(testEvent{A: 1}))

	err := s.Commit(context.Background())
	if !errors.Is(err, ErrEncodeEvent) {
		t.Fatalf("expected ErrEncodeEvent, got: %v", err)
	}
	if len(backend.calls) != 0 {
		t.Fatalf("nothing must reach the backend, got %d calls", len(backend.calls))
	}
}

func TestCommit_PartialSubmissionOnAbort(t *testing.T) {
	boom := errors.New("hard failure")
	backend := &fakeBackend{errs: []error{nil, boom}}
	s := newScheduler(backend, nil, nil)

	s.Add(NewTask("delivered"), NewTask("failed"), NewTask("never-sent"))

	if err := s.Commit(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected abort error, got: %v", err)
	}

	// Первый дескриптор уже в очереди, отката нет.
	if len(backend.calls) != 2 {
		t.Fatalf("expected 2 enqueue calls, got %d", len(backend.calls))
	}
	if backend.calls[0].req.Params[ParamTaskType] != "delivered" {
		t.Error("first descriptor must have been submitted before the abort")
	}
}

func TestCommit_SecondCommitErrors(t *testing.T) {
	backend := &fakeBackend{}
	s := newScheduler(backend, nil, nil)

	s.Add(NewTask("once"))
	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Commit(context.Background()); !errors.Is(err, ErrSchedulerSpent) {
		t.Fatalf("expected ErrSchedulerSpent, got: %v", err)
	}
	if len(backend.calls) != 1 {
		t.Fatalf("re-commit must not re-send, got %d calls", len(backend.calls))
	}
}

func TestCommit_RoutesByDeclaredMetadata(t *testing.T) {
	backend := &fakeBackend{}
	router := staticRouter{"report.build": "reports"}
	s := newScheduler(backend, nil, router)

	s.Add(
		NewTask("report.build"),
		NewTask("unrouted"),
	)

	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := backend.calls[0].queueName; got != "reports" {
		t.Errorf("expected queue %q, got %q", "reports", got)
	}
	// Без метаданных — очередь по умолчанию (пустая строка).
	if got := backend.calls[1].queueName; got != "" {
		t.Errorf("expected default queue, got %q", got)
	}
}

func TestCommit_PassesTransactionFlag(t *testing.T) {
	backend := &fakeBackend{}
	s := newScheduler(backend, nil, nil)

	s.Add(
		NewTask("in-tx"),
		NewTask("outside").Transactionless(),
	)

	if err := s.Commit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if backend.calls[0].transactionless {
		t.Error("descriptor without Transactionless must join the ambient transaction")
	}
	if !backend.calls[1].transactionless {
		t.Error("Transactionless flag lost")
	}
}
