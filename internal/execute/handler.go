package execute

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/shaiso/Relay/internal/dispatch"
)

// Handler — HTTP-обработчик execute endpoint'а.
type Handler struct {
	registry  *Registry
	transport dispatch.EventTransport
	logger    *slog.Logger
}

// Config — конфигурация Handler.
type Config struct {
	Registry  *Registry
	Transport dispatch.EventTransport
	Logger    *slog.Logger
}

// NewHandler создаёт Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	return &Handler{
		registry:  registry,
		transport: cfg.Transport,
		logger:    logger,
	}
}

// RegisterRoutes регистрирует execute endpoint на mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)
	mux.Handle("POST "+dispatch.ExecutePath, chain(http.HandlerFunc(h.Execute)))
}

// Execute принимает доставленный dispatch-запрос.
//
// Статусы ответа:
//   - 200 — работа выполнена, доставка подтверждена;
//   - 400 — в запросе нет ни типа задачи, ни вида события;
//   - 404 — тип/обработчик не зарегистрирован;
//   - 500 — обработчик вернул ошибку (worker повторит доставку).
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	if taskType := r.PostFormValue(dispatch.ParamTaskType); taskType != "" {
		h.executeTask(w, r, taskType)
		return
	}
	if kind := r.PostFormValue(dispatch.ParamEventKind); kind != "" {
		h.executeEvent(w, r, kind)
		return
	}

	http.Error(w, "neither task type nor event kind present", http.StatusBadRequest)
}

func (h *Handler) executeTask(w http.ResponseWriter, r *http.Request, taskType string) {
	handler, ok := h.registry.Task(taskType)
	if !ok {
		h.logger.Error("no handler for task type", "task_type", taskType)
		http.Error(w, fmt.Sprintf("unknown task type %q", taskType), http.StatusNotFound)
		return
	}

	if err := handler.Execute(r.Context(), formParams(r)); err != nil {
		h.logger.Error("task execution failed", "task_type", taskType, "error", err)
		http.Error(w, "task execution failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) executeEvent(w http.ResponseWriter, r *http.Request, kind string) {
	// Payload был percent-encoded при построении запроса; разбор формы
	// снял только транспортный слой кодирования.
	encoded := r.PostFormValue(dispatch.ParamEventPayload)
	payload, err := url.QueryUnescape(encoded)
	if err != nil {
		h.logger.Error("malformed event payload encoding", "kind", kind, "error", err)
		http.Error(w, "malformed event payload", http.StatusBadRequest)
		return
	}

	event, err := h.transport.Decode(kind, []byte(payload))
	if err != nil {
		h.logger.Error("failed to decode event", "kind", kind, "error", err)
		http.Error(w, fmt.Sprintf("cannot decode event %q", kind), http.StatusNotFound)
		return
	}

	targets, errStatus, errMsg := h.eventTargets(r, kind)
	if errStatus != 0 {
		http.Error(w, errMsg, errStatus)
		return
	}

	for _, target := range targets {
		if err := target.Handle(r.Context(), event); err != nil {
			h.logger.Error("event handling failed", "kind", kind, "error", err)
			http.Error(w, "event handling failed", http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}

// eventTargets выбирает получателей события: именованный listener,
// именованный обработчик либо все подписчики вида.
func (h *Handler) eventTargets(r *http.Request, kind string) ([]EventHandler, int, string) {
	if name := r.PostFormValue(dispatch.ParamListener); name != "" {
		listener, ok := h.registry.Listener(name)
		if !ok {
			return nil, http.StatusNotFound, fmt.Sprintf("unknown listener %q", name)
		}
		return []EventHandler{listener}, 0, ""
	}

	if name := r.PostFormValue(dispatch.ParamHandler); name != "" {
		handler, ok := h.registry.Handler(name)
		if !ok {
			return nil, http.StatusNotFound, fmt.Sprintf("unknown handler %q", name)
		}
		return []EventHandler{handler}, 0, ""
	}

	listeners := h.registry.ListenersFor(kind)
	if len(listeners) == 0 {
		return nil, http.StatusNotFound, fmt.Sprintf("no listeners for event %q", kind)
	}
	return listeners, 0, ""
}

// formParams собирает параметры формы в плоскую карту
// (первое значение каждого ключа).
func formParams(r *http.Request) map[string]string {
	params := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}
