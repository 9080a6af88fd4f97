package execute

import (
	"context"
	"sync"

	"github.com/shaiso/Relay/internal/dispatch"
)

// TaskHandler выполняет задачу. Params — полный набор параметров
// запроса, включая общие параметры коммита.
type TaskHandler interface {
	Execute(ctx context.Context, params map[string]string) error
}

// TaskHandlerFunc — адаптер функции к TaskHandler.
type TaskHandlerFunc func(ctx context.Context, params map[string]string) error

// Execute вызывает функцию.
func (f TaskHandlerFunc) Execute(ctx context.Context, params map[string]string) error {
	return f(ctx, params)
}

// EventHandler обрабатывает восстановленное событие.
type EventHandler interface {
	Handle(ctx context.Context, event dispatch.Event) error
}

// EventHandlerFunc — адаптер функции к EventHandler.
type EventHandlerFunc func(ctx context.Context, event dispatch.Event) error

// Handle вызывает функцию.
func (f EventHandlerFunc) Handle(ctx context.Context, event dispatch.Event) error {
	return f(ctx, event)
}

// Registry — реестры обработчиков: задачи по типу, обработчики и
// listeners событий по короткому имени, подписки listeners на виды
// событий. Заполняется при старте приложения.
type Registry struct {
	mu        sync.RWMutex
	tasks     map[string]TaskHandler
	handlers  map[string]EventHandler
	listeners map[string]EventHandler
	byKind    map[string][]string
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		tasks:     make(map[string]TaskHandler),
		handlers:  make(map[string]EventHandler),
		listeners: make(map[string]EventHandler),
		byKind:    make(map[string][]string),
	}
}

// RegisterTask регистрирует обработчик задач указанного типа.
func (r *Registry) RegisterTask(taskType string, h TaskHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[taskType] = h
}

// RegisterHandler регистрирует обработчик события под коротким именем.
func (r *Registry) RegisterHandler(name string, h EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// RegisterListener регистрирует listener под коротким именем и
// подписывает его на перечисленные виды событий.
func (r *Registry) RegisterListener(name string, l EventHandler, kinds ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[name] = l
	for _, kind := range kinds {
		r.byKind[kind] = append(r.byKind[kind], name)
	}
}

// Task возвращает обработчик задач по типу.
func (r *Registry) Task(taskType string) (TaskHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.tasks[taskType]
	return h, ok
}

// Handler возвращает обработчик события по имени.
func (r *Registry) Handler(name string) (EventHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Listener возвращает listener по имени.
func (r *Registry) Listener(name string) (EventHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.listeners[name]
	return l, ok
}

// ListenersFor возвращает listeners, подписанные на вид события,
// в порядке регистрации.
func (r *Registry) ListenersFor(kind string) []EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.byKind[kind]
	out := make([]EventHandler, 0, len(names))
	for _, name := range names {
		if l, ok := r.listeners[name]; ok {
			out = append(out, l)
		}
	}
	return out
}
