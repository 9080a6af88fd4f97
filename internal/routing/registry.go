package routing

import "sync"

// Registry — реестр метаданных маршрутизации: идентификатор типа →
// объявленное имя очереди. Отсутствие привязки означает «нет явного
// предпочтения».
type Registry struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]string)}
}

// Bind объявляет очередь для типа. Повторный Bind перезаписывает.
func (r *Registry) Bind(typeID, queueName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[typeID] = queueName
}

// Lookup возвращает объявленную очередь типа или пустую строку.
func (r *Registry) Lookup(typeID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names[typeID]
}
