// Package transport — сериализация событий для асинхронной отправки.
//
// JSON-кодек с явным реестром видов событий: kind → фабрика значения.
// Реестр нужен только стороне декодирования (execute endpoint);
// кодирование работает для любого события.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shaiso/Relay/internal/dispatch"
)

// ErrUnknownKind — вид события не зарегистрирован в кодеке.
var ErrUnknownKind = errors.New("unknown event kind")

// JSON — dispatch.EventTransport поверх encoding/json.
type JSON struct {
	mu        sync.RWMutex
	factories map[string]func() dispatch.Event
}

// NewJSON создаёт кодек с пустым реестром.
func NewJSON() *JSON {
	return &JSON{factories: make(map[string]func() dispatch.Event)}
}

// Register объявляет вид события. Фабрика обязана возвращать указатель
// на новое значение, пригодное для json.Unmarshal:
//
//	codec.Register("revenue.recorded", func() dispatch.Event {
//		return &RevenueRecorded{}
//	})
func (t *JSON) Register(kind string, factory func() dispatch.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.factories[kind] = factory
}

// Encode сериализует событие в JSON.
func (t *JSON) Encode(kind string, event dispatch.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event %q: %w", kind, err)
	}
	return data, nil
}

// Decode восстанавливает событие по его виду. Обратен Encode.
func (t *JSON) Decode(kind string, data []byte) (dispatch.Event, error) {
	t.mu.RLock()
	factory, ok := t.factories[kind]
	t.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	event := factory()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("unmarshal event %q: %w", kind, err)
	}
	return event, nil
}
