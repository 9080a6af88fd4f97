package dispatch

import (
	"context"
	"errors"
)

// Backend — порт физической очереди. Реализация обязана возвращать
// ErrTaskAlreadyExists при конфликте имени и ErrTransientFailure при
// временном сбое (обе через errors.Is); любая другая ошибка фатальна.
type Backend interface {
	Enqueue(ctx context.Context, req *Request, queueName string, transactionless bool) error
}

// ParamBinder поставляет общие параметры, добавляемые в каждую
// отправляемую единицу работы. Вызывается заново на каждый Commit и
// обязан быть свободен от побочных эффектов.
type ParamBinder interface {
	CommonParams() map[string]string
}

// QueueRouter разрешает имя очереди по упорядоченному списку
// типов-кандидатов. Пустая строка — очередь бэкенда по умолчанию.
type QueueRouter interface {
	Resolve(candidates ...string) string
}

// EventTransport сериализует событие в байтовый payload и обратно.
// Decode используется execute endpoint'ом и обязан быть обратен Encode.
type EventTransport interface {
	Encode(kind string, event Event) ([]byte, error)
	Decode(kind string, data []byte) (Event, error)
}

// Scheduler накапливает дескрипторы и фиксирует их одной операцией.
//
// Экземпляр принадлежит одному вызывающему; конкурентные Add/Commit
// без внешней синхронизации не поддерживаются. После Commit экземпляр
// исчерпан.
type Scheduler struct {
	backend   Backend
	transport EventTransport
	binder    ParamBinder
	router    QueueRouter

	pending []*Descriptor
	spent   bool
}

// Config — зависимости Scheduler. Binder и Router опциональны:
// без binder'а общие параметры не добавляются, без router'а вся работа
// идёт в очередь по умолчанию.
type Config struct {
	Backend   Backend
	Transport EventTransport
	Binder    ParamBinder
	Router    QueueRouter
}

// New создаёт Scheduler.
func New(cfg Config) *Scheduler {
	return &Scheduler{
		backend:   cfg.Backend,
		transport: cfg.Transport,
		binder:    cfg.Binder,
		router:    cfg.Router,
	}
}

// Add добавляет дескрипторы в порядке перечисления. Возвращает сам
// Scheduler для цепочек вызовов. Валидации на этом этапе нет.
func (s *Scheduler) Add(descriptors ...*Descriptor) *Scheduler {
	s.pending = append(s.pending, descriptors...)
	return s
}

// Commit отправляет накопленные дескрипторы в порядке добавления.
//
// Для каждого дескриптора: общие параметры применяются последними и
// при коллизии ключей побеждают; строится запрос; разрешается очередь;
// запрос ставится в бэкенд с политикой повтора submit.
//
// Первая же распространённая ошибка прерывает цикл: уже отправленные
// дескрипторы остаются в очереди, отката нет. Вызывающий обязан быть
// готов получить ошибку после частичной отправки.
func (s *Scheduler) Commit(ctx context.Context) error {
	if s.spent {
		return ErrSchedulerSpent
	}
	s.spent = true

	var common map[string]string
	if s.binder != nil {
		common = s.binder.CommonParams()
	}

	for _, d := range s.pending {
		for k, v := range common {
			d.Param(k, v)
		}

		req, err := buildRequest(d, s.transport)
		if err != nil {
			return err
		}

		queue := s.routeFor(d)

		if err := s.submit(ctx, req, queue, d.transactionless); err != nil {
			return err
		}
	}

	return nil
}

// routeFor собирает кандидатов маршрутизации: для задачи — только её
// тип, для события — тип события, обработчик, listener, в этом порядке.
func (s *Scheduler) routeFor(d *Descriptor) string {
	if s.router == nil {
		return ""
	}
	if d.IsEvent() {
		return s.router.Resolve(d.event.Kind(), d.handler, d.listener)
	}
	return s.router.Resolve(d.taskType)
}

// submit выполняет одну постановку с политикой повтора:
//
//   - конфликт имени на первой попытке — успех (fan-in: проигравшие
//     продюсеры молча продолжают);
//   - временный сбой — ровно один немедленный повтор с теми же
//     аргументами; ошибка повтора распространяется, включая конфликт
//     имени, всплывший только на повторе;
//   - любая другая ошибка распространяется сразу.
func (s *Scheduler) submit(ctx context.Context, req *Request, queueName string, transactionless bool) error {
	err := s.backend.Enqueue(ctx, req, queueName, transactionless)
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrTaskAlreadyExists) {
		return nil
	}

	if errors.Is(err, ErrTransientFailure) {
		return s.backend.Enqueue(ctx, req, queueName, transactionless)
	}

	return err
}
