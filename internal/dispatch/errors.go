package dispatch

import "errors"

// Ошибки ядра и условия бэкенда.
var (
	// ErrTaskAlreadyExists — в очереди уже есть задача с таким именем.
	// На первой попытке постановки трактуется как успех (fan-in).
	ErrTaskAlreadyExists = errors.New("task already exists")

	// ErrTransientFailure — временный сбой бэкенда; постановка
	// повторяется ровно один раз.
	ErrTransientFailure = errors.New("transient backend failure")

	// ErrEncodeEvent — payload события не сериализуется.
	// Ошибка конфигурации: не повторяется, прерывает Commit.
	ErrEncodeEvent = errors.New("event payload not encodable")

	// ErrSchedulerSpent — Scheduler уже зафиксирован; повторный
	// Commit не переотправляет дескрипторы.
	ErrSchedulerSpent = errors.New("scheduler already committed")
)
